// Package pipeline drives documents through remote parsing and local
// post-processing: renaming of documents and pictures, outline and picture
// spreadsheets.
package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"stdpipe/archive"
	"stdpipe/content"
	"stdpipe/export"
	"stdpipe/extract"
	"stdpipe/journal"
	"stdpipe/media"
	"stdpipe/mineru"
	"stdpipe/naming"
	"stdpipe/state"
	"stdpipe/toc"
)

// Persisted layout of per-document output directory.
const (
	ZipName  = "result.zip"
	UnzipDir = "unzipped"
)

// Parser submits document to remote parsing service and waits for result.
type Parser interface {
	SubmitFile(ctx context.Context, path string) (*mineru.Result, error)
	SubmitURL(ctx context.Context, url string) (*mineru.Result, error)
}

// Fetcher downloads result archive.
type Fetcher interface {
	Download(ctx context.Context, url, path string) error
}

// Document summarizes processing of a single source.
type Document struct {
	Source  string
	OutDir  string
	Info    extract.Result
	Renamed string
	Resumed bool
	Images  export.Stats
	TOCRows int
}

// Processor runs all processing steps. Parser and fetcher are only needed for
// remote parsing, offline commands work without them.
type Processor struct {
	env       *state.LocalEnv
	parser    Parser
	fetcher   Fetcher
	journal   *journal.Journal
	extractor *extract.Extractor
	namer     *naming.Namer
	images    *export.ImageWriter
	log       *zap.Logger
	seq       int
}

func NewProcessor(env *state.LocalEnv, parser Parser, fetcher Fetcher, jrnl *journal.Journal, log *zap.Logger) (*Processor, error) {
	extractor, err := extract.New(&env.Cfg.Extract)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare extractor: %w", err)
	}
	return &Processor{
		env:       env,
		parser:    parser,
		fetcher:   fetcher,
		journal:   jrnl,
		extractor: extractor,
		namer:     naming.NewNamer(&env.Cfg.Naming),
		images:    export.NewImageWriter(&env.Cfg.Export, log),
		log:       log,
	}, nil
}

// ProcessAll processes every PDF found in src, or remote document when src is
// URL. Failure of a single document is logged and does not stop the batch.
func (p *Processor) ProcessAll(ctx context.Context, src, dst string) error {
	pdfs := []string{src}
	if !IsRemote(src) {
		var err error
		if pdfs, err = FindPDFs(src, p.env.Cfg.Batch.Recursive, p.log); err != nil {
			return err
		}
	}
	if len(pdfs) == 0 {
		p.log.Info("Nothing to process", zap.String("source", src))
		return nil
	}
	p.log.Info("Documents found", zap.Int("count", len(pdfs)))

	var failed int
	for i, pdf := range pdfs {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.log.Info("Progress", zap.Int("current", i+1), zap.Int("total", len(pdfs)))
		if _, err := p.ProcessOne(ctx, pdf, dst); err != nil {
			failed++
			p.log.Error("Unable to process document", zap.String("file", pdf), zap.Error(err))
		}
	}
	if failed > 0 {
		p.log.Warn("Some documents were not processed", zap.Int("failed", failed), zap.Int("total", len(pdfs)))
	}
	return nil
}

// ProcessOne runs single document (local file or URL) through the whole
// pipeline. Results go to dst/<document stem>/.
func (p *Processor) ProcessOne(ctx context.Context, pdf, dst string) (doc *Document, rerr error) {
	stem := sourceStem(pdf)
	doc = &Document{Source: pdf, OutDir: filepath.Join(dst, stem)}
	log := p.log.With(zap.String("file", sourceName(pdf)))

	log.Info("Document processing starting", zap.String("from", pdf))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Document processing ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("processing panic: %v", r)
		} else if rerr == nil {
			log.Info("Document processing completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", doc.OutDir))
		}
	}(time.Now())

	if err := os.MkdirAll(doc.OutDir, 0755); err != nil {
		return doc, fmt.Errorf("unable to create output directory: %w", err)
	}

	zipPath := filepath.Join(doc.OutDir, ZipName)
	entry, err := p.obtain(ctx, pdf, zipPath, log)
	if err != nil {
		return doc, err
	}
	doc.Resumed = entry.resumed

	unzipDir := filepath.Join(doc.OutDir, UnzipDir)
	if err := p.unpack(zipPath, unzipDir, log); err != nil {
		return doc, err
	}

	p.seq++
	prefix := fmt.Sprintf("documents/%03d-%s", p.seq, stem)

	lists, err := content.FindContentLists(unzipDir)
	if err != nil {
		return doc, err
	}
	if len(lists) == 0 {
		log.Warn("No content list found in parsing results", zap.String("dir", unzipDir))
	}

	var (
		current = pdf
		rows    []media.Row
		// pictures of all content lists under the same root share names
		trackers = make(map[string]*media.NameTracker)
	)
	for _, path := range lists {
		list, err := content.LoadList(path)
		if err != nil {
			log.Warn("Skipping content list", zap.String("json", path), zap.Error(err))
			continue
		}
		rel, _ := filepath.Rel(unzipDir, path)
		name := prefix + "/" + filepath.ToSlash(rel)
		if err := p.env.Rpt.StoreCopy(name, path); err != nil {
			log.Debug("Unable to put content list into report", zap.Error(err))
		}
		p.env.Rpt.StoreData(name+".txt", []byte(list.String()))

		info := p.extractor.Extract(list)
		log.Info("Document signals", zap.String("json", rel), zap.String("title", info.Title), zap.String("std_no", info.StdNo))
		if info.Complete() {
			doc.Info = info
			current = p.renamePDF(current, info, log)
		} else {
			log.Info("Title or standard number not recognized, rename skipped", zap.String("json", rel))
			if doc.Info.StdNo == "" {
				doc.Info.StdNo = info.StdNo
			}
		}

		if !p.env.SkipImages {
			root := filepath.Dir(path)
			if trackers[root] == nil {
				trackers[root] = media.NewNameTracker()
			}
			rows = append(rows, p.pictures(root, path, list, info.StdNo, trackers[root], log)...)
		}
	}
	if current != pdf {
		doc.Renamed = current
	}

	if !p.env.SkipImages {
		doc.Images = p.writeImages(filepath.Join(doc.OutDir, p.env.Cfg.Export.ImagesFileName), rows, log)
	}

	if !p.env.SkipTOC {
		var info func(string) (string, string)
		if doc.Info.Complete() {
			info = func(string) (string, string) { return doc.Info.StdNo, doc.Info.Title }
		} else {
			info = func(string) (string, string) { return toc.StdInfoFromDir(doc.OutDir) }
		}
		tocRows := p.outline(unzipDir, info, prefix, log)
		if p.writeTOC(filepath.Join(doc.OutDir, p.env.Cfg.Export.TOCFileName), tocRows, log) {
			doc.TOCRows = len(tocRows)
		}
	}

	entry.StdNo, entry.Title, entry.RenamedTo = doc.Info.StdNo, doc.Info.Title, doc.Renamed
	p.record(entry.Entry, log)
	p.env.Rpt.StoreJSON(prefix+"/summary.json", doc)
	return doc, nil
}

type obtained struct {
	journal.Entry
	resumed bool
}

// obtain makes sure parsing result archive is available at zipPath either
// from earlier run recorded in journal or by submitting document.
func (p *Processor) obtain(ctx context.Context, pdf, zipPath string, log *zap.Logger) (obtained, error) {
	res := obtained{Entry: journal.Entry{Source: pdf}}

	if !p.env.Force {
		prev, err := p.journal.Lookup(pdf)
		if err != nil {
			log.Warn("Journal is not available", zap.Error(err))
		}
		if prev != nil && prev.State == mineru.StateDone {
			if _, err := os.Stat(zipPath); err == nil {
				log.Info("Using results of earlier parsing", zap.String("batch", prev.BatchID), zap.String("zip", zipPath))
				res.Entry, res.resumed = *prev, true
				return res, nil
			}
		}
	}

	if p.parser == nil || p.fetcher == nil {
		return res, errors.New("parsing service is not configured")
	}

	submit := p.parser.SubmitFile
	if IsRemote(pdf) {
		submit = p.parser.SubmitURL
	}
	r, err := submit(ctx, pdf)
	if r != nil {
		res.BatchID, res.State, res.ZipURL = cmp.Or(r.BatchID, r.TaskID), r.State, r.FullZipURL
	}
	if err != nil {
		res.State = mineru.StateFailed
		p.record(res.Entry, log)
		return res, fmt.Errorf("unable to parse document: %w", err)
	}
	if len(r.FullZipURL) == 0 {
		res.State = mineru.StateFailed
		p.record(res.Entry, log)
		return res, errors.New("parsing result has no archive URL")
	}

	log.Info("Downloading results", zap.String("url", r.FullZipURL))
	if err := p.fetcher.Download(ctx, r.FullZipURL, zipPath); err != nil {
		p.record(res.Entry, log)
		return res, err
	}
	p.record(res.Entry, log)
	return res, nil
}

// unpack replaces content of unzipDir with archive entries and removes
// archive unless it should be kept.
func (p *Processor) unpack(zipPath, unzipDir string, log *zap.Logger) error {
	if err := os.RemoveAll(unzipDir); err != nil {
		return fmt.Errorf("unable to clean %s: %w", unzipDir, err)
	}
	n, err := archive.Extract(zipPath, unzipDir, p.env.CodePage)
	if err != nil {
		return fmt.Errorf("unable to unpack results: %w", err)
	}
	log.Debug("Results unpacked", zap.String("dir", unzipDir), zap.Int("files", n))

	if p.env.Cfg.Batch.KeepZip {
		return nil
	}
	if err := os.Remove(zipPath); err != nil {
		log.Warn("Unable to remove results archive", zap.String("zip", zipPath), zap.Error(err))
	}
	return nil
}

func (p *Processor) record(e journal.Entry, log *zap.Logger) {
	if err := p.journal.Record(e); err != nil {
		log.Warn("Unable to update journal", zap.Error(err))
	}
}

// renamePDF renames document in place and returns its current path.
func (p *Processor) renamePDF(pdf string, info extract.Result, log *zap.Logger) string {
	if IsRemote(pdf) {
		log.Info("Remote document is not renamed", zap.String("std_no", info.StdNo), zap.String("title", info.Title))
		return pdf
	}
	out, err := p.namer.RenameFile(pdf, info.StdNo, info.Title, p.env.DryRun)
	switch {
	case errors.Is(err, naming.ErrTargetExists):
		log.Warn("Document was not renamed", zap.Error(err))
		return pdf
	case err != nil:
		log.Error("Document was not renamed", zap.Error(err))
		return pdf
	}
	if p.env.DryRun {
		log.Info("Dry run, document would be "+out.String(), zap.String("from", out.From))
		return pdf
	}
	log.Info("Document "+out.String(), zap.String("to", out.To))
	return out.To
}

// pictures renames pictures referenced by content list and returns their
// spreadsheet rows. In dry run rows keep original picture paths.
func (p *Processor) pictures(root, source string, list content.List, stdNo string, tracker *media.NameTracker, log *zap.Logger) []media.Row {
	blocks := media.Harvest(list, source)
	if len(blocks) == 0 {
		return nil
	}

	res := media.NewRenamer(tracker, p.env.DryRun).Rename(root, blocks)
	for _, msg := range res.Errors {
		log.Warn("Picture problem", zap.String("details", msg))
	}
	log.Debug("Pictures renamed", zap.Int("found", len(blocks)), zap.Int("renamed", len(res.Mapping)),
		zap.Int("problems", len(res.Errors)), zap.Bool("dry_run", p.env.DryRun))

	mapping := res.Mapping
	if p.env.DryRun {
		for from, to := range mapping {
			log.Info("Dry run, picture would be renamed", zap.String("from", from), zap.String("to", to))
		}
		mapping = nil
	}
	return media.Rows(blocks, mapping, stdNo, root)
}

func (p *Processor) writeImages(path string, rows []media.Row, log *zap.Logger) export.Stats {
	// numbering continues across content lists
	for i := range rows {
		rows[i].OrderIndex = i + 1
	}
	stats, err := p.images.WriteImages(path, rows)
	switch {
	case errors.Is(err, export.ErrNoRows):
		log.Info("No pictures to export")
	case err != nil:
		log.Error("Unable to export pictures", zap.Error(err))
	default:
		log.Info("Pictures exported", zap.String("xlsx", path), zap.Int("rows", len(rows)),
			zap.Int("embedded", stats.Embedded), zap.Int("missing", stats.Missing), zap.Int("errors", stats.Errors))
	}
	return stats
}

// outline reconstructs table of contents from every layout file under root.
// Standard information for each file is provided by info. Entries repeated
// across files are dropped.
func (p *Processor) outline(root string, info func(model string) (stdNo, stdTitle string), prefix string, log *zap.Logger) []toc.Row {
	models, err := content.FindModels(root)
	if err != nil {
		log.Warn("Unable to look for layout files", zap.Error(err))
		return nil
	}

	type key struct{ id, text string }
	var (
		rows []toc.Row
		seen = make(map[key]bool)
	)
	for _, path := range models {
		layout, err := content.LoadLayout(path)
		if err != nil {
			log.Warn("Skipping layout file", zap.String("json", path), zap.Error(err))
			continue
		}
		stdNo, stdTitle := info(path)
		found := toc.Reconstruct(layout, &p.env.Cfg.TOC, stdNo, stdTitle)
		if len(found) == 0 {
			log.Warn("No outline entries recognized", zap.String("json", path))
			continue
		}
		if rel, err := filepath.Rel(root, path); err == nil {
			name := prefix + "/" + filepath.ToSlash(rel)
			p.env.Rpt.StoreData(name+".txt", []byte(layout.String()))
			p.env.Rpt.StoreData(name+".toc.txt", []byte(toc.NewTree(found).String()))
		}
		for _, r := range found {
			k := key{r.ClauseID, r.ClauseText}
			if seen[k] {
				continue
			}
			seen[k] = true
			rows = append(rows, r)
		}
		log.Debug("Outline reconstructed", zap.String("json", path), zap.Int("entries", len(found)), zap.Int("total", len(rows)))
	}
	return rows
}

func (p *Processor) writeTOC(path string, rows []toc.Row, log *zap.Logger) bool {
	err := export.WriteTOC(path, rows)
	switch {
	case errors.Is(err, export.ErrNoRows):
		log.Info("No outline to export")
		return false
	case err != nil:
		log.Error("Unable to export outline", zap.Error(err))
		return false
	}
	log.Info("Outline exported", zap.String("xlsx", path), zap.Int("rows", len(rows)))
	return true
}
