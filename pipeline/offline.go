package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"stdpipe/content"
	"stdpipe/export"
	"stdpipe/media"
	"stdpipe/naming"
	"stdpipe/toc"
)

// RenameFromResult renames PDF located in pdfDir using signals found in
// already unpacked parsing results.
func (p *Processor) RenameFromResult(resultDir, pdfDir string) error {
	lists, err := content.FindContentLists(resultDir)
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		return fmt.Errorf("no content list found under %s", resultDir)
	}

	var errs error
	for _, path := range lists {
		log := p.log.With(zap.String("json", path))

		list, err := content.LoadList(path)
		if err != nil {
			log.Warn("Skipping content list", zap.Error(err))
			continue
		}
		info := p.extractor.Extract(list)
		log.Info("Document signals", zap.String("title", info.Title), zap.String("std_no", info.StdNo))
		if !info.Complete() {
			log.Info("Title or standard number not recognized, rename skipped")
			continue
		}

		out, err := p.namer.RenameInDir(pdfDir, info.StdNo, info.Title, p.env.DryRun)
		switch {
		case errors.Is(err, naming.ErrTargetExists):
			log.Warn("Document was not renamed", zap.Error(err))
		case err != nil:
			errs = multierr.Append(errs, err)
		case p.env.DryRun:
			log.Info("Dry run, document would be " + out.String())
		default:
			log.Info("Document " + out.String())
		}
	}
	return errs
}

// ExportTOC reconstructs outline from all layout files under resultDir and
// writes it to xlsx. Standard number and title come from names of directories
// holding layout files.
func (p *Processor) ExportTOC(resultDir, xlsx string) (int, error) {
	info := func(model string) (string, string) {
		return toc.StdInfoFromDir(filepath.Dir(model))
	}
	rows := p.outline(resultDir, info, "toc", p.log)
	if err := export.WriteTOC(xlsx, rows); err != nil {
		return 0, err
	}
	p.log.Info("Outline exported", zap.String("xlsx", xlsx), zap.Int("rows", len(rows)))
	return len(rows), nil
}

// ExportImages renames pictures referenced by all content lists under
// resultDir and writes picture spreadsheet to xlsx.
func (p *Processor) ExportImages(resultDir, xlsx string) (export.Stats, error) {
	lists, err := content.FindContentLists(resultDir)
	if err != nil {
		return export.Stats{}, err
	}

	var (
		rows     []media.Row
		trackers = make(map[string]*media.NameTracker)
	)
	for _, path := range lists {
		log := p.log.With(zap.String("json", path))

		list, err := content.LoadList(path)
		if err != nil {
			log.Warn("Skipping content list", zap.Error(err))
			continue
		}
		stdNo, _ := p.extractor.StdNo(list)

		root := filepath.Dir(path)
		if trackers[root] == nil {
			trackers[root] = media.NewNameTracker()
		}
		rows = append(rows, p.pictures(root, path, list, stdNo, trackers[root], log)...)
	}

	for i := range rows {
		rows[i].OrderIndex = i + 1
	}
	stats, err := p.images.WriteImages(xlsx, rows)
	if err != nil {
		return stats, err
	}
	p.log.Info("Pictures exported", zap.String("xlsx", xlsx), zap.Int("rows", len(rows)),
		zap.Int("embedded", stats.Embedded), zap.Int("missing", stats.Missing), zap.Int("errors", stats.Errors))
	return stats, nil
}
