package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"
	yaml "gopkg.in/yaml.v3"

	"stdpipe/fetch"
	"stdpipe/journal"
	"stdpipe/mineru"
	"stdpipe/state"
)

// Run is "process" command: submits documents for parsing and post-processes
// results.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("process")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if !IsRemote(src) {
		if src, err = filepath.Abs(src); err != nil {
			return err
		}
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = env.Cfg.Batch.OutputRoot
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	setOptions(env, cmd, log)

	client, err := mineru.NewClient(&env.Cfg.Service, log)
	if err != nil {
		return fmt.Errorf("unable to prepare parsing service client: %w", err)
	}
	downloader, err := fetch.New(&env.Cfg.Download, env.Cfg.Service.Proxy, log)
	if err != nil {
		return fmt.Errorf("unable to prepare downloader: %w", err)
	}

	var jrnl *journal.Journal
	if len(env.Cfg.Journal.Path) > 0 {
		if jrnl, err = journal.Open(env.Cfg.Journal.Path); err != nil {
			return err
		}
		defer func() {
			if er := jrnl.Close(); er != nil {
				log.Warn("Unable to close journal", zap.Error(er))
			}
		}()
		env.Rpt.Store("journal.db", env.Cfg.Journal.Path)
	}

	p, err := NewProcessor(env, client, downloader, jrnl, log)
	if err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst),
		zap.Stringer("model", env.Cfg.Service.ModelVersion))
	log.Debug("Run options", env.Options.Fields()...)
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return p.ProcessAll(ctx, src, dst)
}

// RunRename is "rename" command working on already unpacked results.
func RunRename(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("rename")

	resultDir, err := dirArg(cmd, 0, "result")
	if err != nil {
		return err
	}
	pdfDir, err := dirArg(cmd, 1, "document")
	if err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	setOptions(env, cmd, log)

	p, err := NewProcessor(env, nil, nil, nil, log)
	if err != nil {
		return err
	}
	log.Info("Renaming starting", zap.String("results", resultDir), zap.String("documents", pdfDir))
	if err := p.RenameFromResult(resultDir, pdfDir); err != nil {
		return fmt.Errorf("unable to rename documents: %w", err)
	}
	return nil
}

// RunTOC is "toc" command working on already unpacked results.
func RunTOC(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("toc")

	resultDir, err := dirArg(cmd, 0, "result")
	if err != nil {
		return err
	}
	xlsx, err := outputArg(cmd, resultDir, env.Cfg.Export.TOCFileName)
	if err != nil {
		return err
	}

	p, err := NewProcessor(env, nil, nil, nil, log)
	if err != nil {
		return err
	}
	if _, err := p.ExportTOC(resultDir, xlsx); err != nil {
		return fmt.Errorf("unable to export outline: %w", err)
	}
	return nil
}

// RunImages is "images" command working on already unpacked results.
func RunImages(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("images")

	resultDir, err := dirArg(cmd, 0, "result")
	if err != nil {
		return err
	}
	xlsx, err := outputArg(cmd, resultDir, env.Cfg.Export.ImagesFileName)
	if err != nil {
		return err
	}
	setOptions(env, cmd, log)

	p, err := NewProcessor(env, nil, nil, nil, log)
	if err != nil {
		return err
	}
	if _, err := p.ExportImages(resultDir, xlsx); err != nil {
		return fmt.Errorf("unable to export pictures: %w", err)
	}
	return nil
}

// setOptions transfers command flags into environment.
func setOptions(env *state.LocalEnv, cmd *cli.Command, log *zap.Logger) {
	env.DryRun = cmd.Bool("dry-run")
	env.Force = cmd.Bool("force")
	env.SkipImages = cmd.Bool("skip-images")
	env.SkipTOC = cmd.Bool("skip-toc")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) == 0 {
		return
	}
	var err error
	env.CodePage, err = ianaindex.IANA.Encoding(cp)
	if err != nil || env.CodePage == nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
		env.CodePage = nil
		return
	}
	n, _ := ianaindex.IANA.Name(env.CodePage)
	log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
}

func dirArg(cmd *cli.Command, n int, what string) (string, error) {
	dir := cmd.Args().Get(n)
	if len(dir) == 0 {
		return "", fmt.Errorf("no %s directory has been specified", what)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("unable to access %s directory: %w", what, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return dir, nil
}

// outputArg returns spreadsheet path from second argument or default name
// inside result directory.
func outputArg(cmd *cli.Command, resultDir, name string) (string, error) {
	out := cmd.Args().Get(1)
	if len(out) == 0 {
		return filepath.Join(resultDir, name), nil
	}
	return filepath.Abs(out)
}

// RunJournal is "journal" command: outputs content of documents journal as
// YAML.
func RunJournal(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("journal")

	if len(env.Cfg.Journal.Path) == 0 {
		return errors.New("journal is not configured")
	}
	jrnl, err := journal.Open(env.Cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	entries, err := jrnl.Entries()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("unable to format journal: %w", err)
	}

	fname := cmd.Args().Get(0)
	if len(fname) == 0 {
		log.Info("Outputing journal", zap.Int("entries", len(entries)), zap.String("file", "STDOUT"))
		_, err = os.Stdout.Write(data)
	} else {
		log.Info("Outputing journal", zap.Int("entries", len(entries)), zap.String("file", fname))
		err = os.WriteFile(fname, data, 0644)
	}
	if err != nil {
		return fmt.Errorf("unable to write journal: %w", err)
	}
	return nil
}
