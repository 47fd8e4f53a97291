// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"stdpipe/config"
)

type envKey struct{}

// Options are per-run switches set from command flags.
type Options struct {
	DryRun     bool
	Force      bool
	SkipImages bool
	SkipTOC    bool
	// forced code page for non UTF-8 names in result archives
	CodePage encoding.Encoding
}

// Fields returns options as log fields.
func (o Options) Fields() []zap.Field {
	return []zap.Field{
		zap.Bool("dry_run", o.DryRun),
		zap.Bool("force", o.Force),
		zap.Bool("skip_images", o.SkipImages),
		zap.Bool("skip_toc", o.SkipTOC),
		zap.Bool("code_page", o.CodePage != nil),
	}
}

// LocalEnv is created once per program run and travels in context.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	Options

	start         time.Time
	restoreStdLog func()
}

// EnvFromContext panics when ctx was not prepared by ContextWithEnv.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(envKey{}).(*LocalEnv)
	if !ok {
		panic("program state is missing from context")
	}
	return env
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// RedirectStdLog sends output of standard library logger (used by some
// dependencies) into zap.
func (e *LocalEnv) RedirectStdLog() {
	if e.Log != nil {
		e.restoreStdLog = zap.RedirectStdLog(e.Log)
	}
}

// RestoreStdLog flushes logger and undoes RedirectStdLog.
func (e *LocalEnv) RestoreStdLog() {
	if e.Log == nil {
		return
	}
	_ = e.Log.Sync()
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}
