package state

import (
	"context"
	"log"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestContextWithEnv(t *testing.T) {
	ctx := ContextWithEnv(context.Background())

	env := EnvFromContext(ctx)
	if env.start.IsZero() {
		t.Error("start time is not set")
	}
	if env.DryRun || env.Force || env.SkipImages || env.SkipTOC || env.CodePage != nil {
		t.Errorf("fresh environment has options set: %+v", env.Options)
	}

	// subcommands modify shared environment through context
	env.DryRun = true
	if !EnvFromContext(ctx).DryRun {
		t.Error("environment is not shared through context")
	}
	if env.Uptime() < 0 {
		t.Errorf("Uptime() = %v", env.Uptime())
	}
}

func TestEnvFromContext_Missing(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("no panic for context without environment")
		}
	}()
	EnvFromContext(context.Background())
}

func TestOptions_Fields(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want map[string]bool
	}{
		{"defaults", Options{}, map[string]bool{
			"dry_run": false, "force": false, "skip_images": false, "skip_toc": false, "code_page": false,
		}},
		{"everything set", Options{DryRun: true, Force: true, SkipImages: true, SkipTOC: true, CodePage: simplifiedchinese.GBK},
			map[string]bool{
				"dry_run": true, "force": true, "skip_images": true, "skip_toc": true, "code_page": true,
			}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := tt.opts.Fields()
			if len(fields) != len(tt.want) {
				t.Fatalf("Fields() returned %d fields, want %d", len(fields), len(tt.want))
			}
			for _, f := range fields {
				want, ok := tt.want[f.Key]
				if !ok {
					t.Errorf("unexpected field %q", f.Key)
					continue
				}
				if got := f.Integer == 1; f.Type != zapcore.BoolType || got != want {
					t.Errorf("field %q = %v, want %v", f.Key, got, want)
				}
			}
		})
	}
}

func TestLocalEnv_StdLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	env := &LocalEnv{Log: zap.New(core)}

	env.RedirectStdLog()
	log.Print("message from dependency")
	env.RestoreStdLog()
	if env.restoreStdLog != nil {
		t.Error("restore function was kept after RestoreStdLog()")
	}

	if got := logs.FilterMessage("message from dependency").Len(); got != 1 {
		t.Errorf("standard logger output captured %d times, want 1", got)
	}

	// nothing to redirect to
	env = &LocalEnv{}
	env.RedirectStdLog()
	env.RestoreStdLog()
	if env.restoreStdLog != nil {
		t.Error("redirect happened without logger")
	}
}
