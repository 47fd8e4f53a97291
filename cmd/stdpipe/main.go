package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"stdpipe/common"
	"stdpipe/config"
	"stdpipe/misc"
	"stdpipe/pipeline"
	"stdpipe/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration, token is masked by Dump
		name := "config/default.yaml"
		if len(configFile) > 0 {
			name = fmt.Sprintf("config/%s", filepath.Base(configFile))
		}
		if data, err := config.Dump(env.Cfg); err == nil {
			env.Rpt.StoreData(name, data)
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()), zap.String("id", env.Rpt.ID()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Ignore urfave/cli default error handling - for me cli.Exit() looks
// non-transparent and unnesessary. I will return regular errors from
// subcommands.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {

	// allow graceful shutdown on interrupt, long polling of parsing service
	// and downloads honor context cancellation
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	// flags keep parsed state, every command needs its own instance
	dryRunFlag := func() cli.Flag {
		return &cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "compute new names but do not rename documents and pictures"}
	}

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "processing pipeline for standards documents (PDF) parsed by MinerU service",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "process",
				Usage:        "Submits PDF document(s) for parsing and processes results",
				OnUsageError: usageErrorHandler,
				Action:       pipeline.Run,
				Flags: []cli.Flag{
					dryRunFlag(),
					&cli.BoolFlag{Name: "skip-images", Usage: "do not rename pictures and do not produce pictures spreadsheet"},
					&cli.BoolFlag{Name: "skip-toc", Usage: "do not produce table of contents spreadsheet"},
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "ignore journal, always submit documents for parsing"},
					&cli.StringFlag{Name: "force-zip-cp",
						Usage: "Force `ENCODING` for ALL non UTF-8 file names in result archives (see IANA.org for character set names)"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to a PDF file or to a directory with PDF files (subdirectories are
    processed when batch.recursive is set), files are recognized by extension
    and content; http(s) URL of a PDF document is submitted to the parsing
    service as is and never renamed

DESTINATION:
    output root, every document gets its own directory named after the file
    (or the last element of URL path)
    if absent - batch.output_root from configuration

Parsing service token is taken from MINERU_TOKEN environment variable unless
configuration says otherwise. Model used for parsing is %q by default (%s).
`, cli.CommandHelpTemplate, common.ModelVersionVlm, strings.Join(common.ModelVersionNames(), ", ")),
			},
			{
				Name:         "rename",
				Usage:        "Renames PDF document using already unpacked parsing results",
				OnUsageError: usageErrorHandler,
				Action:       pipeline.RunRename,
				Flags:        []cli.Flag{dryRunFlag()},
				ArgsUsage:    "RESULT_DIR PDF_DIR",
			},
			{
				Name:         "toc",
				Usage:        "Exports table of contents from already unpacked parsing results",
				OnUsageError: usageErrorHandler,
				Action:       pipeline.RunTOC,
				ArgsUsage:    "RESULT_DIR [XLSX]",
				CustomHelpTemplate: fmt.Sprintf(`%s
RESULT_DIR:
    directory with layout (*model*.json) files, standard number and title are
    taken from the names of directories holding them

XLSX:
    spreadsheet to write, if absent - export.toc_file_name inside RESULT_DIR
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "images",
				Usage:        "Renames pictures and exports pictures spreadsheet from already unpacked parsing results",
				OnUsageError: usageErrorHandler,
				Action:       pipeline.RunImages,
				Flags:        []cli.Flag{dryRunFlag()},
				ArgsUsage:    "RESULT_DIR [XLSX]",
				CustomHelpTemplate: fmt.Sprintf(`%s
RESULT_DIR:
    directory with content list (*content_list*.json) files

XLSX:
    spreadsheet to write, if absent - export.images_file_name inside RESULT_DIR
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "journal",
				Usage:        "Dumps content of documents journal (YAML)",
				OnUsageError: usageErrorHandler,
				Action:       pipeline.RunJournal,
				ArgsUsage:    "DESTINATION",
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values wich is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()

	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	_, err = out.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
