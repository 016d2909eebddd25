package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/todos/internal/app"
	"github.com/aretw0/todos/internal/config"
	"github.com/aretw0/todos/internal/logging"
	"github.com/aretw0/todos/internal/presentation/tui"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type globalFlags struct {
	config   string
	logLevel string
	settle   time.Duration
	plain    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:          "todos",
		Short:        "A todo list with a guided tour, cached between runs",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "Path to a YAML config file")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	pf.DurationVar(&flags.settle, "settle", 2*time.Second, "How long to wait for delayed effects and saves before exiting")
	pf.BoolVar(&flags.plain, "plain", false, "Disable colors and markdown styling")

	root.AddCommand(
		newListCmd(flags),
		newAddCmd(flags),
		newToggleCmd(flags),
		newEditCmd(flags),
		newDeleteCmd(flags),
		newDeleteAllCmd(flags),
		newClearCompletedCmd(flags),
		newFilterCmd(flags),
		newMoveCmd(flags),
		newEditModeCmd(flags),
		newOnboardingCmd(flags),
		newServeCmd(flags),
		newInteractiveCmd(flags),
		newVersionCmd(),
	)
	return root
}

// session is one CLI invocation's app plus its outputs.
type session struct {
	app       *app.App
	cfg       config.Config
	logger    *slog.Logger
	presenter *tui.Presenter
	settle    time.Duration
}

func loadConfig(flags *globalFlags) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return cfg, nil, err
	}
	levelName := cfg.LogLevel
	if flags.logLevel != "" {
		levelName = flags.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logging.NewTo(os.Stderr, level, cfg.LogFormat), nil
}

func openSession(cmd *cobra.Command, flags *globalFlags, opts ...app.Option) (*session, error) {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	profile, style := termenv.ColorProfile(), ""
	if flags.plain {
		profile, style = termenv.Ascii, "notty"
	}
	presenter, err := tui.NewPresenter(cmd.OutOrStdout(), profile, style)
	if err != nil {
		return nil, err
	}

	a, err := app.New(cmd.Context(), cfg, append([]app.Option{app.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open todos: %w", err)
	}
	return &session{app: a, cfg: cfg, logger: logger, presenter: presenter, settle: flags.settle}, nil
}

// close waits up to the settle duration, then shuts the app down. Running
// out of time is reported but not fatal: in-memory state already changed.
func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.settle)
	defer cancel()
	err := s.app.Close(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("Exited before pending effects settled", "settle", s.settle)
		return nil
	}
	return err
}

// closeAndLog is close for deferred use, where the error has no caller left
// to return to.
func (s *session) closeAndLog() {
	if err := s.close(); err != nil {
		s.logger.Error("Failed to close todos", "err", err)
	}
}

// show prints the list the user interacts with.
func (s *session) show() error {
	view, step := s.app.Active()
	return s.presenter.Show(view.State(), step)
}

// run opens a session, applies fn, waits for effects and prints the result.
func run(flags *globalFlags, fn func(s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, flags)
		if err != nil {
			return err
		}
		if err := fn(s, args); err != nil {
			_ = s.close()
			return err
		}
		if err := s.close(); err != nil {
			return err
		}
		return s.show()
	}
}
