package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"agenda/internal/config"
	"agenda/internal/filter"
	appLog "agenda/internal/log"
	"agenda/internal/model"
	"agenda/internal/render"
)

type rootOptions struct {
	configPath string
}

type onceOptions struct {
	ticks   int
	filter  string
	view    string
	noColor bool
}

func newRootCommand() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "agenda",
		Short:         "A live agenda of your calendars in the terminal.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, ro)
		},
	}
	cmd.PersistentFlags().StringVar(&ro.configPath, "config", config.DefaultPath, "Path to config file")

	cmd.AddCommand(newRunCommand(ro), newOnceCommand(ro))
	return cmd
}

func newRunCommand(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the interactive agenda (default).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, ro)
		},
	}
}

func newOnceCommand(ro *rootOptions) *cobra.Command {
	oo := &onceOptions{}
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Print the agenda once and exit.",
		Example: `
agenda once
agenda once --ticks 3 --view department
agenda once --filter work`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, ro, oo)
		},
	}
	cmd.Flags().IntVar(&oo.ticks, "ticks", 0, "Number of update ticks to run before printing")
	cmd.Flags().StringVar(&oo.filter, "filter", "", "Calendar id to show, or \"all\"")
	cmd.Flags().StringVar(&oo.view, "view", "", "Layout: flat or department (defaults to config)")
	cmd.Flags().BoolVar(&oo.noColor, "no-color", false, "Disable colored output")
	return cmd
}

func loadConfig(ro *rootOptions) (*config.Config, error) {
	conf, err := config.Load(ro.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", ro.configPath, err)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("effective config",
		"config_path", ro.configPath,
		"refresh", conf.Refresh,
		"timezone", conf.Timezone,
		"selection_mode", conf.SelectionMode,
		"view_mode", conf.ViewMode,
		"horizon_days", conf.HorizonDays,
		"ics_count", len(conf.Calendars),
	)
	return conf, nil
}

func runTUI(cmd *cobra.Command, ro *rootOptions) error {
	ctx := cmd.Context()

	conf, err := loadConfig(ro)
	if err != nil {
		return err
	}

	// TUI가 터미널을 쓰는 동안 로그는 파일로 보낸다.
	logPath := conf.LogFile
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), "agenda.log")
	}
	if logPath, err = config.ExpandPath(logPath); err != nil {
		return err
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	appLog.SetOutput(f)
	defer appLog.SetOutput(os.Stderr)

	app, err := newApp(conf)
	if err != nil {
		return err
	}
	defer app.dash.Close()

	app.dash.Start()
	appLog.Info("agenda started", "version", version, "log_file", logPath)

	err = render.Run(ctx, app.dash, app.loc)
	appLog.Info("agenda exiting")
	return err
}

func runOnce(cmd *cobra.Command, ro *rootOptions, oo *onceOptions) error {
	ctx := cmd.Context()

	conf, err := loadConfig(ro)
	if err != nil {
		return err
	}
	if oo.view != "" {
		conf.ViewMode = oo.view
	}
	mode, err := model.ParseViewMode(conf.ViewMode)
	if err != nil {
		return err
	}

	app, err := newApp(conf)
	if err != nil {
		return err
	}
	defer app.dash.Close()

	if err := app.dash.SetViewMode(ctx, mode); err != nil {
		return err
	}
	for i := 0; i < oo.ticks; i++ {
		// failed ticks are logged by the scheduler and show in diagnostics
		_ = app.dash.Tick(ctx)
	}
	if oo.filter != "" {
		sel := filter.Selection{ID: oo.filter, Source: filter.SourceMenu}
		if _, err := app.dash.SelectFilter(ctx, sel); err != nil {
			return err
		}
	}

	snap, err := app.dash.Snapshot(ctx)
	if err != nil {
		return err
	}
	return render.Text(cmd.OutOrStdout(), snap, render.TextOptions{
		Location: app.loc,
		NoColor:  oo.noColor,
	})
}
