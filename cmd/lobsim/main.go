package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/fang"
	charmLog "github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hylla/lobsim/internal/adapters/server"
	"github.com/hylla/lobsim/internal/adapters/server/common"
	"github.com/hylla/lobsim/internal/adapters/storage/sqlite"
	"github.com/hylla/lobsim/internal/app"
	"github.com/hylla/lobsim/internal/config"
	"github.com/hylla/lobsim/internal/domain"
	"github.com/hylla/lobsim/internal/platform"
	"github.com/hylla/lobsim/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configPath string
	appName    string
	devMode    bool
	stdout     io.Writer
	stderr     io.Writer
}

// runtimeEnv is the resolved state one command runs against.
type runtimeEnv struct {
	appName    string
	devMode    bool
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if err := loadEnvFile(".env"); err != nil {
		return err
	}

	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// newRootCommand builds the command tree.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}
	opts.appName = platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("LOBSIM_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("LOBSIM_DEV_MODE"); ok {
		defaultDevMode = envDev
	}

	var (
		modeFlag   string
		playerName string
	)
	root := &cobra.Command{
		Use:   "lobsim",
		Short: "Line-of-balance scheduling game",
		Long:  "Play five rounds of construction scheduling: Gantt, line of balance, buffers, equipment and optimization.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.runTUI(cmd.Context(), modeFlag, playerName)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	root.PersistentFlags().BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	root.Flags().StringVar(&modeFlag, "mode", "", "game mode: player, validated or answer_key")
	root.Flags().StringVar(&playerName, "name", "", "pre-fill the player name")

	root.AddCommand(newPlanCommand(opts), newServeCommand(opts), newPathsCommand(opts))
	return root
}

// newPathsCommand prints resolved runtime paths.
func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show config, env and data paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := opts.paths()
			if err != nil {
				return err
			}
			out := opts.stdout
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", opts.resolveConfigPath(paths))
			_, _ = fmt.Fprintf(out, "env: %s\n", paths.EnvPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

// newPlanCommand computes one plan without starting a game.
func newPlanCommand(opts *rootOptions) *cobra.Command {
	var (
		buffer     int
		firstStart int
		equipment  map[string]int
		fleet      map[string]int
		format     string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a schedule, budget and owner-target check",
		Example: "  lobsim plan --buffer 3\n" +
			"  lobsim plan --equipment exc=1,pipe=0,back=1\n" +
			"  lobsim plan --fleet exc.large=2,pipe.standard=2,back.standard=1 --format json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := common.PlanRequest{FirstStart: firstStart, Equipment: equipment}
			if cmd.Flags().Changed("buffer") {
				req.Buffer = &buffer
			}
			if len(fleet) > 0 {
				parsed, err := parseFleet(fleet)
				if err != nil {
					return err
				}
				req.Fleet = parsed
			}
			return opts.runPlan(cmd.Context(), req, format)
		},
	}
	cmd.Flags().IntVar(&buffer, "buffer", 0, "buffer days between activities (default from config)")
	cmd.Flags().IntVar(&firstStart, "first-start", 0, "first activity start day (default after mobilization)")
	cmd.Flags().StringToIntVar(&equipment, "equipment", nil, "equipment option index per activity, e.g. exc=1")
	cmd.Flags().StringToIntVar(&fleet, "fleet", nil, "equipment units per activity option, e.g. exc.large=2")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}

// newServeCommand starts the HTTP API and MCP endpoints.
func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the plan API over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// paths resolves platform paths and loads the per-user env file.
func (o *rootOptions) paths() (platform.Paths, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
	if err != nil {
		return platform.Paths{}, err
	}
	if err := loadEnvFile(paths.EnvPath); err != nil {
		return platform.Paths{}, err
	}
	return paths, nil
}

// resolveConfigPath picks the flag, env override or platform default.
func (o *rootOptions) resolveConfigPath(paths platform.Paths) string {
	if strings.TrimSpace(o.configPath) != "" {
		return o.configPath
	}
	if envPath := strings.TrimSpace(os.Getenv("LOBSIM_CONFIG")); envPath != "" {
		return envPath
	}
	return paths.ConfigPath
}

// prepare loads config and logging for one command.
func (o *rootOptions) prepare(command string) (*runtimeEnv, error) {
	paths, err := o.paths()
	if err != nil {
		return nil, err
	}
	configPath := o.resolveConfigPath(paths)
	cfg, err := config.Load(configPath, config.Default())
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}

	logger, err := newRuntimeLogger(o.stderr, o.appName, o.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the game is active.
		logger.SetConsoleEnabled(false)
	}

	logger.Info("startup configuration resolved", "app", o.appName, "dev_mode", o.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "env_path", paths.EnvPath, "data_dir", paths.DataDir)
	logger.Info("configuration loaded", "config_path", configPath, "log_level", cfg.Logging.Level, "mode", cfg.Game.Mode)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}
	return &runtimeEnv{
		appName:    o.appName,
		devMode:    o.devMode,
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// close releases the runtime log sink.
func (e *runtimeEnv) close(stderr io.Writer) {
	if closeErr := e.logger.Close(); closeErr != nil && e.logger.shouldLogToSink(e.logger.consoleSink) {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
	}
}

// newService builds the application service from config.
func (e *runtimeEnv) newService(store app.ResultStore) (*app.Service, error) {
	svcCfg, err := e.cfg.ServiceConfig()
	if err != nil {
		e.logger.Error("service config invalid", "config_path", e.configPath, "err", err)
		return nil, fmt.Errorf("build service config: %w", err)
	}
	svc := app.NewService(store, uuid.NewString, nil, svcCfg)
	e.logger.Debug("application service initialized", "crews", len(svcCfg.Catalog.Crews), "target_days", svcCfg.Targets.MaxDays, "target_cost", svcCfg.Targets.MaxCost)
	return svc, nil
}

// runTUI starts the interactive game.
func (o *rootOptions) runTUI(_ context.Context, modeFlag, playerName string) error {
	env, err := o.prepare("tui")
	if err != nil {
		return err
	}
	defer env.close(o.stderr)
	logger := env.logger

	rawMode := env.cfg.Game.Mode
	if strings.TrimSpace(modeFlag) != "" {
		rawMode = modeFlag
	}
	mode, err := domain.ParseMode(rawMode)
	if err != nil {
		return fmt.Errorf("mode %q: %w", rawMode, err)
	}

	logger.Info("opening sqlite results ledger", "mode", "memory")
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		logger.Error("sqlite open failed", "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "err", closeErr)
		}
	}()
	logger.Info("sqlite results ledger ready", "name", repo.Name(), "migrations", "ensured")

	svc, err := env.newService(repo)
	if err != nil {
		return err
	}

	opts := []tui.Option{
		tui.WithMode(mode),
		tui.WithChartConfig(tui.ChartConfig{Width: env.cfg.Chart.Width, Height: env.cfg.Chart.Height}),
	}
	if name := strings.TrimSpace(playerName); name != "" {
		opts = append(opts, tui.WithPlayerName(name))
	}
	m := tui.NewModel(svc, opts...)
	logger.Info("command flow start", "command", "tui", "mode", mode)
	logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// runPlan prints one computed plan.
func (o *rootOptions) runPlan(ctx context.Context, req common.PlanRequest, format string) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q: want text or json", format)
	}
	env, err := o.prepare("plan")
	if err != nil {
		return err
	}
	defer env.close(o.stderr)

	svc, err := env.newService(nil)
	if err != nil {
		return err
	}
	env.logger.Info("command flow start", "command", "plan", "equipment", len(req.Equipment), "fleet", len(req.Fleet))
	view, err := common.NewAppServiceAdapter(svc).Plan(ctx, req)
	if err != nil {
		env.logger.Error("command flow failed", "command", "plan", "err", err)
		return fmt.Errorf("run plan command: %w", err)
	}

	if format == "json" {
		encoded, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("encode plan json: %w", err)
		}
		encoded = append(encoded, '\n')
		if _, err := o.stdout.Write(encoded); err != nil {
			return fmt.Errorf("write plan: %w", err)
		}
	} else if _, err := io.WriteString(o.stdout, renderPlanText(view)); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	env.logger.Info("command flow complete", "command", "plan", "end", view.End, "total", view.Cost.Total)
	return nil
}

// runServe blocks serving HTTP and MCP until interrupted.
func (o *rootOptions) runServe(ctx context.Context, addr string) error {
	env, err := o.prepare("serve")
	if err != nil {
		return err
	}
	defer env.close(o.stderr)
	logger := env.logger

	readTimeout, err := time.ParseDuration(env.cfg.Server.ReadTimeout)
	if err != nil {
		return fmt.Errorf("server.read_timeout %q: %w", env.cfg.Server.ReadTimeout, err)
	}
	writeTimeout, err := time.ParseDuration(env.cfg.Server.WriteTimeout)
	if err != nil {
		return fmt.Errorf("server.write_timeout %q: %w", env.cfg.Server.WriteTimeout, err)
	}
	if strings.TrimSpace(addr) == "" {
		addr = env.cfg.Server.Addr
	}

	svc, err := env.newService(nil)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("command flow start", "command", "serve", "addr", addr, "api", env.cfg.Server.APIEndpoint, "mcp", env.cfg.Server.MCPEndpoint)
	err = server.Run(ctx, server.Config{
		HTTPBind:      addr,
		APIEndpoint:   env.cfg.Server.APIEndpoint,
		MCPEndpoint:   env.cfg.Server.MCPEndpoint,
		ServerName:    env.appName,
		ServerVersion: version,
		ReadTimeout:   readTimeout,
		WriteTimeout:  writeTimeout,
		Limits: server.Limits{
			MaxProgressPlans: env.cfg.Server.MaxProgressPlans,
			MaxBuffer:        env.cfg.Server.MaxBuffer,
			MaxFirstStart:    env.cfg.Server.MaxFirstStart,
			MaxUnits:         env.cfg.Server.MaxUnits,
		},
	}, server.Dependencies{Planner: common.NewAppServiceAdapter(svc)})
	if err != nil {
		logger.Error("command flow failed", "command", "serve", "err", err)
		return fmt.Errorf("run serve command: %w", err)
	}
	logger.Info("command flow complete", "command", "serve")
	return nil
}

// parseFleet splits activity.option keys into nested unit counts.
func parseFleet(raw map[string]int) (map[string]map[string]int, error) {
	out := make(map[string]map[string]int, len(raw))
	for key, units := range raw {
		activity, option, ok := strings.Cut(strings.TrimSpace(key), ".")
		if !ok || activity == "" || option == "" {
			return nil, fmt.Errorf("fleet entry %q: want <activity>.<option>=<units>", key)
		}
		if out[activity] == nil {
			out[activity] = map[string]int{}
		}
		out[activity][option] = units
	}
	return out, nil
}

// renderPlanText formats a plan as plain tables.
func renderPlanText(view common.PlanView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mobilization: days 1-%d\n", view.MobilizationDays)
	fmt.Fprintf(&b, "Buffer: %d days\n", view.Buffer)

	schedule := table.New().Border(lipgloss.NormalBorder()).
		Headers("Activity", "Crew", "Units", "Rate", "Daily", "Dur", "Start", "End", "Rule")
	for _, row := range view.Rows {
		units := "-"
		if row.Units > 0 {
			units = strconv.Itoa(row.Units)
		}
		schedule.Row(row.Label, row.Crew, units, strconv.Itoa(row.Rate), money(row.DailyCost),
			strconv.Itoa(row.Duration), strconv.Itoa(row.Start), strconv.Itoa(row.End), row.Rule)
	}
	b.WriteString(schedule.Render())
	fmt.Fprintf(&b, "\nProject end: day %d\n", view.End)

	cost := table.New().Border(lipgloss.NormalBorder()).Headers("Item", "Cost")
	cost.Row("Mobilization", money(view.Cost.Mobilization))
	for _, row := range view.Rows {
		cost.Row(row.Label, money(view.Cost.PerActivity[row.ActivityID]))
	}
	cost.Row("Direct", money(view.Cost.Direct))
	cost.Row("Indirect", money(view.Cost.Indirect))
	cost.Row("Profit", money(view.Cost.Profit))
	cost.Row("Total", money(view.Cost.Total))
	b.WriteString(cost.Render())
	b.WriteString("\n")

	if c := view.Constraint; c != nil {
		fmt.Fprintf(&b, "Owner targets: %s days %d/%d, %s cost %s/%s\n",
			passMark(c.DurationOK), view.End, c.TargetDays,
			passMark(c.CostOK), money(view.Cost.Total), money(c.TargetCost))
		if c.Pass {
			b.WriteString("Owner constraints met\n")
		} else {
			b.WriteString("Owner constraints not met\n")
		}
	}
	for _, advisory := range view.Spacing {
		fmt.Fprintf(&b, "[%s] %s\n", advisory.Level, advisory.Message)
	}
	return b.String()
}

// passMark labels one target check.
func passMark(ok bool) string {
	if ok {
		return "ok"
	}
	return "over"
}

// money formats a whole-currency amount with thousands separators.
func money(amount int64) string {
	if amount < 0 {
		return "-$" + humanize.Comma(-amount)
	}
	return "$" + humanize.Comma(amount)
}

// loadEnvFile applies KEY=value pairs from path without overriding the process environment.
func loadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}

	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevFile.Enabled {
		return logger, nil
	}

	devLogPath, err := devLogFilePath(cfg.DevFile.Dir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}

	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	return sink != l.consoleSink || l.consoleEnabled
}

// log writes one event at level to every enabled sink.
func (l *runtimeLogger) log(level charmLog.Level, msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Log(level, msg, keyvals...)
	}
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	l.log(charmLog.DebugLevel, msg, keyvals...)
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	l.log(charmLog.InfoLevel, msg, keyvals...)
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	l.log(charmLog.WarnLevel, msg, keyvals...)
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	l.log(charmLog.ErrorLevel, msg, keyvals...)
}

// devLogFilePath resolves a workspace-local dev log file path for the current run day.
func devLogFilePath(configDir, appName string, now time.Time) (string, error) {
	baseDir := strings.TrimSpace(configDir)
	if baseDir == "" {
		baseDir = ".lobsim/log"
	}
	if !filepath.IsAbs(baseDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		baseDir = filepath.Join(workspaceRootFrom(cwd), baseDir)
	}
	fileName := fmt.Sprintf("%s-%s.log", sanitizeLogFileStem(appName), now.Format("20060102"))
	return filepath.Join(filepath.Clean(baseDir), fileName), nil
}

// workspaceRootFrom resolves the nearest ancestor workspace marker for stable local log placement.
func workspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	if start == "" {
		return "."
	}
	dir := start
	for {
		if hasWorkspaceMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// hasWorkspaceMarker reports whether a directory looks like a project workspace root.
func hasWorkspaceMarker(dir string) bool {
	for _, marker := range []string{"go.mod", ".git"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// sanitizeLogFileStem normalizes app names into safe file-name segments.
func sanitizeLogFileStem(appName string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem := strings.Trim(replacer.Replace(strings.TrimSpace(appName)), "-")
	if stem == "" {
		return platform.DefaultAppName
	}
	return stem
}
