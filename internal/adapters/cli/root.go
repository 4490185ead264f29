// Package cli — командная строка tg-reader на cobra. Результат команды
// печатается в stdout одним JSON-документом (или текстом для --format text),
// фатальные ошибки — JSON-объектом {error, action?, fix?} с кодом выхода 1.
// Логи и приглашения идут в stderr.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tg-channel-reader/internal/app"
	"tg-channel-reader/internal/infra/config"
	"tg-channel-reader/internal/infra/logger"
	"tg-channel-reader/internal/infra/report"
	"tg-channel-reader/internal/support/version"
)

// exitError — ошибка, результат которой уже выведен; несёт только код выхода.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// cli держит глобальные флаги и поток результата.
type cli struct {
	out io.Writer

	configFile  string
	sessionFile string
	envFile     string

	// sessionDirs — каталоги поиска сессий; nil означает home и cwd.
	sessionDirs []string
}

func (c *cli) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		EnvFile:     c.envFile,
		ConfigFile:  c.configFile,
		SessionFile: c.sessionFile,
	}
}

// newApp загружает конфигурацию и поднимает логирование и отчёты.
func (c *cli) newApp() (*app.App, error) {
	if err := config.Load(c.loadOptions()); err != nil {
		return nil, err
	}
	cfg := config.Env()

	logger.Init(cfg.LogLevel)
	if cfg.LogFile.Path != "" {
		logger.EnableFile(logger.FileOptions{
			Path:       cfg.LogFile.Path,
			Level:      cfg.LogFile.Level,
			MaxSizeMB:  cfg.LogFile.MaxSizeMB,
			MaxBackups: cfg.LogFile.MaxBackups,
			MaxAgeDays: cfg.LogFile.MaxAgeDays,
			Compress:   cfg.LogFile.Compress,
		})
	}
	for _, w := range config.Warnings() {
		logger.Warn("config: " + w)
	}
	if err := report.Init(cfg.SentryDSN, version.Version); err != nil {
		logger.Warn("error reporting disabled", zap.Error(err))
	}

	var opts []app.Option
	if c.sessionDirs != nil {
		opts = append(opts, app.WithSessionDirs(c.sessionDirs...))
	}
	return app.New(cfg, opts...), nil
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "tg-reader",
		Short:         "Read Telegram channel posts as JSON",
		Long:          "tg-reader fetches posts and discussion comments from Telegram channels over MTProto and prints them as JSON with structured, actionable errors.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(c.out)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config-file", "", "path to config file (overrides ~/.tg-reader.json)")
	flags.StringVar(&c.sessionFile, "session-file", "", "session path without .session suffix (overrides all other sources)")
	flags.StringVar(&c.envFile, "env", "", "path to .env file (default .env, optional)")

	root.AddCommand(
		newFetchCmd(c),
		newInfoCmd(c),
		newAuthCmd(c),
		newImportSessionCmd(c),
		newCheckCmd(c),
		newVersionCmd(c),
	)
	return root
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			gotd := version.Gotd()
			if gotd == "" {
				gotd = "unknown"
			}
			fmt.Fprintf(c.out, "%s %s (gotd %s)\n", version.Name, version.Version, gotd)
		},
	}
}

// Execute выполняет команду с аргументами args и возвращает код выхода.
func Execute(ctx context.Context, args []string, out io.Writer) int {
	return execute(ctx, &cli{out: out}, args)
}

func execute(ctx context.Context, c *cli, args []string) int {
	root := newRootCmd(c)
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	defer report.Flush()
	if err == nil {
		return 0
	}
	if exit, ok := err.(*exitError); ok { //nolint:errorlint // exitError не оборачивается
		return exit.code
	}
	report.Error(cmd.Name(), err)
	logger.Debug("command failed", zap.Error(err))
	writeFatal(c.out, err)
	return 1
}
