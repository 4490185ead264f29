// Package app — сценарии команд tg-reader. Здесь связываются конфигурация,
// проверка сессии, MTProto-соединение, кэш пиров и ядро чтения каналов.
// Каждая команда открывает соединение на один запуск и закрывает его на
// любом пути выхода.
package app

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tgerr"

	"tg-channel-reader/internal/domain/failure"
	"tg-channel-reader/internal/infra/config"
	"tg-channel-reader/internal/infra/telegram/connection"
	"tg-channel-reader/internal/infra/telegram/session"
	"tg-channel-reader/internal/support/version"
)

// Токены действий для фатальных ошибок команды.
const (
	ActionRunAuth      = "run_auth"
	ActionCheckNetwork = "check_network"
	ActionDropComments = "remove_extra_channels_or_drop_comments"
)

// Error — фатальная ошибка команды в виде, пригодном для JSON-вывода.
type Error struct {
	Message string   `json:"error"`
	Action  string   `json:"action,omitempty"`
	Fix     []string `json:"fix,omitempty"`
	Err     error    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// App выполняет команды поверх загруженной конфигурации.
type App struct {
	cfg config.Config
	// dirs — где искать сессии для подсказок.
	dirs []string
}

// Option настраивает App.
type Option func(*App)

// WithSessionDirs задаёт каталоги поиска сессий для подсказок.
func WithSessionDirs(dirs ...string) Option {
	return func(a *App) {
		a.dirs = dirs
	}
}

// New создаёт App для конфигурации cfg.
func New(cfg config.Config, opts ...Option) *App {
	a := &App{
		cfg:  cfg,
		dirs: session.DefaultDirs(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config возвращает конфигурацию, с которой работает App.
func (a *App) Config() config.Config {
	return a.cfg
}

// preflight проверяет учётные данные и файл сессии до любого сетевого запроса.
func (a *App) preflight(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	return session.Validate(ctx, a.cfg.Session, a.dirs...)
}

func (a *App) clientOptions() connection.Options {
	return connection.Options{
		APIID:       a.cfg.APIID,
		APIHash:     a.cfg.APIHash,
		SessionPath: a.cfg.SessionPath(),
		ThrottleRPS: a.cfg.ThrottleRPS,
		TestDC:      a.cfg.TestDC,
		AppVersion:  version.Version,
	}
}

// Типы RPC-ошибок, после которых сессию нужно пересоздать.
var revokedSessionTypes = []string{
	"AUTH_KEY_UNREGISTERED",
	"AUTH_KEY_INVALID",
	"SESSION_REVOKED",
	"SESSION_EXPIRED",
	"USER_DEACTIVATED",
	"USER_DEACTIVATED_BAN",
}

// Fatal приводит ошибку уровня соединения к виду, который понимает агент.
// Типизированные ошибки конфигурации и сессии возвращаются как есть.
func Fatal(err error, sessionPath string) error {
	if err == nil {
		return nil
	}
	var (
		appErr  *Error
		cfgErr  *config.Error
		sessErr *session.Error
	)
	if errors.As(err, &appErr) || errors.As(err, &cfgErr) || errors.As(err, &sessErr) {
		return err
	}

	if errors.Is(err, connection.ErrUnauthorized) || tgerr.Is(err, revokedSessionTypes...) {
		return &Error{
			Message: "Session is not authorized or was revoked: " + sessionPath,
			Action:  ActionRunAuth,
			Fix:     []string{"Run 'tg-reader auth' to log in again"},
			Err:     err,
		}
	}
	if wait, ok := tgerr.AsFloodWait(err); ok {
		secs := failure.Seconds(wait)
		return &Error{
			Message: fmt.Sprintf("Rate limited: retry after %ds", secs),
			Action:  failure.WaitAction(secs),
			Err:     err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Message: "Interrupted", Err: err}
	}
	if connection.IsNetworkError(err) {
		return &Error{
			Message: fmt.Sprintf("Network error: %v", err),
			Action:  ActionCheckNetwork,
			Fix:     []string{"Check the internet connection and retry later"},
			Err:     err,
		}
	}
	return &Error{
		Message: err.Error(),
		Action:  failure.ActionReportToUser,
		Err:     err,
	}
}
