// Package connection — создание MTProto-клиента и ограниченное по времени
// владение соединением. Клиент открывается на один запуск команды, все вызовы
// идут последовательно через одну сессию, соединение закрывается на любом
// пути выхода, включая ошибки.
package connection

import (
	"context"
	"io"
	"net"
	"runtime"

	"github.com/go-faster/errors"
	"github.com/gotd/contrib/middleware/ratelimit"
	"github.com/gotd/td/pool"
	"github.com/gotd/td/rpc"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tg-channel-reader/internal/infra/logger"
	"tg-channel-reader/internal/infra/telegram/session"
	"tg-channel-reader/internal/support/version"
)

// ErrUnauthorized — файл сессии есть, но сервер не считает его авторизованным.
var ErrUnauthorized = errors.New("session is not authorized")

// Options — параметры клиента.
type Options struct {
	APIID       int
	APIHash     string
	SessionPath string
	// ThrottleRPS ограничивает частоту RPC-запросов; burst вдвое больше.
	ThrottleRPS int
	TestDC      bool
	AppVersion  string
}

// NewClient собирает gotd-клиент: файловая сессия, ограничитель частоты,
// паспорт устройства и, при необходимости, тестовые DC.
func NewClient(opts Options) *telegram.Client {
	rps := opts.ThrottleRPS
	if rps <= 0 {
		rps = 1
	}
	options := telegram.Options{
		SessionStorage: &session.FileStorage{Path: opts.SessionPath},
		Middlewares: []telegram.Middleware{
			ratelimit.New(rate.Limit(rps), rps*2), //nolint:mnd // burst = 2*rate
		},
		Device: telegram.DeviceConfig{
			DeviceModel:   version.Name,
			SystemVersion: runtime.GOOS + "/" + runtime.GOARCH,
			AppVersion:    opts.AppVersion,
		},
	}
	if logger.IsDebugEnabled() {
		options.Logger = logger.Logger().Named("mtproto")
	}
	if opts.TestDC {
		options.DCList = dcs.Test()
	}
	return telegram.NewClient(opts.APIID, opts.APIHash, options)
}

// Run открывает соединение, убеждается в авторизации и выполняет fn.
// С login == nil неавторизованная сессия даёт ErrUnauthorized вместо
// интерактивного входа. Соединение закрывается, когда fn возвращается.
func Run(ctx context.Context, client *telegram.Client, login auth.UserAuthenticator, fn func(ctx context.Context) error) error {
	return client.Run(ctx, func(ctx context.Context) error {
		if login != nil {
			flow := auth.NewFlow(login, auth.SendCodeOptions{})
			if err := client.Auth().IfNecessary(ctx, flow); err != nil {
				return errors.Wrap(err, "auth")
			}
		} else {
			status, err := client.Auth().Status(ctx)
			if err != nil {
				return errors.Wrap(err, "auth status")
			}
			if !status.Authorized {
				return ErrUnauthorized
			}
		}
		logger.Debug("connection ready")
		return fn(ctx)
	})
}

// Self возвращает текущего пользователя и пишет его в лог.
func Self(ctx context.Context, client *telegram.Client) (*tg.User, error) {
	self, err := client.Self(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get self")
	}
	logger.Info("logged in",
		zap.String("username", self.Username),
		zap.Int64("id", self.ID),
	)
	return self, nil
}

// IsNetworkError определяет, сигнализирует ли ошибка о сетевой проблеме.
// Сетевыми считаются: закрытие соединения или движка, исчерпание ретраев,
// дедлайны, EOF и net.Error. Отмена контекста сетевой не считается.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, pool.ErrConnDead) || errors.Is(err, rpc.ErrEngineClosed) {
		return true
	}
	var retryErr *rpc.RetryLimitReachedErr
	if errors.As(err, &retryErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
