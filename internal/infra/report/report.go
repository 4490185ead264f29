// Package report отправляет в Sentry неклассифицированные сбои (unexpected)
// и фатальные ошибки запуска. Без SENTRY_DSN все функции ничего не делают.
package report

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-faster/errors"

	"tg-channel-reader/internal/domain/failure"
	"tg-channel-reader/internal/domain/reader"
)

const flushTimeout = 2 * time.Second

var enabled atomic.Bool

// Init подключает Sentry. Пустой dsn оставляет отчёты выключенными.
func Init(dsn, release string) error {
	if dsn == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:     dsn,
		Release: release,
	}); err != nil {
		return errors.Wrap(err, "init sentry")
	}
	enabled.Store(true)
	return nil
}

// Enabled сообщает, подключён ли Sentry.
func Enabled() bool {
	return enabled.Load()
}

// Failures отправляет ошибки каналов вида unexpected. Остальные виды —
// ожидаемые состояния (приватный канал, неверный username) и не шлются.
func Failures(command string, results ...reader.ChannelResult) {
	if !Enabled() {
		return
	}
	for _, res := range results {
		fail, ok := res.Failure()
		if !ok || fail.Kind != failure.KindUnexpected {
			continue
		}
		capture(command, fail.Channel, *fail)
	}
}

// Failure отправляет одиночную ошибку канала вида unexpected.
func Failure(command string, fail failure.Failure) {
	if !Enabled() || fail.Kind != failure.KindUnexpected {
		return
	}
	capture(command, fail.Channel, fail)
}

// Error отправляет фатальную ошибку команды.
// Прерывание пользователем (SIGINT) не отправляется.
func Error(command string, err error) {
	if !Enabled() || !reportable(err) {
		return
	}
	capture(command, "", err)
}

func reportable(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func capture(command, channel string, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("command", command)
		if channel != "" {
			scope.SetTag("channel", channel)
		}
		sentry.CaptureException(err)
	})
}

// Flush дожидается отправки накопленных событий.
func Flush() {
	if Enabled() {
		sentry.Flush(flushTimeout)
	}
}
