package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"tg-channel-reader/internal/domain/failure"
	"tg-channel-reader/internal/domain/reader"
	"tg-channel-reader/internal/infra/report"
)

// FetchRequest — параметры команды fetch после разбора флагов.
type FetchRequest struct {
	Channels []string
	Since    time.Time
	Limit    int
	TextOnly bool
	// Delay — пауза между каналами в пакетном режиме.
	Delay    time.Duration
	Comments reader.CommentOptions
}

// Fetch читает один канал (с комментариями, если они запрошены) или пакет
// каналов. Ошибки каналов входят в результат; ошибка возвращается только
// для фатальных случаев: конфигурация, сессия, соединение.
func (a *App) Fetch(ctx context.Context, req FetchRequest) (reader.BatchResult, error) {
	if req.Comments.Enabled && len(req.Channels) > 1 {
		return nil, &Error{
			Message: "--comments works only with a single channel",
			Action:  ActionDropComments,
		}
	}
	if err := a.preflight(ctx); err != nil {
		return nil, err
	}

	r, err := a.newRunner()
	if err != nil {
		return nil, Fatal(err, a.cfg.SessionPath())
	}

	var results reader.BatchResult
	err = r.run(ctx, func(ctx context.Context, f *reader.Fetcher) error {
		if len(req.Channels) == 1 {
			res := f.FetchChannel(ctx, req.Channels[0], req.Since, reader.FetchOptions{
				Limit:    req.Limit,
				TextOnly: req.TextOnly,
				Comments: req.Comments,
			})
			results = reader.BatchResult{res}
			return nil
		}
		results = f.FetchMany(ctx, req.Channels, req.Since, reader.BatchOptions{
			Limit:    req.Limit,
			TextOnly: req.TextOnly,
			Delay:    req.Delay,
		})
		return nil
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, Fatal(err, a.cfg.SessionPath())
	}
	report.Failures("fetch", results...)
	return results, nil
}

// Info возвращает метаданные канала. Ошибка канала приходит как
// failure.Failure вторым значением, фатальная ошибка — третьим.
func (a *App) Info(ctx context.Context, channel string) (*reader.ChannelInfo, *failure.Failure, error) {
	if err := a.preflight(ctx); err != nil {
		return nil, nil, err
	}

	r, err := a.newRunner()
	if err != nil {
		return nil, nil, Fatal(err, a.cfg.SessionPath())
	}

	var (
		info *reader.ChannelInfo
		fail *failure.Failure
	)
	err = r.run(ctx, func(ctx context.Context, f *reader.Fetcher) error {
		got, err := f.FetchInfo(ctx, channel)
		if err != nil {
			var cf failure.Failure
			if !errors.As(err, &cf) {
				return err
			}
			fail = &cf
			return nil
		}
		info = &got
		return nil
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, nil, Fatal(err, a.cfg.SessionPath())
	}
	if fail != nil {
		report.Failure("info", *fail)
	}
	return info, fail, nil
}
