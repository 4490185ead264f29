package reader

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tg-channel-reader/internal/infra/logger"
)

// FetchMany обходит каналы строго последовательно в порядке channels.
// Результат всегда содержит по одной записи на канал. FLOOD_WAIT не выше
// потолка выжидается, и канал перечитывается ровно один раз; результат
// повтора окончательный. Между каналами выдерживается opts.Delay, после
// последнего канала паузы нет. Комментарии в пакетном режиме не читаются.
// После отмены ctx обход прекращается: в результате только пройденные каналы.
func (f *Fetcher) FetchMany(ctx context.Context, channels []string, since time.Time, opts BatchOptions) BatchResult {
	results := make(BatchResult, 0, len(channels))
	single := FetchOptions{Limit: opts.Limit, TextOnly: opts.TextOnly}

	for i, channel := range channels {
		if err := ctx.Err(); err != nil {
			logger.Warn("batch interrupted", zap.Int("done", i), zap.Error(err))
			break
		}
		res := f.FetchChannel(ctx, channel, since, single)
		if fail, ok := res.Failure(); ok {
			if wait, retry := fail.Retryable(); retry {
				logger.Info("flood wait on channel, retrying once",
					zap.String("channel", channel),
					zap.Duration("wait", wait),
				)
				if err := f.sleep(ctx, wait); err == nil {
					res = f.FetchChannel(ctx, channel, since, single)
				}
			}
		}
		results = append(results, res)

		if i < len(channels)-1 && ctx.Err() == nil {
			logger.Debug("delay before next channel", zap.Duration("delay", opts.Delay))
			_ = f.sleep(ctx, opts.Delay)
		}
	}
	return results
}
