package reader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tg-channel-reader/internal/domain/failure"
	"tg-channel-reader/internal/infra/logger"
)

// FetchChannel читает историю одного канала в окне [since, now] и не больше
// opts.Limit элементов транспорта. Любая неперехваченная ошибка превращает весь
// результат в failure.Failure: частичные списки постов не возвращаются.
func (f *Fetcher) FetchChannel(ctx context.Context, channel string, since time.Time, opts FetchOptions) ChannelResult {
	hasDiscussion := false
	if opts.Comments.Enabled {
		hasDiscussion = f.probeDiscussion(ctx, channel)
	}

	posts, err := f.scan(ctx, channel, since, opts, hasDiscussion)
	if err != nil {
		fail := failure.Classify(err, channel)
		logger.Warn("channel fetch failed",
			zap.String("channel", channel),
			zap.String("kind", string(fail.Kind)),
			zap.Error(err),
		)
		return Failed(fail)
	}

	logger.Debug("channel fetched",
		zap.String("channel", channel),
		zap.Int("count", len(posts)),
	)
	return Succeeded(channel, since, f.now(), posts, opts.Comments.Enabled, hasDiscussion)
}

// probeDiscussion проверяет наличие привязанного обсуждения. Ошибка
// трактуется как отсутствие комментариев, а не как сбой канала.
func (f *Fetcher) probeDiscussion(ctx context.Context, channel string) bool {
	chat, err := f.client.Chat(ctx, channel)
	if err != nil {
		logger.Debug("discussion probe failed",
			zap.String("channel", channel),
			zap.Error(err),
		)
		return false
	}
	return chat.HasDiscussion
}

func (f *Fetcher) scan(ctx context.Context, channel string, since time.Time, opts FetchOptions, hasDiscussion bool) ([]Post, error) {
	it, err := f.client.History(ctx, channel, opts.Limit)
	if err != nil {
		return nil, err
	}

	posts := make([]Post, 0)
	consumed := 0
	for consumed < opts.Limit && it.Next(ctx) {
		consumed++
		raw := it.Value()
		date := raw.Date.UTC()
		if date.Before(since) {
			break
		}

		text := extractText(raw.Text, raw.Caption)
		if opts.TextOnly && text == "" {
			continue
		}

		post := Post{
			ID:           raw.ID,
			Timestamp:    date,
			Text:         text,
			ViewCount:    raw.Views,
			ForwardCount: raw.Forwards,
			Permalink:    Permalink(channel, raw.ID),
			HasMedia:     raw.MediaKind != "",
			MediaKind:    raw.MediaKind,
		}

		if opts.Comments.Enabled && hasDiscussion {
			if len(posts) > 0 {
				if err := f.sleep(ctx, opts.Comments.Delay); err != nil {
					return nil, err
				}
			}
			if err := f.attachComments(ctx, channel, &post, opts.Comments.Limit); err != nil {
				return nil, err
			}
		}

		posts = append(posts, post)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// attachComments заполняет комментарии поста. FLOOD_WAIT не выше потолка
// выжидается и повторяется ровно один раз; сбой повтора даёт пустой список.
// Паузы выше потолка не ждутся, а отмечаются в comments_error.
// Возвращаемая ошибка — только отмена контекста во время ожидания.
func (f *Fetcher) attachComments(ctx context.Context, channel string, post *Post, max int) error {
	comments, err := f.FetchComments(ctx, channel, post.ID, max)
	if err == nil {
		setComments(post, comments)
		return nil
	}

	wait, _ := failure.FloodWait(err)
	if wait > failure.FloodWaitCeiling {
		setComments(post, []Comment{})
		post.CommentsError = fmt.Sprintf("Rate limited: retry after %ds", failure.Seconds(wait))
		logger.Warn("comments rate limited, skipping",
			zap.String("channel", channel),
			zap.Int("post_id", post.ID),
			zap.Duration("wait", wait),
		)
		return nil
	}

	logger.Info("comments rate limited, retrying once",
		zap.String("channel", channel),
		zap.Int("post_id", post.ID),
		zap.Duration("wait", wait),
	)
	if err := f.sleep(ctx, wait); err != nil {
		return err
	}
	comments, err = f.FetchComments(ctx, channel, post.ID, max)
	if err != nil {
		comments = []Comment{}
	}
	setComments(post, comments)
	return nil
}

func setComments(post *Post, comments []Comment) {
	n := len(comments)
	post.Comments = comments
	post.CommentCount = &n
}
