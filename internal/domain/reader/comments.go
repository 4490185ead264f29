package reader

import (
	"context"

	"go.uber.org/zap"

	"tg-channel-reader/internal/domain/failure"
	"tg-channel-reader/internal/infra/logger"
)

// FetchComments читает до max ответов из обсуждения поста postID.
// Ответы без текста и подписи отбрасываются. FLOOD_WAIT возвращается
// вызывающему без изменений, любая другая ошибка превращается в пустой список.
func (f *Fetcher) FetchComments(ctx context.Context, channel string, postID, max int) ([]Comment, error) {
	comments := make([]Comment, 0)

	it, err := f.client.Replies(ctx, channel, postID, max)
	if err != nil {
		return swallowCommentsErr(channel, postID, err)
	}

	for len(comments) < max && it.Next(ctx) {
		reply := it.Value()
		text := extractText(reply.Text, reply.Caption)
		if text == "" {
			continue
		}
		var author *string
		if reply.Author != "" {
			a := reply.Author
			author = &a
		}
		comments = append(comments, Comment{
			ID:        reply.ID,
			Timestamp: reply.Date.UTC(),
			Text:      text,
			Author:    author,
		})
	}
	if err := it.Err(); err != nil {
		return swallowCommentsErr(channel, postID, err)
	}
	return comments, nil
}

func swallowCommentsErr(channel string, postID int, err error) ([]Comment, error) {
	if _, ok := failure.FloodWait(err); ok {
		return nil, err
	}
	logger.Debug("comments unavailable",
		zap.String("channel", channel),
		zap.Int("post_id", postID),
		zap.Error(err),
	)
	return []Comment{}, nil
}
