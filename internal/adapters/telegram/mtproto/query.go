package mtproto

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/query/messages"
	"github.com/gotd/td/tg"

	"tg-channel-reader/internal/domain/reader"
)

// queryClient — привязка на итераторах gotd telegram/query/messages.
type queryClient struct {
	api      *tg.Client
	resolver *resolver
}

func (c *queryClient) History(ctx context.Context, channel string, limit int) (reader.Iterator[reader.RawPost], error) {
	ch, err := c.resolver.resolve(ctx, channel)
	if err != nil {
		return nil, err
	}
	iter := messages.NewQueryBuilder(c.api).
		GetHistory(inputPeer(ch)).
		BatchSize(pageSize(limit)).
		Iter()
	convert := func(msg *tg.Message, _ map[int64]*tg.User) reader.RawPost {
		return toPost(msg)
	}
	return &queryIterator[reader.RawPost]{iter: iter, limit: limit, convert: convert, op: "get history"}, nil
}

func (c *queryClient) Replies(ctx context.Context, channel string, postID, limit int) (reader.Iterator[reader.RawReply], error) {
	ch, err := c.resolver.resolve(ctx, channel)
	if err != nil {
		return nil, err
	}
	iter := messages.NewQueryBuilder(c.api).
		GetReplies(inputPeer(ch)).
		MsgID(postID).
		BatchSize(pageSize(limit)).
		Iter()
	return &queryIterator[reader.RawReply]{iter: iter, limit: limit, convert: toReply, op: "get replies"}, nil
}

func (c *queryClient) Chat(ctx context.Context, channel string) (reader.Chat, error) {
	return c.resolver.chat(ctx, channel)
}

// queryIterator ограничивает итератор gotd числом элементов и отбрасывает
// служебные сообщения.
type queryIterator[T any] struct {
	iter    *messages.Iterator
	limit   int
	yielded int
	convert func(*tg.Message, map[int64]*tg.User) T
	op      string
	cur     T
}

func (q *queryIterator[T]) Next(ctx context.Context) bool {
	if q.yielded >= q.limit {
		return false
	}
	for q.iter.Next(ctx) {
		elem := q.iter.Value()
		msg, ok := elem.Msg.(*tg.Message)
		if !ok {
			continue
		}
		q.cur = q.convert(msg, elem.Entities.Users())
		q.yielded++
		return true
	}
	return false
}

func (q *queryIterator[T]) Value() T {
	return q.cur
}

func (q *queryIterator[T]) Err() error {
	if err := q.iter.Err(); err != nil {
		return errors.Wrap(err, q.op)
	}
	return nil
}
