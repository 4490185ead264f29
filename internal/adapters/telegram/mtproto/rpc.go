package mtproto

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"

	"tg-channel-reader/internal/domain/reader"
)

// rpcClient — привязка на сырых вызовах messages.getHistory/getReplies
// с ручной пагинацией по offset_id.
type rpcClient struct {
	api      *tg.Client
	resolver *resolver
}

func (c *rpcClient) History(ctx context.Context, channel string, limit int) (reader.Iterator[reader.RawPost], error) {
	ch, err := c.resolver.resolve(ctx, channel)
	if err != nil {
		return nil, err
	}
	peer := inputPeer(ch)

	fetch := func(ctx context.Context, offsetID, size int) (messagesPage, error) {
		resp, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     peer,
			OffsetID: offsetID,
			Limit:    size,
		})
		if err != nil {
			return messagesPage{}, errors.Wrap(err, "get history")
		}
		return normalizeMessagesResponse(resp)
	}
	convert := func(msg *tg.Message, _ map[int64]*tg.User) reader.RawPost {
		return toPost(msg)
	}
	return newPageIterator(limit, fetch, convert), nil
}

func (c *rpcClient) Replies(ctx context.Context, channel string, postID, limit int) (reader.Iterator[reader.RawReply], error) {
	ch, err := c.resolver.resolve(ctx, channel)
	if err != nil {
		return nil, err
	}
	peer := inputPeer(ch)

	fetch := func(ctx context.Context, offsetID, size int) (messagesPage, error) {
		resp, err := c.api.MessagesGetReplies(ctx, &tg.MessagesGetRepliesRequest{
			Peer:     peer,
			MsgID:    postID,
			OffsetID: offsetID,
			Limit:    size,
		})
		if err != nil {
			return messagesPage{}, errors.Wrapf(err, "get replies to %d", postID)
		}
		return normalizeMessagesResponse(resp)
	}
	return newPageIterator(limit, fetch, toReply), nil
}

func (c *rpcClient) Chat(ctx context.Context, channel string) (reader.Chat, error) {
	return c.resolver.chat(ctx, channel)
}

// messagesPage — одна страница ответа messages.*.
type messagesPage struct {
	Messages []tg.MessageClass
	Users    map[int64]*tg.User
	// Complete — сервер вернул всё, что есть, дальше листать нечего.
	Complete bool
}

// normalizeMessagesResponse приводит варианты messages.Messages к одной форме.
func normalizeMessagesResponse(resp tg.MessagesMessagesClass) (messagesPage, error) {
	switch r := resp.(type) {
	case *tg.MessagesMessages:
		return messagesPage{Messages: r.Messages, Users: usersByID(r.Users), Complete: true}, nil
	case *tg.MessagesMessagesSlice:
		return messagesPage{Messages: r.Messages, Users: usersByID(r.Users)}, nil
	case *tg.MessagesChannelMessages:
		return messagesPage{Messages: r.Messages, Users: usersByID(r.Users)}, nil
	case *tg.MessagesMessagesNotModified:
		return messagesPage{Complete: true}, nil
	default:
		return messagesPage{}, errors.Errorf("unexpected messages response %T", resp)
	}
}

type pageFetcher func(ctx context.Context, offsetID, size int) (messagesPage, error)

// pageIterator листает историю от новых к старым, сдвигая offset_id на
// минимальный id страницы. Служебные и пустые сообщения пропускаются и в
// limit не засчитываются.
type pageIterator[T any] struct {
	fetch   pageFetcher
	convert func(*tg.Message, map[int64]*tg.User) T

	limit    int
	yielded  int
	offsetID int

	buf  []T
	cur  T
	done bool
	err  error
}

func newPageIterator[T any](limit int, fetch pageFetcher, convert func(*tg.Message, map[int64]*tg.User) T) *pageIterator[T] {
	return &pageIterator[T]{fetch: fetch, convert: convert, limit: limit}
}

func (it *pageIterator[T]) Next(ctx context.Context) bool {
	if it.yielded >= it.limit {
		return false
	}
	for len(it.buf) == 0 {
		if it.done || it.err != nil {
			return false
		}
		if err := it.load(ctx); err != nil {
			it.err = err
			return false
		}
	}
	it.cur, it.buf = it.buf[0], it.buf[1:]
	it.yielded++
	return true
}

func (it *pageIterator[T]) load(ctx context.Context) error {
	size := pageSize(it.limit - it.yielded)
	page, err := it.fetch(ctx, it.offsetID, size)
	if err != nil {
		return err
	}
	if len(page.Messages) == 0 {
		it.done = true
		return nil
	}

	prevOffset := it.offsetID
	for _, m := range page.Messages {
		if id := m.GetID(); it.offsetID == 0 || id < it.offsetID {
			it.offsetID = id
		}
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}
		it.buf = append(it.buf, it.convert(msg, page.Users))
	}

	if page.Complete || len(page.Messages) < size || (prevOffset != 0 && it.offsetID >= prevOffset) {
		it.done = true
	}
	return nil
}

func (it *pageIterator[T]) Value() T {
	return it.cur
}

func (it *pageIterator[T]) Err() error {
	return it.err
}
