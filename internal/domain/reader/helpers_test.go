package reader_test

import (
	"context"
	"sync"
	"time"

	"tg-channel-reader/internal/domain/reader"
)

type sliceIter[T any] struct {
	items []T
	err   error
	pos   int
	cur   T
	pulls int
}

func iterOf[T any](err error, items ...T) *sliceIter[T] {
	return &sliceIter[T]{items: items, err: err}
}

func (it *sliceIter[T]) Next(context.Context) bool {
	if it.pos >= len(it.items) {
		return false
	}
	it.cur = it.items[it.pos]
	it.pos++
	it.pulls++
	return true
}

func (it *sliceIter[T]) Value() T { return it.cur }

func (it *sliceIter[T]) Err() error {
	if it.pos >= len(it.items) {
		return it.err
	}
	return nil
}

// fakeClient отдаёт заранее подготовленные данные и считает вызовы.
type fakeClient struct {
	mu sync.Mutex

	posts      []reader.RawPost
	historyErr error
	streamErr  error

	chat    reader.Chat
	chatErr error

	// replies[postID] — очередь ответов на последовательные вызовы Replies.
	replies map[int][]repliesCall

	historyCalls int
	chatCalls    int
	repliesCalls map[int]int
}

type repliesCall struct {
	items []reader.RawReply
	err   error
}

func (c *fakeClient) History(_ context.Context, _ string, limit int) (reader.Iterator[reader.RawPost], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.historyCalls++
	if c.historyErr != nil {
		return nil, c.historyErr
	}
	items := c.posts
	if len(items) > limit {
		items = items[:limit]
	}
	return iterOf(c.streamErr, items...), nil
}

func (c *fakeClient) Replies(_ context.Context, _ string, postID, _ int) (reader.Iterator[reader.RawReply], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.repliesCalls == nil {
		c.repliesCalls = map[int]int{}
	}
	n := c.repliesCalls[postID]
	c.repliesCalls[postID] = n + 1

	queue := c.replies[postID]
	if len(queue) == 0 {
		return iterOf[reader.RawReply](nil), nil
	}
	if n >= len(queue) {
		n = len(queue) - 1
	}
	call := queue[n]
	if call.err != nil && len(call.items) == 0 {
		return nil, call.err
	}
	return iterOf(call.err, call.items...), nil
}

func (c *fakeClient) Chat(context.Context, string) (reader.Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatCalls++
	return c.chat, c.chatErr
}

// sleepRecorder записывает все запрошенные паузы вместо реального ожидания.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }
