package reader

import (
	"time"
)

// Значения по умолчанию для параметров чтения.
const (
	DefaultLimit         = 100
	DefaultCommentsLimit = 30
	DefaultCommentLimit  = 10
	DefaultCommentDelay  = 3 * time.Second
	DefaultChannelDelay  = 10 * time.Second
)

// CommentOptions управляет обогащением постов комментариями.
type CommentOptions struct {
	Enabled bool
	Limit   int
	Delay   time.Duration
}

// FetchOptions — параметры чтения одного канала.
type FetchOptions struct {
	Limit    int
	TextOnly bool
	Comments CommentOptions
}

// BatchOptions — параметры пакетного чтения. Комментарии в пакетном режиме не читаются.
type BatchOptions struct {
	Limit    int
	TextOnly bool
	Delay    time.Duration
}

// Fetcher связывает транспорт с политиками чтения. Один Fetcher обслуживает
// один запуск и не предназначен для параллельного использования.
type Fetcher struct {
	client Client
	sleep  Sleeper
	now    func() time.Time
}

// Option настраивает Fetcher.
type Option func(*Fetcher)

// WithSleeper подменяет функцию ожидания (используется в тестах).
func WithSleeper(s Sleeper) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.sleep = s
		}
	}
}

// WithClock подменяет источник текущего времени для fetched_at.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFetcher создаёт Fetcher поверх client.
func NewFetcher(client Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: client,
		sleep:  Sleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}
