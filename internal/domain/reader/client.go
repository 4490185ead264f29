// Package reader — ядро чтения каналов: разбор окна времени, постраничное чтение
// истории канала и комментариев, пакетный обход нескольких каналов с паузами и
// единственным повтором на FLOOD_WAIT, сборка результата.
//
// Пакет ничего не знает о MTProto: транспорт скрыт за интерфейсом Client, а
// ошибки транспорта разбирает failure.Classify. Все вызовы в рамках одного
// запуска выполняются строго последовательно поверх одной сессии.
package reader

//go:generate go run go.uber.org/mock/mockgen -destination=mock_reader/client_mock.go -package=mock_reader . Client

import (
	"context"
	"time"
)

// Iterator — ленивая последовательность элементов транспорта.
// Next подгружает следующую страницу по необходимости; после false нужно
// проверить Err.
type Iterator[T any] interface {
	Next(ctx context.Context) bool
	Value() T
	Err() error
}

// RawPost — пост канала в том виде, в каком его отдаёт транспорт.
type RawPost struct {
	ID        int
	Date      time.Time
	Text      string
	Caption   string
	Views     *int
	Forwards  *int
	MediaKind string // пусто, если медиа нет
}

// RawReply — ответ в обсуждении поста.
type RawReply struct {
	ID      int
	Date    time.Time
	Text    string
	Caption string
	Author  string // username либо числовой id; пусто для анонимных
}

// Chat — метаданные канала.
type Chat struct {
	ID            int64
	Title         string
	Username      string
	Description   string
	MembersCount  *int
	HasDiscussion bool
}

// Client — абстрактная возможность транспорта, которой пользуется ядро.
// Реализации обязаны возвращать ошибки, сохраняющие вид (tgerr.Error либо
// обёртки над failure.Err*), чтобы их можно было классифицировать.
type Client interface {
	// History отдаёт посты канала от новых к старым, не больше limit штук.
	History(ctx context.Context, channel string, limit int) (Iterator[RawPost], error)
	// Replies отдаёт ответы из обсуждения поста postID, не больше limit штук.
	Replies(ctx context.Context, channel string, postID, limit int) (Iterator[RawReply], error)
	// Chat возвращает метаданные канала, включая наличие привязанного обсуждения.
	Chat(ctx context.Context, channel string) (Chat, error)
}

// Sleeper приостанавливает выполнение на d с учётом отмены ctx.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep — реализация Sleeper по умолчанию на таймере.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// extractText возвращает тело сообщения, а при его отсутствии — подпись к медиа.
func extractText(text, caption string) string {
	if text != "" {
		return text
	}
	return caption
}
