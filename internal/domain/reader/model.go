package reader

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"tg-channel-reader/internal/domain/failure"
)

// Post — нормализованный пост канала.
type Post struct {
	ID            int       `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Text          string    `json:"text"`
	ViewCount     *int      `json:"view_count"`
	ForwardCount  *int      `json:"forward_count"`
	Permalink     string    `json:"permalink"`
	HasMedia      bool      `json:"has_media"`
	MediaKind     string    `json:"media_kind,omitempty"`
	CommentCount  *int      `json:"comment_count,omitempty"`
	Comments      []Comment `json:"comments,omitzero"`
	CommentsError string    `json:"comments_error,omitempty"`
}

// Comment — ответ из обсуждения поста. Комментарии без текста сюда не попадают.
type Comment struct {
	ID        int       `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Author    *string   `json:"author"`
}

// ChannelPosts — успешный результат чтения канала.
type ChannelPosts struct {
	Channel           string    `json:"channel"`
	FetchedAt         time.Time `json:"fetched_at"`
	Since             time.Time `json:"since"`
	Count             int       `json:"count"`
	Messages          []Post    `json:"messages"`
	CommentsEnabled   bool      `json:"comments_enabled"`
	CommentsAvailable bool      `json:"comments_available"`
}

// ChannelResult — результат по одному каналу: либо посты, либо ошибка, никогда
// не оба сразу.
type ChannelResult struct {
	posts   *ChannelPosts
	failure *failure.Failure
}

// BatchResult — результаты по каналам в порядке запроса, по одному на канал.
type BatchResult []ChannelResult

// Succeeded собирает успешный результат. Count всегда равен len(messages).
func Succeeded(channel string, since, fetchedAt time.Time, messages []Post, commentsEnabled, commentsAvailable bool) ChannelResult {
	if messages == nil {
		messages = []Post{}
	}
	return ChannelResult{posts: &ChannelPosts{
		Channel:           channel,
		FetchedAt:         fetchedAt.UTC(),
		Since:             since.UTC(),
		Count:             len(messages),
		Messages:          messages,
		CommentsEnabled:   commentsEnabled,
		CommentsAvailable: commentsAvailable,
	}}
}

// Failed собирает результат-ошибку.
func Failed(f failure.Failure) ChannelResult {
	return ChannelResult{failure: &f}
}

// Posts возвращает успешный результат, если он есть.
func (r ChannelResult) Posts() (*ChannelPosts, bool) {
	return r.posts, r.posts != nil
}

// Failure возвращает ошибку канала, если она есть.
func (r ChannelResult) Failure() (*failure.Failure, bool) {
	return r.failure, r.failure != nil
}

// Channel возвращает имя канала независимо от формы результата.
func (r ChannelResult) Channel() string {
	if r.failure != nil {
		return r.failure.Channel
	}
	if r.posts != nil {
		return r.posts.Channel
	}
	return ""
}

// MarshalJSON сериализует ровно одну из форм результата.
func (r ChannelResult) MarshalJSON() ([]byte, error) {
	if r.failure != nil {
		return json.Marshal(r.failure)
	}
	return json.Marshal(r.posts)
}

// Permalink строит ссылку вида https://t.me/{channel}/{id}; ведущий @ отбрасывается.
func Permalink(channel string, id int) string {
	return "https://t.me/" + strings.TrimLeft(channel, "@") + "/" + strconv.Itoa(id)
}
