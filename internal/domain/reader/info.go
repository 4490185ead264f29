package reader

import (
	"context"

	"go.uber.org/zap"

	"tg-channel-reader/internal/domain/failure"
	"tg-channel-reader/internal/infra/logger"
)

// channelIDOffset превращает id канала в «помеченный» вид -100xxxxxxxxxx,
// привычный по Bot API и клиентским библиотекам.
const channelIDOffset = -1000000000000

// ChannelInfo — карточка канала для команды info.
type ChannelInfo struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Username     *string `json:"username"`
	Description  *string `json:"description"`
	MembersCount *int    `json:"members_count"`
	Link         *string `json:"link"`
}

// FetchInfo возвращает метаданные канала. Ошибка всегда имеет тип
// failure.Failure, классифицированный так же, как при чтении истории.
func (f *Fetcher) FetchInfo(ctx context.Context, channel string) (ChannelInfo, error) {
	chat, err := f.client.Chat(ctx, channel)
	if err != nil {
		fail := failure.Classify(err, channel)
		logger.Warn("channel info failed",
			zap.String("channel", channel),
			zap.String("kind", string(fail.Kind)),
			zap.Error(err),
		)
		return ChannelInfo{}, fail
	}

	info := ChannelInfo{
		ID:           channelIDOffset - chat.ID,
		Title:        chat.Title,
		MembersCount: chat.MembersCount,
	}
	if chat.Username != "" {
		username := chat.Username
		link := "https://t.me/" + username
		info.Username = &username
		info.Link = &link
	}
	if chat.Description != "" {
		description := chat.Description
		info.Description = &description
	}
	return info, nil
}
