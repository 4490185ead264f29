package mtproto

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"tg-channel-reader/internal/domain/failure"
	"tg-channel-reader/internal/domain/reader"
	"tg-channel-reader/internal/infra/logger"
	"tg-channel-reader/internal/infra/telegram/peersmgr"
)

// target — разобранный идентификатор канала: username либо хэш приглашения.
type target struct {
	username string
	invite   string
}

// parseTarget принимает @username, username, t.me/username[/post],
// https://t.me/+hash и t.me/joinchat/hash.
func parseTarget(channel string) (target, error) {
	s := strings.TrimSpace(channel)
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	for _, host := range []string{"t.me/", "telegram.me/", "telegram.dog/"} {
		if rest, ok := strings.CutPrefix(s, host); ok {
			s = rest
			break
		}
	}

	if hash, ok := strings.CutPrefix(s, "+"); ok && hash != "" {
		return target{invite: hash}, nil
	}
	if hash, ok := strings.CutPrefix(s, "joinchat/"); ok && hash != "" {
		return target{invite: strings.TrimSuffix(hash, "/")}, nil
	}

	s = strings.TrimPrefix(s, "@")
	if i := strings.IndexAny(s, "/?"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return target{}, errors.Wrapf(failure.ErrUsernameNotFound, "empty channel reference %q", channel)
	}
	return target{username: s}, nil
}

// resolver превращает ссылку на канал в *tg.Channel. Результаты кэшируются на
// время запуска: история, обсуждение и комментарии одного канала резолвятся один раз.
type resolver struct {
	api   *tg.Client
	peers *peersmgr.Service

	mu   sync.Mutex
	seen map[string]*tg.Channel
}

func newResolver(api *tg.Client, svc *peersmgr.Service) *resolver {
	if svc == nil {
		// Пустой путь не открывает файл, ошибка возможна только при api == nil.
		svc, _ = peersmgr.New(api, "")
	}
	return &resolver{
		api:   api,
		peers: svc,
		seen:  make(map[string]*tg.Channel),
	}
}

func (r *resolver) resolve(ctx context.Context, channel string) (*tg.Channel, error) {
	r.mu.Lock()
	if ch, ok := r.seen[channel]; ok {
		r.mu.Unlock()
		return ch, nil
	}
	r.mu.Unlock()

	t, err := parseTarget(channel)
	if err != nil {
		return nil, err
	}

	var ch *tg.Channel
	if t.invite != "" {
		ch, err = r.resolveInvite(ctx, t.invite)
	} else {
		ch, err = r.resolveUsername(ctx, t.username)
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.seen[channel] = ch
	r.mu.Unlock()
	return ch, nil
}

func (r *resolver) resolveUsername(ctx context.Context, username string) (*tg.Channel, error) {
	if r.peers != nil {
		cached, ok, err := r.peers.LookupChannel(ctx, username)
		if err != nil {
			logger.Warn("peers cache lookup failed", zap.String("username", username), zap.Error(err))
		}
		if ok {
			logger.Debug("channel resolved from cache", zap.String("username", username))
			return cached, nil
		}
	}

	if r.peers == nil || r.peers.Mgr == nil {
		return nil, errors.New("peers manager is not initialized")
	}
	resolved, err := r.peers.Mgr.ResolveDomain(ctx, username)
	if err != nil {
		var notFound *peers.PeerNotFoundError
		if errors.As(err, &notFound) {
			return nil, errors.Wrapf(failure.ErrUsernameNotFound, "resolve @%s", username)
		}
		return nil, errors.Wrapf(err, "resolve @%s", username)
	}

	channel, ok := resolved.(peers.Channel)
	if !ok {
		return nil, errors.Wrapf(failure.ErrNotChannel, "resolve @%s", username)
	}
	raw := channel.Raw()

	if err := r.peers.RememberChannel(ctx, username, raw); err != nil {
		logger.Warn("peers cache store failed", zap.String("username", username), zap.Error(err))
	}
	return raw, nil
}

func (r *resolver) resolveInvite(ctx context.Context, hash string) (*tg.Channel, error) {
	invite, err := r.api.MessagesCheckChatInvite(ctx, hash)
	if err != nil {
		return nil, errors.Wrap(err, "check invite")
	}

	switch v := invite.(type) {
	case *tg.ChatInviteAlready:
		return channelFromChat(v.Chat)
	case *tg.ChatInvitePeek:
		return channelFromChat(v.Chat)
	case *tg.ChatInvite:
		return nil, errors.Wrapf(failure.ErrNotMember, "invite %q", v.Title)
	default:
		return nil, errors.Errorf("unexpected invite type %T", invite)
	}
}

func channelFromChat(chat tg.ChatClass) (*tg.Channel, error) {
	switch c := chat.(type) {
	case *tg.Channel:
		return c, nil
	case *tg.ChannelForbidden:
		return nil, errors.Wrapf(failure.ErrNotMember, "channel %q is forbidden", c.Title)
	default:
		return nil, errors.Wrapf(failure.ErrNotChannel, "got %T", chat)
	}
}

func inputPeer(ch *tg.Channel) *tg.InputPeerChannel {
	return &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
}

func inputChannel(ch *tg.Channel) *tg.InputChannel {
	return &tg.InputChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
}

// chat собирает метаданные канала. Привязанное обсуждение определяется по
// linked_chat_id из channels.getFullChannel.
func (r *resolver) chat(ctx context.Context, channel string) (reader.Chat, error) {
	ch, err := r.resolve(ctx, channel)
	if err != nil {
		return reader.Chat{}, err
	}

	info := reader.Chat{
		ID:       ch.ID,
		Title:    ch.Title,
		Username: channelUsername(ch),
	}
	if n, ok := ch.GetParticipantsCount(); ok {
		info.MembersCount = &n
	}

	full, err := r.api.ChannelsGetFullChannel(ctx, inputChannel(ch))
	if err != nil {
		return reader.Chat{}, errors.Wrap(err, "get full channel")
	}
	if cf, ok := full.FullChat.(*tg.ChannelFull); ok {
		info.Description = cf.About
		if n, ok := cf.GetParticipantsCount(); ok {
			info.MembersCount = &n
		}
		if _, ok := cf.GetLinkedChatID(); ok {
			info.HasDiscussion = true
		}
	}
	return info, nil
}

func channelUsername(ch *tg.Channel) string {
	if ch.Username != "" {
		return ch.Username
	}
	for _, u := range ch.Usernames {
		if u.Active {
			return u.Username
		}
	}
	return ""
}
