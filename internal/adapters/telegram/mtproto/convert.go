package mtproto

import (
	"strconv"
	"time"

	"github.com/gotd/td/tg"

	"tg-channel-reader/internal/domain/reader"
)

// Виды медиа, которые попадают в media_kind.
const (
	mediaPhoto       = "photo"
	mediaVideo       = "video"
	mediaVideoNote   = "video_note"
	mediaAnimation   = "animation"
	mediaAudio       = "audio"
	mediaVoice       = "voice"
	mediaSticker     = "sticker"
	mediaDocument    = "document"
	mediaWebPage     = "web_page"
	mediaPoll        = "poll"
	mediaLocation    = "location"
	mediaVenue       = "venue"
	mediaContact     = "contact"
	mediaDice        = "dice"
	mediaGame        = "game"
	mediaInvoice     = "invoice"
	mediaStory       = "story"
	mediaGiveaway    = "giveaway"
	mediaPaidMedia   = "paid_media"
	mediaUnsupported = "unsupported"
)

func toPost(msg *tg.Message) reader.RawPost {
	post := reader.RawPost{
		ID:   msg.ID,
		Date: time.Unix(int64(msg.Date), 0).UTC(),
	}

	media, _ := msg.GetMedia()
	post.MediaKind = mediaKind(media)
	// У сообщения с превью ссылки текст остаётся текстом, а не подписью.
	if post.MediaKind == "" || post.MediaKind == mediaWebPage {
		post.Text = msg.Message
	} else {
		post.Caption = msg.Message
	}

	if v, ok := msg.GetViews(); ok {
		post.Views = &v
	}
	if v, ok := msg.GetForwards(); ok {
		post.Forwards = &v
	}
	return post
}

func toReply(msg *tg.Message, users map[int64]*tg.User) reader.RawReply {
	reply := reader.RawReply{
		ID:     msg.ID,
		Date:   time.Unix(int64(msg.Date), 0).UTC(),
		Author: authorOf(msg, users),
	}
	media, _ := msg.GetMedia()
	if kind := mediaKind(media); kind == "" || kind == mediaWebPage {
		reply.Text = msg.Message
	} else {
		reply.Caption = msg.Message
	}
	return reply
}

// authorOf возвращает username автора либо его числовой id. Для сообщений
// от имени канала или анонимного админа автора нет.
func authorOf(msg *tg.Message, users map[int64]*tg.User) string {
	from, ok := msg.GetFromID()
	if !ok {
		return ""
	}
	peer, ok := from.(*tg.PeerUser)
	if !ok {
		return ""
	}
	if u, ok := users[peer.UserID]; ok && u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(peer.UserID, 10)
}

func mediaKind(media tg.MessageMediaClass) string {
	switch m := media.(type) {
	case nil, *tg.MessageMediaEmpty:
		return ""
	case *tg.MessageMediaPhoto:
		return mediaPhoto
	case *tg.MessageMediaDocument:
		return documentKind(m)
	case *tg.MessageMediaWebPage:
		return mediaWebPage
	case *tg.MessageMediaPoll:
		return mediaPoll
	case *tg.MessageMediaGeo, *tg.MessageMediaGeoLive:
		return mediaLocation
	case *tg.MessageMediaVenue:
		return mediaVenue
	case *tg.MessageMediaContact:
		return mediaContact
	case *tg.MessageMediaDice:
		return mediaDice
	case *tg.MessageMediaGame:
		return mediaGame
	case *tg.MessageMediaInvoice:
		return mediaInvoice
	case *tg.MessageMediaStory:
		return mediaStory
	case *tg.MessageMediaGiveaway, *tg.MessageMediaGiveawayResults:
		return mediaGiveaway
	case *tg.MessageMediaPaidMedia:
		return mediaPaidMedia
	default:
		return mediaUnsupported
	}
}

func documentKind(m *tg.MessageMediaDocument) string {
	docClass, ok := m.GetDocument()
	if !ok {
		return mediaDocument
	}
	doc, ok := docClass.(*tg.Document)
	if !ok {
		return mediaDocument
	}

	kind := mediaDocument
	for _, attr := range doc.Attributes {
		switch a := attr.(type) {
		case *tg.DocumentAttributeSticker:
			return mediaSticker
		case *tg.DocumentAttributeAnimated:
			kind = mediaAnimation
		case *tg.DocumentAttributeVideo:
			if kind == mediaAnimation {
				continue
			}
			if a.RoundMessage {
				kind = mediaVideoNote
			} else {
				kind = mediaVideo
			}
		case *tg.DocumentAttributeAudio:
			if a.Voice {
				kind = mediaVoice
			} else {
				kind = mediaAudio
			}
		}
	}
	return kind
}

func usersByID(list []tg.UserClass) map[int64]*tg.User {
	users := make(map[int64]*tg.User, len(list))
	for _, u := range list {
		if user, ok := u.(*tg.User); ok {
			users[user.ID] = user
		}
	}
	return users
}
