// Package mtproto связывает ядро чтения (reader.Client) с MTProto через gotd.
// Есть две привязки с одинаковым поведением:
//   - rpc: ручная постраничная выборка messages.getHistory/getReplies по offset_id;
//   - query: итераторы gotd telegram/query/messages.
//
// Обе используют общий резолвер каналов (username, t.me-ссылки, инвайты) и общую
// проверку привязанного обсуждения через channels.getFullChannel.
package mtproto

import (
	"fmt"
	"strings"

	"github.com/gotd/td/tg"

	"tg-channel-reader/internal/domain/reader"
	"tg-channel-reader/internal/infra/telegram/peersmgr"
)

// Backend — имя привязки транспорта.
type Backend string

const (
	BackendRPC   Backend = "rpc"
	BackendQuery Backend = "query"
)

// Backends перечисляет поддерживаемые привязки в порядке предпочтения.
var Backends = []Backend{BackendRPC, BackendQuery}

// historyPageSize — максимальный размер страницы, который принимает Telegram.
const historyPageSize = 100

// ParseBackend разбирает имя привязки (регистр не важен).
func ParseBackend(raw string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(raw))) {
	case BackendRPC, "":
		return BackendRPC, nil
	case BackendQuery:
		return BackendQuery, nil
	default:
		return "", fmt.Errorf("unknown backend %q (want rpc or query)", raw)
	}
}

// New создаёт reader.Client выбранной привязки поверх api.
// peers может быть nil: тогда каналы резолвятся без менеджера пиров.
func New(backend Backend, api *tg.Client, peers *peersmgr.Service) (reader.Client, error) {
	res := newResolver(api, peers)
	switch backend {
	case BackendRPC, "":
		return &rpcClient{api: api, resolver: res}, nil
	case BackendQuery:
		return &queryClient{api: api, resolver: res}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func pageSize(limit int) int {
	if limit <= 0 || limit > historyPageSize {
		return historyPageSize
	}
	return limit
}
