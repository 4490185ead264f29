// Package failure — единый классификатор ошибок чтения каналов.
// Любая ошибка транспорта (RPC-ошибка Telegram, ошибка резолва username,
// сетевой сбой) сводится к одному из закрытого набора видов Kind и
// рекомендуемому действию для агента. Пакет чистый: никакого I/O, только
// разбор цепочки ошибок. Это единственное место, где живёт соответствие
// kind↔action, им пользуются и fetch, и info.
package failure

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gotd/td/tgerr"
)

// Kind — вид ошибки канала из публичной таксономии.
type Kind string

const (
	KindAccessDenied  Kind = "access_denied"
	KindBanned        Kind = "banned"
	KindNotFound      Kind = "not_found"
	KindInviteExpired Kind = "invite_expired"
	KindFloodWait     Kind = "flood_wait"
	KindUnexpected    Kind = "unexpected"
)

// Токены рекомендуемых действий. Для flood_wait действие строится динамически (wait_{N}s).
const (
	ActionRemoveOrRejoin   = "remove_from_list_or_rejoin"
	ActionRemoveFromList   = "remove_from_list"
	ActionCheckUsername    = "check_username"
	ActionRequestNewInvite = "request_new_invite"
	ActionReportToUser     = "report_to_user"
)

// FloodWaitCeiling — максимальная пауза FLOOD_WAIT, которую клиент готов выждать
// автоматически. Всё, что выше, возвращается вызывающему как есть.
const FloodWaitCeiling = 60 * time.Second

// Ошибки уровня резолва, которые адаптеры обязаны возвращать (или оборачивать),
// чтобы классификатор видел их вид независимо от бэкенда.
var (
	// ErrUsernameNotFound — username отсутствует в реестре Telegram.
	ErrUsernameNotFound = errors.New("username not found")
	// ErrNotChannel — идентификатор резолвится, но это не канал.
	ErrNotChannel = errors.New("peer is not a channel")
	// ErrNotMember — ссылка-приглашение валидна, но аккаунт не состоит в канале.
	ErrNotMember = errors.New("not a member of the channel")
)

// RPC-типы ошибок Telegram, сгруппированные по видам.
var (
	accessDeniedTypes = []string{
		"CHANNEL_PRIVATE",
		"CHAT_FORBIDDEN",
		"CHAT_RESTRICTED",
		"CHANNEL_PUBLIC_GROUP_NA",
		"CHAT_ADMIN_REQUIRED",
	}
	bannedTypes = []string{
		"CHANNEL_BANNED",
		"USER_BANNED_IN_CHANNEL",
	}
	notFoundTypes = []string{
		"CHANNEL_INVALID",
		"CHAT_INVALID",
		"CHAT_ID_INVALID",
		"PEER_ID_INVALID",
		"USERNAME_NOT_OCCUPIED",
		"USERNAME_INVALID",
	}
	inviteTypes = []string{
		"INVITE_HASH_EXPIRED",
		"INVITE_HASH_INVALID",
		"INVITE_HASH_EMPTY",
	}
)

// Failure — структурированная ошибка канала, которую получает агент.
type Failure struct {
	Channel string `json:"channel"`
	Message string `json:"error"`
	Kind    Kind   `json:"error_kind"`
	Action  string `json:"suggested_action"`
}

// Error позволяет использовать Failure как обычную ошибку.
func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Channel, f.Message)
}

// Classify сопоставляет ошибку err с видом из таксономии и собирает Failure.
// Неизвестные ошибки попадают в ветку default (unexpected): новый вид — это
// осознанное расширение switch, а не молчаливое поглощение.
func Classify(err error, channel string) Failure {
	kind, wait := KindOf(err)
	f := Failure{Channel: channel, Kind: kind}

	switch kind {
	case KindAccessDenied:
		f.Message = fmt.Sprintf("Channel is private or access denied: %v", err)
		f.Action = ActionRemoveOrRejoin
	case KindBanned:
		f.Message = fmt.Sprintf("Banned from channel: %v", err)
		f.Action = ActionRemoveFromList
	case KindNotFound:
		f.Message = fmt.Sprintf("Channel not found or username is incorrect: %v", err)
		f.Action = ActionCheckUsername
	case KindInviteExpired:
		f.Message = fmt.Sprintf("Invite link expired or invalid: %v", err)
		f.Action = ActionRequestNewInvite
	case KindFloodWait:
		secs := Seconds(wait)
		f.Message = fmt.Sprintf("Rate limited: retry after %ds", secs)
		f.Action = WaitAction(secs)
	default:
		f.Kind = KindUnexpected
		f.Message = fmt.Sprintf("Unexpected error: %v", err)
		f.Action = ActionReportToUser
	}
	return f
}

// KindOf определяет вид ошибки. Для flood_wait дополнительно возвращает
// обязательную паузу из ответа сервера.
func KindOf(err error) (Kind, time.Duration) {
	if err == nil {
		return KindUnexpected, 0
	}

	if wait, ok := tgerr.AsFloodWait(err); ok {
		return KindFloodWait, wait
	}

	switch {
	case errors.Is(err, ErrUsernameNotFound), errors.Is(err, ErrNotChannel):
		return KindNotFound, 0
	case errors.Is(err, ErrNotMember):
		return KindAccessDenied, 0
	}

	rpcErr, ok := tgerr.As(err)
	if !ok {
		return KindUnexpected, 0
	}
	switch {
	case slices.Contains(accessDeniedTypes, rpcErr.Type):
		return KindAccessDenied, 0
	case slices.Contains(bannedTypes, rpcErr.Type):
		return KindBanned, 0
	case slices.Contains(notFoundTypes, rpcErr.Type):
		return KindNotFound, 0
	case slices.Contains(inviteTypes, rpcErr.Type):
		return KindInviteExpired, 0
	default:
		return KindUnexpected, 0
	}
}

// FloodWait извлекает паузу FLOOD_WAIT из ошибки, если она там есть.
func FloodWait(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	return tgerr.AsFloodWait(err)
}

// Seconds переводит паузу в целые секунды, дробный остаток округляется вверх.
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// WaitAction строит токен действия для flood_wait.
func WaitAction(seconds int) string {
	return "wait_" + strconv.Itoa(seconds) + "s"
}

// WaitSeconds разбирает токен wait_{N}s обратно в число секунд.
func (f Failure) WaitSeconds() (int, bool) {
	if f.Kind != KindFloodWait {
		return 0, false
	}
	raw, ok := strings.CutPrefix(f.Action, "wait_")
	if !ok {
		return 0, false
	}
	raw, ok = strings.CutSuffix(raw, "s")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Retryable сообщает, подлежит ли ошибка единственному автоматическому повтору:
// только flood_wait с паузой в (0, FloodWaitCeiling].
func (f Failure) Retryable() (time.Duration, bool) {
	secs, ok := f.WaitSeconds()
	if !ok || secs <= 0 {
		return 0, false
	}
	wait := time.Duration(secs) * time.Second
	if wait > FloodWaitCeiling {
		return 0, false
	}
	return wait, true
}
