package app

import (
	"context"
	"os"
	"strconv"

	"github.com/gotd/td/tg"

	"tg-channel-reader/internal/adapters/telegram/core"
	"tg-channel-reader/internal/infra/pr"
	"tg-channel-reader/internal/infra/telegram/connection"
	"tg-channel-reader/internal/infra/telegram/session"
)

// AuthResult — итог команды auth.
type AuthResult struct {
	Status  string `json:"status"`
	User    string `json:"user"`
	ID      int64  `json:"id"`
	Session string `json:"session"`
}

// Auth выполняет интерактивный вход и создаёт файл сессии. Если сессия уже
// авторизована, вход пропускается. Сессия чужого формата не перезаписывается:
// её нужно импортировать или удалить.
func (a *App) Auth(ctx context.Context) (AuthResult, error) {
	if err := a.cfg.Validate(); err != nil {
		return AuthResult{}, err
	}

	path := a.cfg.SessionPath()
	if _, err := os.Stat(path); err == nil {
		format, err := session.DetectFormat(ctx, path)
		if err != nil {
			return AuthResult{}, Fatal(err, path)
		}
		if format != session.FormatGotd && format != session.FormatEmpty {
			return AuthResult{}, session.Validate(ctx, a.cfg.Session)
		}
	}

	pr.ErrPrintf("Starting auth for session: %s\n", path)
	defer pr.Close()

	client := connection.NewClient(a.clientOptions())
	login := core.TerminalAuthenticator{PhoneNumber: a.cfg.Phone}

	var result AuthResult
	err := connection.Run(ctx, client, login, func(ctx context.Context) error {
		self, err := connection.Self(ctx, client)
		if err != nil {
			return err
		}
		result = AuthResult{
			Status:  "authenticated",
			User:    userLabel(self),
			ID:      self.ID,
			Session: path,
		}
		return nil
	})
	if err != nil {
		return AuthResult{}, Fatal(err, path)
	}
	return result, nil
}

// userLabel — username без @, иначе числовой id.
func userLabel(u *tg.User) string {
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.ID, 10)
}
