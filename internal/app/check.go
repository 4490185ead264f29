package app

import (
	"context"
	"os"
	"strings"

	"tg-channel-reader/internal/adapters/telegram/mtproto"
	"tg-channel-reader/internal/infra/config"
	"tg-channel-reader/internal/infra/telegram/session"
	"tg-channel-reader/internal/support/version"
)

// Статусы отчёта check.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// BackendStatus — состояние привязки транспорта.
type BackendStatus struct {
	Installed bool    `json:"installed"`
	Version   *string `json:"version"`
	Selected  bool    `json:"selected"`
}

// CheckReport — офлайн-диагностика конфигурации и сессии.
type CheckReport struct {
	Status      string                            `json:"status"`
	Credentials config.Credentials                `json:"credentials"`
	Session     session.Report                    `json:"session"`
	Backends    map[mtproto.Backend]BackendStatus `json:"backends"`
	Problems    []string                          `json:"problems"`
}

// OK сообщает, что проблем не найдено.
func (r CheckReport) OK() bool {
	return r.Status == StatusOK
}

// Check проверяет учётные данные, сессию и привязки без сетевых запросов.
// dirs — каталоги поиска сессий.
func Check(ctx context.Context, opts config.LoadOptions, dirs ...string) CheckReport {
	insp := config.Inspect(opts)
	problems := append([]string{}, insp.Problems...)

	sess, sessProblems := session.Inspect(ctx, insp.Session, insp.DefaultSession, dirs...)
	problems = append(problems, sessProblems...)

	selected, err := mtproto.ParseBackend(insp.Backend)
	if err != nil {
		problems = append(problems, "TG_BACKEND: "+err.Error())
	}
	gotd := version.Gotd()
	backends := make(map[mtproto.Backend]BackendStatus, len(mtproto.Backends))
	for _, b := range mtproto.Backends {
		st := BackendStatus{Installed: true, Selected: b == selected}
		if gotd != "" {
			v := gotd
			st.Version = &v
		}
		backends[b] = st
	}

	status := StatusOK
	if len(problems) > 0 {
		status = StatusError
	}
	return CheckReport{
		Status:      status,
		Credentials: insp.Credentials,
		Session:     sess,
		Backends:    backends,
		Problems:    problems,
	}
}

// ImportSession переносит сессию Pyrogram или Telethon из src в сессию
// текущей конфигурации. Существующая gotd-сессия по другому пути
// перезаписывается только с force.
func (a *App) ImportSession(ctx context.Context, src string, force bool) (session.ImportResult, error) {
	src = strings.TrimSpace(src)
	if !strings.HasSuffix(src, session.Suffix) {
		if _, err := os.Stat(src); err != nil {
			src += session.Suffix
		}
	}
	if _, err := os.Stat(src); err != nil {
		return session.ImportResult{}, &Error{
			Message: "Source session not found: " + src,
			Fix:     []string{"Pass the path to a Pyrogram or Telethon .session file"},
			Err:     err,
		}
	}

	dst := a.cfg.SessionPath()
	if !force && src != dst {
		if format, err := session.DetectFormat(ctx, dst); err == nil && format == session.FormatGotd {
			return session.ImportResult{}, &Error{
				Message: "Target session already exists: " + dst,
				Fix: []string{
					"Pass --force to overwrite it",
					"Or choose another target with --session-file",
				},
			}
		}
	}

	res, err := session.Import(ctx, src, dst)
	if err != nil {
		return session.ImportResult{}, &Error{
			Message: err.Error(),
			Fix:     []string{"Run 'tg-reader auth' to create a new session instead"},
			Err:     err,
		}
	}
	return res, nil
}
