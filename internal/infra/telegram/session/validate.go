package session

import (
	"context"
	"fmt"
	"os"
)

// maxFoundSessions — сколько найденных сессий показывать в подсказке.
const maxFoundSessions = 10

// Error — ошибка сессии с подсказками; сериализуется в JSON как есть.
type Error struct {
	Message       string   `json:"error"`
	ExpectedPath  string   `json:"expected_path"`
	Fix           []string `json:"fix"`
	FoundSessions []string `json:"found_sessions,omitempty"`
	Suggestion    string   `json:"suggestion,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Validate проверяет, что сессия name (без суффикса) существует и записана
// в формате gotd. Вызывается до любого сетевого запроса: без неё клиент молча
// ушёл бы в интерактивный вход. dirs — где искать альтернативы для подсказки.
func Validate(ctx context.Context, name string, dirs ...string) error {
	path := name + Suffix
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return &Error{
				Message:      fmt.Sprintf("Cannot read session file %s: %v", path, err),
				ExpectedPath: path,
				Fix:          []string{"Check file permissions"},
			}
		}
		return missing(path, Discover(dirs...))
	}

	format, err := DetectFormat(ctx, path)
	if err != nil {
		return &Error{
			Message:      fmt.Sprintf("Cannot read session file %s: %v", path, err),
			ExpectedPath: path,
			Fix:          []string{"Check file permissions"},
		}
	}
	switch {
	case format == FormatGotd:
		return nil
	case format.Importable():
		return &Error{
			Message:      fmt.Sprintf("Session file %s was created by %s and must be converted once", path, format),
			ExpectedPath: path,
			Fix: []string{
				fmt.Sprintf("Run 'tg-reader import-session %s --session-file %s'", path, name),
				"Or run 'tg-reader auth' to create a new session",
			},
		}
	default:
		return &Error{
			Message:      fmt.Sprintf("Session file %s is not a valid session (format %s)", path, format),
			ExpectedPath: path,
			Fix:          []string{"Run 'tg-reader auth' to create a new session"},
		}
	}
}

func missing(path string, found []Found) *Error {
	e := &Error{
		Message:      "Session file not found: " + path,
		ExpectedPath: path,
		Fix: []string{
			"Run 'tg-reader auth' to create a new session",
			"Or set TG_SESSION=/path/to/existing-session (without .session suffix)",
			`Or add {"session": "/path/to/session"} to ~/.tg-reader.json`,
			"Or pass --session-file /path/to/session (without .session suffix)",
		},
	}
	if len(found) == 0 {
		return e
	}
	for i, f := range found {
		if i == maxFoundSessions {
			break
		}
		e.FoundSessions = append(e.FoundSessions, f.Path)
	}
	e.Suggestion = "Likely fix: use --session-file " + found[0].Name()
	return e
}
