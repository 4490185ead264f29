package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-faster/errors"

	"tg-channel-reader/internal/app"
	"tg-channel-reader/internal/domain/reader"
	"tg-channel-reader/internal/infra/config"
	"tg-channel-reader/internal/infra/telegram/session"
)

// Длина превью в текстовом формате, в рунах.
const (
	postPreviewRunes    = 500
	commentPreviewRunes = 200
)

// Форматы вывода fetch.
const (
	formatJSON  = "json"
	formatText  = "text"
	formatDebug = "debug"
)

// fatalDoc — общий вид фатальной ошибки в stdout.
type fatalDoc struct {
	Error  string   `json:"error"`
	Action string   `json:"action,omitempty"`
	Fix    []string `json:"fix,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeFatal печатает ошибку в JSON. Ошибки сессии несут expected_path и
// найденные сессии, остальные сводятся к {error, action?, fix?}.
func writeFatal(w io.Writer, err error) {
	var (
		sessErr *session.Error
		appErr  *app.Error
		cfgErr  *config.Error
		doc     any
	)
	switch {
	case errors.As(err, &sessErr):
		doc = sessErr
	case errors.As(err, &appErr):
		doc = appErr
	case errors.As(err, &cfgErr):
		doc = fatalDoc{Error: cfgErr.Message, Fix: cfgErr.Fix}
	default:
		doc = fatalDoc{Error: err.Error()}
	}
	_ = writeJSON(w, doc)
}

// writeResults печатает один результат объектом, несколько — массивом.
func writeResults(w io.Writer, results reader.BatchResult) error {
	if len(results) == 1 {
		return writeJSON(w, results[0])
	}
	return writeJSON(w, results)
}

// writeText печатает результаты для чтения человеком. sinceSpec — исходное
// значение --since, как его ввёл пользователь.
func writeText(w io.Writer, results reader.BatchResult, sinceSpec string) {
	for _, res := range results {
		if fail, ok := res.Failure(); ok {
			fmt.Fprintf(w, "[ERROR] %s: %s\n", fail.Channel, fail.Message)
			continue
		}
		posts, _ := res.Posts()
		fmt.Fprintf(w, "\n=== %s (%d posts since %s) ===\n", posts.Channel, posts.Count, sinceSpec)
		for _, p := range posts.Messages {
			fmt.Fprintf(w, "\n[%s] %s\n", p.Timestamp.Format(time.RFC3339), p.Permalink)
			text, cut := truncate(p.Text, postPreviewRunes)
			if cut {
				text += "..."
			}
			fmt.Fprintln(w, text)
			writeComments(w, p)
		}
	}
}

func writeComments(w io.Writer, p reader.Post) {
	if len(p.Comments) == 0 {
		return
	}
	count := len(p.Comments)
	if p.CommentCount != nil {
		count = *p.CommentCount
	}
	fmt.Fprintf(w, "  [%d comments]\n", count)
	for _, c := range p.Comments {
		user := "anonymous"
		if c.Author != nil && *c.Author != "" {
			user = *c.Author
		}
		text, _ := truncate(c.Text, commentPreviewRunes)
		fmt.Fprintf(w, "    @%s: %s\n", user, text)
	}
}

// truncate обрезает s до n рун.
func truncate(s string, n int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= n {
		return s, false
	}
	return string(runes[:n]), true
}
