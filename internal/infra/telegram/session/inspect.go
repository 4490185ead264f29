package session

import (
	"context"
	"fmt"
	"os"
	"time"
)

// FoundEntry — найденная сессия в отчёте check.
type FoundEntry struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Report — состояние сессии для команды check.
type Report struct {
	ExpectedPath  string       `json:"expected_path"`
	Exists        bool         `json:"exists"`
	Format        Format       `json:"format,omitempty"`
	DefaultPath   string       `json:"default_path,omitempty"`
	DefaultExists *bool        `json:"default_exists,omitempty"`
	Size          *int64       `json:"size,omitempty"`
	Modified      *time.Time   `json:"modified,omitempty"`
	FoundSessions []FoundEntry `json:"found_sessions"`
	Suggestion    string       `json:"suggestion,omitempty"`
	StaleWarning  bool         `json:"stale_warning,omitempty"`
	NewerSession  string       `json:"newer_session,omitempty"`
}

// Inspect собирает отчёт о сессии name и список проблем. defaultName — сессия
// без переопределений; её путь показывается, если отличается от выбранного.
func Inspect(ctx context.Context, name, defaultName string, dirs ...string) (Report, []string) {
	var problems []string
	expected := name + Suffix
	report := Report{ExpectedPath: expected, FoundSessions: []FoundEntry{}}

	if def := defaultName + Suffix; def != expected {
		exists := fileExists(def)
		report.DefaultPath = def
		report.DefaultExists = &exists
	}

	var expectedMod time.Time
	if info, err := os.Stat(expected); err == nil {
		report.Exists = true
		size, mod := info.Size(), info.ModTime().UTC()
		report.Size, report.Modified = &size, &mod
		expectedMod = mod
		if size == 0 {
			problems = append(problems, fmt.Sprintf("Session file exists but is empty (0 bytes): %s", expected))
		} else if format, err := DetectFormat(ctx, expected); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot read session file %s: %v", expected, err))
		} else {
			report.Format = format
			switch {
			case format.Importable():
				problems = append(problems, fmt.Sprintf(
					"Session %s was created by %s. Run 'tg-reader import-session %s --session-file %s'",
					expected, format, expected, name))
			case format != FormatGotd:
				problems = append(problems, fmt.Sprintf("Session %s has unrecognized format %q", expected, format))
			}
		}
	} else if !os.IsNotExist(err) {
		problems = append(problems, fmt.Sprintf("Cannot read session file %s: %v", expected, err))
	}

	found := Discover(dirs...)
	expectedKey := resolve(expected)
	var newest *Found
	for i, f := range found {
		report.FoundSessions = append(report.FoundSessions, FoundEntry{
			Path:     f.Path,
			Size:     f.Size,
			Modified: f.Modified.UTC(),
		})
		if resolve(f.Path) != expectedKey && (newest == nil || f.Modified.After(newest.Modified)) {
			newest = &found[i]
		}
	}

	switch {
	case !report.Exists:
		msg := "Expected session file not found: " + expected
		if len(found) > 0 {
			report.Suggestion = "--session-file " + found[0].Name()
			msg += ". Use " + report.Suggestion
		}
		problems = append(problems, msg)
	case newest != nil && newest.Modified.After(expectedMod):
		problems = append(problems, fmt.Sprintf(
			"Expected session (%s) is older than %s. You may be using a stale session. "+
				"Consider: --session-file %s or update 'session' in ~/.tg-reader.json",
			expected, newest.Path, newest.Name()))
		report.StaleWarning = true
		report.NewerSession = newest.Path
	}

	return report, problems
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
