package session

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/go-faster/errors"
	tdsession "github.com/gotd/td/session"
	_ "modernc.org/sqlite"
)

// Format — формат файла сессии.
type Format string

const (
	FormatGotd     Format = "gotd"
	FormatPyrogram Format = "pyrogram"
	FormatTelethon Format = "telethon"
	// FormatSQLite — sqlite-файл без узнаваемой таблицы sessions.
	FormatSQLite  Format = "sqlite"
	FormatEmpty   Format = "empty"
	FormatUnknown Format = "unknown"
)

// Importable сообщает, можно ли перенести сессию командой import-session.
func (f Format) Importable() bool {
	return f == FormatPyrogram || f == FormatTelethon
}

var sqliteHeader = []byte("SQLite format 3\x00")

// DetectFormat определяет формат существующего файла сессии.
func DetectFormat(ctx context.Context, path string) (Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return FormatUnknown, errors.Wrap(err, "open session")
	}
	head := make([]byte, len(sqliteHeader))
	n, err := io.ReadFull(file, head)
	_ = file.Close()
	switch {
	case n == 0:
		return FormatEmpty, nil
	case err == nil && bytes.Equal(head, sqliteHeader):
		return detectSQLite(ctx, path)
	}

	loader := tdsession.Loader{Storage: &FileStorage{Path: path}}
	if _, err := loader.Load(ctx); err == nil {
		return FormatGotd, nil
	}
	return FormatUnknown, nil
}

func detectSQLite(ctx context.Context, path string) (Format, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return FormatSQLite, errors.Wrap(err, "open sqlite")
	}
	defer func() { _ = db.Close() }()

	cols, err := sessionColumns(ctx, db)
	if err != nil {
		return FormatSQLite, err
	}
	return formatFromColumns(cols), nil
}

// formatFromColumns различает схемы по характерным колонкам таблицы sessions.
func formatFromColumns(cols map[string]bool) Format {
	switch {
	case cols["auth_key"] && cols["server_address"]:
		return FormatTelethon
	case cols["auth_key"] && cols["test_mode"]:
		return FormatPyrogram
	default:
		return FormatSQLite
	}
}

func sessionColumns(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info(sessions)")
	if err != nil {
		return nil, errors.Wrap(err, "read sessions schema")
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, errors.Wrap(err, "scan sessions schema")
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read sessions schema")
	}
	return cols, nil
}

// foreignSession — данные авторизации из sqlite-сессии другого клиента.
type foreignSession struct {
	DC       int
	Addr     string
	AuthKey  []byte
	TestMode bool
}

func readForeignSession(ctx context.Context, path string, format Format) (foreignSession, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return foreignSession{}, errors.Wrap(err, "open sqlite")
	}
	defer func() { _ = db.Close() }()

	var s foreignSession
	switch format {
	case FormatPyrogram:
		var testMode sql.NullInt64
		row := db.QueryRowContext(ctx, "SELECT dc_id, test_mode, auth_key FROM sessions LIMIT 1")
		if err := row.Scan(&s.DC, &testMode, &s.AuthKey); err != nil {
			return foreignSession{}, errors.Wrap(err, "read pyrogram session")
		}
		s.TestMode = testMode.Valid && testMode.Int64 != 0
	case FormatTelethon:
		var (
			addr sql.NullString
			port sql.NullInt64
		)
		row := db.QueryRowContext(ctx, "SELECT dc_id, server_address, port, auth_key FROM sessions WHERE auth_key IS NOT NULL LIMIT 1")
		if err := row.Scan(&s.DC, &addr, &port, &s.AuthKey); err != nil {
			return foreignSession{}, errors.Wrap(err, "read telethon session")
		}
		if addr.Valid && addr.String != "" && port.Valid {
			s.Addr = joinHostPort(addr.String, int(port.Int64))
		}
	default:
		return foreignSession{}, errors.Errorf("session format %q cannot be imported", format)
	}
	return s, nil
}
