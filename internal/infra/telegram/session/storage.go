// Package session — всё, что связано с файлом MTProto-сессии на диске:
//   - FileStorage: реализация tdsession.Storage с атомарной записью;
//   - поиск *.session в домашнем и текущем каталогах;
//   - проверка сессии до любого сетевого вызова и диагностика для check;
//   - распознавание и импорт sqlite-сессий Pyrogram и Telethon.
package session

import (
	"context"
	"os"
	"sync"

	"github.com/go-faster/errors"
	tdsession "github.com/gotd/td/session"

	"tg-channel-reader/internal/infra/logger"
	"tg-channel-reader/internal/infra/storage"
)

// FileStorage реализует tdsession.Storage поверх обычного файла.
// Load/Store защищены мьютексом.
type FileStorage struct {
	Path string
	mux  sync.Mutex
}

var _ tdsession.Storage = (*FileStorage)(nil)

// LoadSession читает файл сессии с диска.
func (f *FileStorage) LoadSession(_ context.Context) ([]byte, error) {
	if f == nil {
		return nil, errors.New("nil session storage is invalid")
	}
	f.mux.Lock()
	defer f.mux.Unlock()

	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return nil, tdsession.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "read session")
	}
	return data, nil
}

// StoreSession атомарно сохраняет данные сессии.
func (f *FileStorage) StoreSession(_ context.Context, data []byte) error {
	if f == nil {
		return errors.New("nil session storage is invalid")
	}
	f.mux.Lock()
	defer f.mux.Unlock()

	if err := storage.AtomicWriteFile(f.Path, data); err != nil {
		return errors.Wrap(err, "atomic write session")
	}
	logger.Debug("session stored")
	return nil
}
