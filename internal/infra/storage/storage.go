// Package storage — утилиты безопасной работы с локальными файлами:
//   - EnsureDir — гарантирует наличие директории для целевого пути;
//   - AtomicWriteFile — атомарная запись файла с fsync данных и каталога.
//
// Используется для файлов MTProto-сессий и кэша пиров, где частично записанный
// файл означает потерю авторизации.
package storage

import (
	"os"
	"path/filepath"

	"github.com/go-faster/errors"

	"tg-channel-reader/internal/infra/logger"
)

// DefaultFilePerm — права на файлы с секретами: доступ только владельцу.
const DefaultFilePerm = 0o600

// EnsureDir создаёт каталог для файла path с правами 0o700.
// Путь без директории ("." или пустая строка) ничего не создаёт.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "create dir %s", dir)
	}
	return nil
}

// AtomicWriteFile атомарно записывает data в path.
//
// Порядок: temp в том же каталоге → write → fsync → chmod → close → rename →
// fsync каталога. Либо остаётся старый файл, либо новый записан полностью.
// rename атомарен только в пределах одного тома.
func AtomicWriteFile(path string, data []byte) error {
	clean := filepath.Clean(path)
	if err := EnsureDir(clean); err != nil {
		return err
	}
	dir := filepath.Dir(clean)

	tmp, err := os.CreateTemp(dir, "atomic-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "fsync temp file")
	}
	if err := tmp.Chmod(DefaultFilePerm); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}

	if err := os.Rename(tmpName, clean); err != nil {
		return errors.Wrap(err, "rename temp file")
	}

	// fsync каталога фиксирует новое имя файла; на части ФС не поддерживается.
	if dirFile, err := os.Open(dir); err == nil {
		if errSync := dirFile.Sync(); errSync != nil {
			logger.Debugf("AtomicWriteFile: dir sync error: %v", errSync)
		}
		_ = dirFile.Close()
	}
	return nil
}
