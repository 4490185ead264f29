package session

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Suffix — расширение файла сессии.
const Suffix = ".session"

// Found — найденный на диске файл сессии.
type Found struct {
	Path     string
	Size     int64
	Modified time.Time
}

// Name возвращает путь без суффикса, в форме для --session-file.
func (f Found) Name() string {
	return strings.TrimSuffix(f.Path, Suffix)
}

// DefaultDirs — каталоги, где ищутся сессии: домашний и текущий.
func DefaultDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	return dirs
}

// Discover ищет *.session (включая скрытые) в dirs. Одинаковые каталоги и
// файлы, доступные по разным путям, учитываются один раз. Результат
// отсортирован от новых к старым.
func Discover(dirs ...string) []Found {
	var found []Found
	seenDirs := make(map[string]struct{}, len(dirs))
	seenFiles := make(map[string]struct{})

	for _, dir := range dirs {
		resolvedDir := resolve(dir)
		if _, ok := seenDirs[resolvedDir]; ok {
			continue
		}
		seenDirs[resolvedDir] = struct{}{}

		for _, pattern := range []string{"*" + Suffix, ".*" + Suffix} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				continue
			}
			for _, path := range matches {
				if strings.HasSuffix(path, "-journal") {
					continue
				}
				key := resolve(path)
				if _, ok := seenFiles[key]; ok {
					continue
				}
				info, err := os.Stat(path)
				if err != nil || info.IsDir() {
					continue
				}
				seenFiles[key] = struct{}{}
				found = append(found, Found{Path: path, Size: info.Size(), Modified: info.ModTime()})
			}
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Modified.After(found[j].Modified)
	})
	return found
}

func resolve(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	return path
}
