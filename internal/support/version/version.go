// Package version хранит версию сборки и версии ключевых зависимостей.
package version

import (
	"runtime/debug"
)

// Version задаётся при сборке: -ldflags "-X tg-channel-reader/internal/support/version.Version=v1.2.3".
var Version = "dev"

// Name — имя приложения в выводе version и паспорте устройства.
const Name = "tg-channel-reader"

// gotdModule — путь модуля MTProto-библиотеки.
const gotdModule = "github.com/gotd/td"

// Module возвращает версию зависимости path из build info или "", если
// зависимость не вшита в бинарь.
func Module(path string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return ""
}

// Gotd возвращает версию gotd/td в текущем бинаре.
func Gotd() string {
	return Module(gotdModule)
}
