// Package logger — централизованная обёртка над zap для всего приложения.
// Консольные логи идут только в stderr: stdout занят JSON-результатом команды.
// Дополнительно можно включить ротируемый файловый лог (lumberjack), тогда
// записи дублируются в оба ядра через zapcore.NewTee.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// mu защищает глобальное состояние логгера.
	mu sync.Mutex
	// log — текущий экземпляр zap.Logger.
	log *zap.Logger
	// logLevel управляет уровнем консольного вывода без пересоздания ядра.
	logLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	// consoleWriter — поток консольных логов, по умолчанию stderr.
	consoleWriter = zapcore.Lock(zapcore.AddSync(os.Stderr))
	// fileCore — необязательное файловое ядро, nil если LOG_FILE не задан.
	fileCore zapcore.Core
	// fileSink держит lumberjack для закрытия в Close.
	fileSink *lumberjack.Logger
)

// FileOptions описывает файловый лог с ротацией.
type FileOptions struct {
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// fileEncoderConfig — JSON-записи с ISO-временем для машинного разбора.
func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := consoleEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func parseLevel(level string, fallback zapcore.Level) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return fallback
	}
}

// rebuildLoggerLocked пересоздаёт глобальный логгер. Вызывающий держит mu.
func rebuildLoggerLocked() {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), consoleWriter, logLevel)
	if fileCore != nil {
		core = zapcore.NewTee(core, fileCore)
	}
	if log != nil {
		_ = log.Sync()
	}
	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.ErrorOutput(consoleWriter))
}

// Init задаёт уровень консольного вывода: debug, info, warn (по умолчанию), error.
func Init(level string) {
	mu.Lock()
	defer mu.Unlock()

	logLevel.SetLevel(parseLevel(level, zap.WarnLevel))
	rebuildLoggerLocked()
}

// EnableFile подключает ротируемый файловый лог. Пустой путь отключает его.
func EnableFile(opts FileOptions) {
	mu.Lock()
	defer mu.Unlock()

	if fileSink != nil {
		_ = fileSink.Close()
		fileSink, fileCore = nil, nil
	}
	if strings.TrimSpace(opts.Path) != "" {
		fileSink = &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		fileCore = zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig()),
			zapcore.AddSync(fileSink),
			zap.NewAtomicLevelAt(parseLevel(opts.Level, zap.DebugLevel)),
		)
	}
	rebuildLoggerLocked()
}

// SetWriter переназначает консольный поток. Nil возвращает stderr.
func SetWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if w == nil {
		consoleWriter = zapcore.Lock(zapcore.AddSync(os.Stderr))
	} else {
		consoleWriter = zapcore.Lock(zapcore.AddSync(w))
	}
	rebuildLoggerLocked()
}

// Close сбрасывает буферы и закрывает файловый лог.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if log != nil {
		_ = log.Sync()
	}
	if fileSink != nil {
		_ = fileSink.Close()
	}
}

// Logger возвращает текущий zap.Logger, лениво создавая его при первом обращении.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if log == nil {
		rebuildLoggerLocked()
	}
	return log
}

// IsDebugEnabled сообщает, пишется ли debug в консоль.
func IsDebugEnabled() bool {
	return logLevel.Enabled(zap.DebugLevel)
}

// Debug пишет структурированное сообщение уровня Debug.
func Debug(msg string, fields ...zap.Field) { Logger().Debug(msg, fields...) }

// Info пишет структурированное сообщение уровня Info.
func Info(msg string, fields ...zap.Field) { Logger().Info(msg, fields...) }

// Warn пишет структурированное предупреждение уровня Warn.
func Warn(msg string, fields ...zap.Field) { Logger().Warn(msg, fields...) }

// Error пишет структурированное сообщение об ошибке уровня Error.
func Error(msg string, fields ...zap.Field) { Logger().Error(msg, fields...) }

// Debugf форматирует сообщение через fmt.Sprintf.
func Debugf(msg string, a ...any) { Logger().Debug(fmt.Sprintf(msg, a...)) }

// Infof форматирует сообщение через fmt.Sprintf.
func Infof(msg string, a ...any) { Logger().Info(fmt.Sprintf(msg, a...)) }

// Warnf форматирует сообщение через fmt.Sprintf.
func Warnf(msg string, a ...any) { Logger().Warn(fmt.Sprintf(msg, a...)) }

// Errorf форматирует сообщение через fmt.Sprintf.
func Errorf(msg string, a ...any) { Logger().Error(fmt.Sprintf(msg, a...)) }
