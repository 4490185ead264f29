// Пакет config собирает конфигурацию запуска:
//  1. подгружает переменные из .env (godotenv, без перезаписи уже заданных),
//  2. читает файл конфигурации (~/.tg-reader.json или --config-file) через
//     cleanenv, переменные окружения при этом имеют приоритет над файлом,
//  3. разбирает «ручки» (бэкенд, лимиты, логирование) с дефолтами и
//     накоплением предупреждений вместо падения.
//
// Итоговый снимок доступен через Env() после Load().
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Имена переменных окружения с учётными данными.
const (
	EnvAPIID   = "TG_API_ID"
	EnvAPIHash = "TG_API_HASH"
	EnvSession = "TG_SESSION"
)

// SessionSuffix — расширение файла сессии на диске.
const SessionSuffix = ".session"

// Значения по умолчанию.
const (
	defaultConfigName     = ".tg-reader.json"
	defaultSessionName    = ".tg-reader-session"
	defaultPeersCacheName = ".tg-reader-peers.bbolt"
	defaultEnvFile        = ".env"
	defaultBackend        = "rpc"
	defaultLogLevel       = "warn"
	defaultThrottleRPS    = 3
	// Файловое логирование включается только явным LOG_FILE.
	defaultLogFileLevel      = "debug"
	defaultLogFileMaxSize    = 50
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 7
	defaultLogFileCompress   = true

	peersCacheOff = "off"
)

// LoadOptions — пути, переданные глобальными флагами CLI.
type LoadOptions struct {
	// EnvFile — путь к .env; пустое значение означает ./.env, отсутствие файла не ошибка.
	EnvFile string
	// ConfigFile — явный путь к файлу конфигурации вместо ~/.tg-reader.json.
	ConfigFile string
	// SessionFile — явный путь к сессии, перекрывает все остальные источники.
	SessionFile string
}

// LogFileConfig — параметры ротируемого файлового лога.
type LogFileConfig struct {
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Config — снимок конфигурации на момент загрузки.
type Config struct {
	APIID   int
	APIHash string
	// Session — путь к сессии без суффикса .session.
	Session string
	// ConfigFile — путь к файлу конфигурации, который был (или мог быть) прочитан.
	ConfigFile string

	Backend     string
	LogLevel    string
	ThrottleRPS int
	// PeersCacheFile — bbolt-кэш username→канал; пусто, если кэш отключён.
	PeersCacheFile string
	TestDC         bool
	// Phone — номер для auth; пустой запрашивается интерактивно.
	Phone     string
	SentryDSN string
	LogFile   LogFileConfig
}

// credentials — ключи файла конфигурации. Теги env дают приоритет окружению.
type credentials struct {
	APIID   flexInt `json:"api_id" yaml:"api_id" toml:"api_id" env:"TG_API_ID" env-description:"Telegram API id from my.telegram.org"`
	APIHash string  `json:"api_hash" yaml:"api_hash" toml:"api_hash" env:"TG_API_HASH" env-description:"Telegram API hash from my.telegram.org"`
	Session string  `json:"session" yaml:"session" toml:"session" env:"TG_SESSION" env-description:"Session path without .session suffix"`
}

// fileValues — те же ключи без env-тегов: только содержимое файла.
type fileValues struct {
	APIID   flexInt `json:"api_id" yaml:"api_id" toml:"api_id"`
	APIHash string  `json:"api_hash" yaml:"api_hash" toml:"api_hash"`
	Session string  `json:"session" yaml:"session" toml:"session"`
}

// flexInt принимает api_id и числом, и строкой.
type flexInt int

func (v *flexInt) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*v = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Errorf("api_id must be a number, got %s", data)
	}
	return v.SetValue(s)
}

// SetValue реализует cleanenv.Setter для значений из окружения.
func (v *flexInt) SetValue(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*v = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.Errorf("api_id must be a number, got %q", s)
	}
	*v = flexInt(n)
	return nil
}

// Error — фатальная ошибка конфигурации с подсказками для пользователя.
type Error struct {
	Message string
	Fix     []string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	cfgMu       sync.RWMutex
	cfgInstance *Config
	cfgWarnings []string
)

// Load читает конфигурацию и сохраняет её как глобальный снимок.
// Отсутствие учётных данных здесь не ошибка: её возвращает Validate.
func Load(opts LoadOptions) error {
	cfg, warnings, err := Read(opts)
	if err != nil {
		return err
	}
	cfgMu.Lock()
	cfgInstance = cfg
	cfgWarnings = warnings
	cfgMu.Unlock()
	return nil
}

// Env возвращает снимок конфигурации. До Load — нулевой Config.
func Env() Config {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	if cfgInstance == nil {
		return Config{}
	}
	return *cfgInstance
}

// Warnings возвращает копию предупреждений последней загрузки.
func Warnings() []string {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	result := make([]string, len(cfgWarnings))
	copy(result, cfgWarnings)
	return result
}

// Read выполняет загрузку без глобального состояния.
func Read(opts LoadOptions) (*Config, []string, error) {
	var warnings []string

	if err := loadDotEnv(opts.EnvFile); err != nil {
		return nil, nil, err
	}

	configPath := ConfigPath(opts.ConfigFile)
	var creds credentials
	if err := readCredentials(configPath, &creds); err != nil {
		return nil, nil, err
	}

	session := creds.Session
	if strings.TrimSpace(session) == "" {
		session = DefaultSession()
	}
	if strings.TrimSpace(opts.SessionFile) != "" {
		session = opts.SessionFile
	}

	cfg := &Config{
		APIID:          int(creds.APIID),
		APIHash:        strings.TrimSpace(creds.APIHash),
		Session:        NormalizeSession(session),
		ConfigFile:     configPath,
		Backend:        sanitizeBackend(&warnings),
		LogLevel:       sanitizeLogLevel("LOG_LEVEL", os.Getenv("LOG_LEVEL"), defaultLogLevel, &warnings),
		ThrottleRPS:    parseIntDefault("THROTTLE_RPS", defaultThrottleRPS, greaterThanZero, &warnings),
		PeersCacheFile: peersCacheFile(os.Getenv("PEERS_CACHE_FILE")),
		TestDC:         parseBoolDefault("TEST_DC", false, &warnings),
		Phone:          strings.TrimSpace(os.Getenv("TG_PHONE")),
		SentryDSN:      strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		LogFile: LogFileConfig{
			Path:       expandHome(strings.TrimSpace(os.Getenv("LOG_FILE"))),
			Level:      sanitizeLogLevel("LOG_FILE_LEVEL", os.Getenv("LOG_FILE_LEVEL"), defaultLogFileLevel, &warnings),
			MaxSizeMB:  parseIntDefault("LOG_FILE_MAX_SIZE_MB", defaultLogFileMaxSize, greaterThanZero, &warnings),
			MaxBackups: parseIntDefault("LOG_FILE_MAX_BACKUPS", defaultLogFileMaxBackups, nonNegative, &warnings),
			MaxAgeDays: parseIntDefault("LOG_FILE_MAX_AGE_DAYS", defaultLogFileMaxAge, nonNegative, &warnings),
			Compress:   parseBoolDefault("LOG_FILE_COMPRESS", defaultLogFileCompress, &warnings),
		},
	}
	return cfg, warnings, nil
}

// Validate проверяет наличие api_id и api_hash.
func (c Config) Validate() error {
	if c.APIID != 0 && c.APIHash != "" {
		return nil
	}
	return &Error{
		Message: "Missing credentials. Set TG_API_ID and TG_API_HASH env vars, " +
			`or create ~/.tg-reader.json with {"api_id": ..., "api_hash": "..."}. ` +
			"For isolated agents, pass --config-file /path/to/tg-reader.json",
		Fix: []string{
			"Get api_id and api_hash at https://my.telegram.org/apps",
			"export TG_API_ID=... TG_API_HASH=...",
			fmt.Sprintf("Or write them to %s", c.ConfigFile),
		},
	}
}

// SessionPath возвращает путь к файлу сессии на диске.
func (c Config) SessionPath() string {
	return c.Session + SessionSuffix
}

// ConfigPath возвращает явный путь либо ~/.tg-reader.json.
func ConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return expandHome(p)
	}
	return filepath.Join(homeDir(), defaultConfigName)
}

// DefaultSession — сессия по умолчанию, без суффикса.
func DefaultSession() string {
	return filepath.Join(homeDir(), defaultSessionName)
}

// NormalizeSession раскрывает ~ и отрезает суффикс .session.
func NormalizeSession(name string) string {
	return strings.TrimSuffix(expandHome(strings.TrimSpace(name)), SessionSuffix)
}

func loadDotEnv(path string) error {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = defaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return errors.Wrapf(err, "load %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

// readCredentials читает файл конфигурации (если он есть) и окружение.
func readCredentials(path string, creds *credentials) error {
	if !fileExists(path) {
		if err := cleanenv.ReadEnv(creds); err != nil {
			return describe(err, creds)
		}
		return nil
	}
	if err := cleanenv.ReadConfig(path, creds); err != nil {
		return &Error{
			Message: fmt.Sprintf("Config file %s is invalid: %v", path, err),
			Fix:     []string{`Expected JSON like {"api_id": 12345, "api_hash": "...", "session": "/path/to/session"}`},
		}
	}
	return nil
}

func describe(err error, cfg any) error {
	help, _ := cleanenv.GetDescription(cfg, nil)
	return &Error{Message: err.Error(), Fix: strings.Split(strings.TrimSpace(help), "\n")}
}

func peersCacheFile(value string) string {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		return filepath.Join(homeDir(), defaultPeersCacheName)
	case strings.EqualFold(v, peersCacheOff):
		return ""
	default:
		return expandHome(v)
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(homeDir(), rest)
	}
	return path
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// parseIntDefault читает name как int. Некорректное значение или нарушение
// validator заменяется defaultVal с предупреждением.
func parseIntDefault(name string, defaultVal int, validator func(int) bool, warnings *[]string) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid integer; using default %d", name, value, defaultVal)
		return defaultVal
	}
	if validator != nil && !validator(v) {
		appendWarningf(warnings, "env %s value %d does not satisfy constraints; using default %d", name, v, defaultVal)
		return defaultVal
	}
	return v
}

// parseBoolDefault читает name как bool. Некорректное значение заменяется defaultVal.
func parseBoolDefault(name string, defaultVal bool, warnings *[]string) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid boolean; using default %v", name, value, defaultVal)
		return defaultVal
	}
	return v
}

// sanitizeLogLevel ограничивает уровень набором {debug, info, warn, error}.
func sanitizeLogLevel(name, level, defaultVal string, warnings *[]string) string {
	return sanitizeChoice(name, level, defaultVal, []string{"debug", "info", "warn", "error"}, warnings)
}

// sanitizeBackend читает TG_BACKEND; неизвестное значение заменяется
// значением по умолчанию с предупреждением.
func sanitizeBackend(warnings *[]string) string {
	return sanitizeChoice("TG_BACKEND", os.Getenv("TG_BACKEND"), defaultBackend, []string{"rpc", "query"}, warnings)
}

func sanitizeChoice(name, value, defaultVal string, allowed []string, warnings *[]string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return defaultVal
	}
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	appendWarningf(warnings, "env %s value %q is invalid; using default %q", name, value, defaultVal)
	return defaultVal
}

func appendWarningf(warnings *[]string, format string, args ...any) {
	if warnings == nil {
		return
	}
	*warnings = append(*warnings, fmt.Sprintf(format, args...))
}

func greaterThanZero(v int) bool { return v > 0 }
func nonNegative(v int) bool     { return v >= 0 }
