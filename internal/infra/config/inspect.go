package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Источники учётных данных в отчёте check.
const (
	SourceEnv        = "env"
	SourceConfigFile = "config_file"
)

// Credentials — состояние учётных данных для диагностики. Секреты не выводятся,
// только признаки их наличия.
type Credentials struct {
	Source                *string `json:"source"`
	APIIDSet              bool    `json:"api_id_set"`
	APIHashSet            bool    `json:"api_hash_set"`
	ConfigFile            string  `json:"config_file"`
	ConfigFileExists      bool    `json:"config_file_exists"`
	ConfigHasAPIID        bool    `json:"config_has_api_id"`
	ConfigHasAPIHash      bool    `json:"config_has_api_hash"`
	ConfigSessionOverride string  `json:"config_session_override,omitempty"`
}

// Inspection — результат офлайн-проверки конфигурации.
type Inspection struct {
	Credentials Credentials
	// Session — итоговая сессия после всех переопределений, без суффикса.
	Session string
	// DefaultSession — сессия, которая была бы выбрана без переопределений.
	DefaultSession string
	// Backend — транспорт, который выберет Load.
	Backend  string
	Problems []string
}

// Inspect разбирает источники конфигурации, не завершаясь на ошибках: всё
// найденное попадает в Problems.
func Inspect(opts LoadOptions) Inspection {
	var problems []string
	if err := loadDotEnv(opts.EnvFile); err != nil {
		problems = append(problems, err.Error())
	}

	envID := strings.TrimSpace(os.Getenv(EnvAPIID))
	envHash := strings.TrimSpace(os.Getenv(EnvAPIHash))
	session := DefaultSession()
	if v := strings.TrimSpace(os.Getenv(EnvSession)); v != "" {
		session = v
	}

	configPath := ConfigPath(opts.ConfigFile)
	creds := Credentials{
		ConfigFile:       configPath,
		ConfigFileExists: fileExists(configPath),
	}

	var file fileValues
	if creds.ConfigFileExists {
		if err := cleanenv.ReadConfig(configPath, &file); err != nil {
			problems = append(problems, fmt.Sprintf("Config file %s is invalid: %v", configPath, err))
		}
	}
	creds.ConfigHasAPIID = file.APIID != 0
	creds.ConfigHasAPIHash = strings.TrimSpace(file.APIHash) != ""
	if s := strings.TrimSpace(file.Session); s != "" {
		creds.ConfigSessionOverride = s
		if os.Getenv(EnvSession) == "" {
			session = s
		}
	}

	idSet := envID != "" || creds.ConfigHasAPIID
	hashSet := envHash != "" || creds.ConfigHasAPIHash
	creds.APIIDSet, creds.APIHashSet = idSet, hashSet
	switch {
	case envID != "" && envHash != "":
		src := SourceEnv
		creds.Source = &src
	case idSet && hashSet:
		src := SourceConfigFile
		creds.Source = &src
	}

	if !idSet {
		problems = append(problems, "TG_API_ID not found in env vars or config file")
	}
	if !hashSet {
		problems = append(problems, "TG_API_HASH not found in env vars or config file")
	}

	if strings.TrimSpace(opts.SessionFile) != "" {
		session = opts.SessionFile
	}

	backend := sanitizeBackend(&problems)

	return Inspection{
		Credentials:    creds,
		Session:        NormalizeSession(session),
		DefaultSession: NormalizeSession(DefaultSession()),
		Backend:        backend,
		Problems:       problems,
	}
}
