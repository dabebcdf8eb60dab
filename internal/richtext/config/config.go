// Управление конфигурацией сервиса форматированного текста из переменных окружения.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения с использованием тегов struct.
//   - Преобразование типов данных из переменных окружения (string, int, bool).
//   - Маскировка секретных значений в логах.
//   - Значения по умолчанию для адресов, лимитов и расписания очистки ревизий.
package config

import (
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strings"
)

type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR"`
	MetricsAddr string `env:"METRICS_ADDR"`

	DatabaseDSN string `env:"DATABASE_URL"`

	DefaultMultilineTag string `env:"DEFAULT_MULTILINE_TAG"`
	SanitizeInput       bool   `env:"SANITIZE_INPUT"`
	MinifyHTML          bool   `env:"MINIFY_HTML"`

	BodyLimit     string `env:"BODY_LIMIT"`
	MaxTextLength int    `env:"MAX_TEXT_LENGTH"`

	ExternalLimiterRaw string `env:"EXTERNAL_LIMITER_URL"`
	ExternalLimiterURL *url.URL
	// Bearer токен запросов к внешнему сервису лимитов
	LimiterToken string `env:"EXTERNAL_LIMITER_TOKEN"`

	RevisionsKeep          int    `env:"REVISIONS_KEEP"`
	RevisionsCleanSchedule string `env:"REVISIONS_CLEAN_SCHEDULE"`
	RulesLogKeepDays       int    `env:"RULES_LOG_KEEP_DAYS"`
}

// ReadConfig загружает конфигурацию из переменных окружения и подставляет значения по умолчанию.
// Некорректный EXTERNAL_LIMITER_URL завершает работу приложения.
func ReadConfig() *Config {
	config := &Config{}

	envConfig("env", config)

	if config.ExternalLimiterRaw != "" {
		var err error
		config.ExternalLimiterURL, err = url.Parse(config.ExternalLimiterRaw)
		if err != nil {
			slog.Error("EXTERNAL_LIMITER_URL incorrect", "err", err)
			os.Exit(1)
		}
	}

	config.setDefaults()
	return config
}

func (config *Config) setDefaults() {
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.MetricsAddr == "" {
		config.MetricsAddr = ":2112"
	}
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = "richtext.db"
	}
	if config.BodyLimit == "" {
		config.BodyLimit = "2M"
	}
	if config.MaxTextLength <= 0 {
		config.MaxTextLength = 100000
	}
	if config.RevisionsKeep <= 0 {
		config.RevisionsKeep = 20
	}
	if config.RevisionsCleanSchedule == "" {
		config.RevisionsCleanSchedule = "0 3 * * *"
	}
	if config.RulesLogKeepDays <= 0 {
		config.RulesLogKeepDays = 30
	}
}

// Присваивает полям в переданной структуре значения переменных. Название переменной для каждого поля лежит в теге этого поля.
func envConfig(key string, s interface{}) {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)

		if fEnvTag == "" || !Exist(fEnvTag) {
			continue
		}

		logValue := GetEnv(fEnvTag)
		if logValue == "" {
			continue
		}

		// Secure secrets in log
		if isSecret(fName) {
			logValue = maskValue(logValue)
		}
		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", logValue),
			slog.String("source", "ENVIRONMENT"),
		)

		switch v.Field(i).Interface().(type) {
		case string:
			v.Field(i).SetString(GetEnv(fEnvTag))
		case int:
			v.Field(i).SetInt(int64(GetIntEnv(fEnvTag)))
		case bool:
			v.Field(i).SetBool(GetBoolEnv(fEnvTag))
		}
	}
}

func isSecret(fieldName string) bool {
	name := strings.ToLower(fieldName)
	return strings.Contains(name, "pass") || strings.Contains(name, "secret") || strings.Contains(name, "token")
}

func maskValue(val string) string {
	pass := strings.Split(val, "")
	if len(pass) < 3 {
		return strings.Repeat("*", len(pass))
	}
	res := pass[0]
	for i := 1; i < len(pass)-1; i++ {
		res += "*"
	}
	return res + pass[len(pass)-1]
}
