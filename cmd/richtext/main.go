// Основной пакет сервиса форматированного текста. Читает конфигурацию, подключается к базе данных,
// выполняет миграцию моделей и запускает HTTP сервер.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/WordPress/gutenberg-sub061/internal/richtext"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/config"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/dao"
	"github.com/WordPress/gutenberg-sub061/internal/richtext/gormlogger"
	"github.com/WordPress/gutenberg-sub061/pkg/limiter"
	"gorm.io/gorm"
)

var version string = "DEV"

// Пример запуска: go run main.go --noMigration --trace
func main() {
	noTranslateFlag := flag.Bool("noTranslate", false, "Turn off BD errors translate")
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	flag.Parse()

	PrintBanner()

	cfg := config.ReadConfig()

	if *trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	limiter.Init(cfg)

	slog.Info("RichText start.", "postgres", dao.IsPostgresDSN(cfg.DatabaseDSN))

	db, err := dao.OpenDB(cfg.DatabaseDSN, &gorm.Config{
		TranslateError: !*noTranslateFlag,
		Logger:         gormlogger.NewGormLogger(slog.Default(), time.Second*4, *paramQueries),
	})
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Fail set settings to conn pool", "err", err)
		os.Exit(1)
	}
	if dao.IsPostgresDSN(cfg.DatabaseDSN) {
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetMaxIdleConns(50)
	} else {
		// sqlite допускает только одного писателя
		sqlDB.SetMaxOpenConns(1)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(time.Minute * 15)

	if !*noMigration {
		slog.Info("Migrate models")
		if err := dao.Migrate(db); err != nil {
			slog.Error("Migration failed", "err", err)
			os.Exit(1)
		}
	}

	richtext.Server(db, cfg, version)
}

// PrintBanner выводит заголовок приложения с версией.
func PrintBanner() {
	banner := `
 ____  _      _     _____         _
|  _ \(_) ___| |__ |_   _|____  _| |_
| |_) | |/ __| '_ \  | |/ _ \ \/ / __|
|  _ <| | (__| | | | | |  __/>  <| |_
|_| \_\_|\___|_| |_| |_|\___/_/\_\\__| %s
Rich text values: split, convert, store
----------------------------------------------------
`
	colorReset := "\033[0m"
	colorYellow := "\033[33m"

	formattedVersion := version
	if version == "DEV" {
		formattedVersion = colorYellow + version + colorReset
	}

	fmt.Printf(banner, formattedVersion)
}
