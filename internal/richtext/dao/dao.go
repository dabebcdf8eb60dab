// DAO (Data Access Object) - хранение документов с форматированным текстом и их ревизий.
//
// Основные возможности:
//   - Выбор драйвера базы данных по строке подключения (PostgreSQL или SQLite).
//   - Создание, чтение, обновление и удаление документов.
//   - Сохранение предыдущего содержимого документа в виде ревизии при каждом изменении.
//   - Очистка старых ревизий.
package dao

//go:generate go run ../../../cmd/schemagen -dao . -target dao.go

import (
	"strings"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Models список моделей для миграции.
var Models = []any{&Document{}, &DocumentRevision{}, &RulesLog{}}

// GenUUID генерирует новый UUID v4.
func GenUUID() uuid.UUID {
	u2, _ := uuid.NewV4()
	return u2
}

// IsPostgresDSN определяет, что строка подключения относится к PostgreSQL.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// OpenDB открывает подключение к PostgreSQL или к файлу SQLite в зависимости от dsn.
func OpenDB(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	if IsPostgresDSN(dsn) {
		return gorm.Open(utils.NewPostgresUUIDDialector(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: false,
		}), cfg)
	}
	return gorm.Open(sqlite.Open(dsn), cfg)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}

// PaginationResponse страница результатов. -migration
type PaginationResponse struct {
	Count  int64 `json:"count"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Result any   `json:"result"`
}

func PaginationRequest(offset int, limit int, query *gorm.DB, target any) (res PaginationResponse, err error) {
	// Count query
	if err := query.Session(&gorm.Session{}).Model(target).Count(&res.Count).Error; err != nil {
		return res, err
	}

	// Data query
	if err := query.Offset(offset).Limit(limit).Find(target).Error; err != nil {
		return res, err
	}

	res.Result = target
	res.Limit = limit
	res.Offset = offset

	return res, nil
}
