// PostgreSQL диалектор для GORM, который хранит uuid.UUID в нативной колонке uuid вместо bytea.
package utils

import (
	"reflect"

	"github.com/gofrs/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"
)

type PostgresUUIDDialector struct {
	*postgres.Dialector
}

func NewPostgresUUIDDialector(config postgres.Config) gorm.Dialector {
	return &PostgresUUIDDialector{
		Dialector: postgres.New(config).(*postgres.Dialector),
	}
}

func (d *PostgresUUIDDialector) Migrator(db *gorm.DB) gorm.Migrator {
	return &PostgresUUIDMigrator{
		Migrator: postgres.Migrator{
			Migrator: migrator.Migrator{
				Config: migrator.Config{
					DB:                          db,
					Dialector:                   d,
					CreateIndexAfterCreateTable: true,
				},
			},
		},
	}
}

type PostgresUUIDMigrator struct {
	postgres.Migrator
}

func (m *PostgresUUIDMigrator) DataTypeOf(field *schema.Field) string {
	if IsUUIDField(field) {
		return "uuid"
	}
	return m.Migrator.DataTypeOf(field)
}

// IsUUIDField проверяет, что поле модели имеет тип uuid.UUID или uuid.NullUUID (в том числе по указателю).
func IsUUIDField(field *schema.Field) bool {
	fieldType := field.FieldType
	if fieldType.Kind() == reflect.Pointer {
		fieldType = fieldType.Elem()
	}
	return fieldType == reflect.TypeOf(uuid.UUID{}) || fieldType == reflect.TypeOf(uuid.NullUUID{})
}
