package dao

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// RulesLog запись о срабатывании Lua скрипта документа: результат, вывод print и ошибки.
type RulesLog struct {
	ID         uuid.UUID `json:"id" gorm:"column:id;primaryKey;type:uuid"`
	CreatedAt  time.Time `json:"created_at"`
	DocumentID uuid.UUID `json:"document_id" gorm:"type:uuid;index"`

	Time         time.Time `json:"time"`
	FunctionName *string   `json:"function_name,omitempty" extensions:"x-nullable"`
	Type         string    `json:"type" validate:"oneof=success fail print error"`
	Msg          string    `json:"msg"`
	LuaErr       *string   `json:"lua_err,omitempty" extensions:"x-nullable"`
}

func (RulesLog) TableName() string { return "rules_logs" }

func (l *RulesLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID.IsNil() {
		l.ID = GenUUID()
	}
	return nil
}

func ListRulesLog(tx *gorm.DB, documentID uuid.UUID, offset, limit int) (PaginationResponse, error) {
	var logs []RulesLog
	return PaginationRequest(offset, limit, tx.Where("document_id = ?", documentID).Order("time desc"), &logs)
}
