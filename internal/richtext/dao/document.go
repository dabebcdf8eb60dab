package dao

import (
	"errors"
	"time"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/editor/edtypes"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Document struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title        string        `json:"title" gorm:"not null"`
	MultilineTag string        `json:"multiline_tag"`
	Content      edtypes.Value `json:"content"`
	Version      int           `json:"version" gorm:"default:1"`

	// Lua скрипт с функцией BeforeSave, проверяющей новое содержимое
	RulesScript *string `json:"rules_script,omitempty" extensions:"x-nullable"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID.IsNil() {
		d.ID = GenUUID()
	}
	if d.Version == 0 {
		d.Version = 1
	}
	return nil
}

// DocumentRevision предыдущее содержимое документа. Version совпадает с версией документа
// на момент, когда это содержимое было актуальным.
type DocumentRevision struct {
	ID         uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	DocumentID uuid.UUID `json:"document_id" gorm:"type:uuid;index;uniqueIndex:document_revision_version,priority:1"`
	Version    int       `json:"version" gorm:"uniqueIndex:document_revision_version,priority:2"`

	Title        string        `json:"title"`
	MultilineTag string        `json:"multiline_tag"`
	Content      edtypes.Value `json:"content"`

	Document *Document `json:"-" gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" extensions:"x-nullable"`
}

func (DocumentRevision) TableName() string { return "document_revisions" }

func (r *DocumentRevision) BeforeCreate(tx *gorm.DB) error {
	if r.ID.IsNil() {
		r.ID = GenUUID()
	}
	return nil
}

// DocumentUpdate набор изменяемых полей документа. nil означает "не менять". -migration
type DocumentUpdate struct {
	Title        *string
	MultilineTag *string
	Content      *edtypes.Value
	RulesScript  *string
}

func (u DocumentUpdate) changesContent(doc *Document) bool {
	if u.Title != nil && *u.Title != doc.Title {
		return true
	}
	if u.MultilineTag != nil && *u.MultilineTag != doc.MultilineTag {
		return true
	}
	return u.Content != nil && !u.Content.Equal(doc.Content)
}

func CreateDocument(tx *gorm.DB, doc *Document) error {
	return tx.Create(doc).Error
}

func GetDocument(tx *gorm.DB, id uuid.UUID) (*Document, error) {
	var doc Document
	if err := tx.Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments возвращает страницу документов, новые первыми.
func ListDocuments(tx *gorm.DB, offset, limit int) (PaginationResponse, error) {
	var docs []Document
	return PaginationRequest(offset, limit, tx.Order("created_at desc").Order("id"), &docs)
}

// ErrVersionConflict документ изменен другим запросом после чтения.
var ErrVersionConflict = errors.New("document version conflict")

// UpdateDocument применяет изменения к документу. Если меняется содержимое, название или
// тег строк, прежнее состояние сохраняется ревизией, а версия документа увеличивается.
// Запись проходит только при неизменной в базе версии, иначе ErrVersionConflict.
// doc обновляется только после успешной записи.
func UpdateDocument(tx *gorm.DB, doc *Document, upd DocumentUpdate) error {
	next := *doc
	if upd.changesContent(doc) {
		next.Version++
	}
	if upd.Title != nil {
		next.Title = *upd.Title
	}
	if upd.MultilineTag != nil {
		next.MultilineTag = *upd.MultilineTag
	}
	if upd.Content != nil {
		next.Content = upd.Content.Clone()
	}
	if upd.RulesScript != nil {
		if *upd.RulesScript == "" {
			next.RulesScript = nil
		} else {
			script := *upd.RulesScript
			next.RulesScript = &script
		}
	}

	err := tx.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&next).
			Where("version = ?", doc.Version).
			Select("*").Omit("id", "created_at").
			Updates(&next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if next.Version != doc.Version {
			rev := DocumentRevision{
				DocumentID:   doc.ID,
				Version:      doc.Version,
				Title:        doc.Title,
				MultilineTag: doc.MultilineTag,
				Content:      doc.Content.Clone(),
			}
			if err := tx.Create(&rev).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrVersionConflict
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	*doc = next
	return nil
}

func DeleteDocument(tx *gorm.DB, id uuid.UUID) error {
	return tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&DocumentRevision{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&RulesLog{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Document{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListRevisions возвращает ревизии документа, последние первыми.
func ListRevisions(tx *gorm.DB, documentID uuid.UUID) ([]DocumentRevision, error) {
	var revs []DocumentRevision
	err := tx.Where("document_id = ?", documentID).Order("version desc").Find(&revs).Error
	return revs, err
}

func GetRevision(tx *gorm.DB, documentID uuid.UUID, version int) (*DocumentRevision, error) {
	var rev DocumentRevision
	if err := tx.Where("document_id = ?", documentID).Where("version = ?", version).First(&rev).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

const pruneRevisionsSQL = `DELETE FROM document_revisions WHERE id IN (
	SELECT id FROM (
		SELECT id, ROW_NUMBER() OVER (PARTITION BY document_id ORDER BY version DESC) AS rn
		FROM document_revisions
	) ranked WHERE ranked.rn > ?
)`

// PruneRevisions оставляет у каждого документа не более keep последних ревизий.
// Возвращает количество удаленных записей.
func PruneRevisions(tx *gorm.DB, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res := tx.Exec(pruneRevisionsSQL, keep)
	return res.RowsAffected, res.Error
}
