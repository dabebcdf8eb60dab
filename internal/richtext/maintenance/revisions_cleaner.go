// Пакет содержит периодические задачи обслуживания хранилища документов.
//
// Основные возможности:
//   - Удаление старых ревизий документов сверх заданного количества.
//   - Удаление устаревших записей журнала правил.
package maintenance

import (
	"log/slog"
	"time"

	"github.com/WordPress/gutenberg-sub061/internal/richtext/dao"
	stack_error "github.com/WordPress/gutenberg-sub061/internal/richtext/stack-error"
	"gorm.io/gorm"
)

type RevisionsCleaner struct {
	db   *gorm.DB
	keep int
}

func NewRevisionsCleaner(db *gorm.DB, keep int) *RevisionsCleaner {
	return &RevisionsCleaner{db, keep}
}

func (rc *RevisionsCleaner) CleanRevisions() {
	slog.Info("Start revisions cleaning", "keep", rc.keep)
	deleted, err := dao.PruneRevisions(rc.db, rc.keep)
	if err != nil {
		stack_error.GetError(nil, stack_error.TrackErrorStack(err).AddContext("job", "revisions_clean").AddContext("keep", rc.keep))
		return
	}
	slog.Info("Finish revisions cleaning", "deleted", deleted)
}

type RulesLogCleaner struct {
	db     *gorm.DB
	maxAge time.Duration
}

func NewRulesLogCleaner(db *gorm.DB, keepDays int) *RulesLogCleaner {
	return &RulesLogCleaner{db, time.Duration(keepDays) * 24 * time.Hour}
}

func (lc *RulesLogCleaner) CleanRulesLog() {
	slog.Info("Start rules log cleaning")
	res := lc.db.Where("created_at < ?", time.Now().Add(-lc.maxAge)).Delete(&dao.RulesLog{})
	if res.Error != nil {
		stack_error.GetError(nil, stack_error.TrackErrorStack(res.Error).AddContext("job", "rules_log_clean"))
		return
	}
	slog.Info("Finish rules log cleaning", "deleted", res.RowsAffected)
}
