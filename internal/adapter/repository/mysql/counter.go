package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"procurement-backend/internal/domain/refcode"
)

// CounterRepository is the database-backed refcode.Sequencer. The upsert takes
// the bucket row lock, so the read-back inside the same transaction sees this
// caller's increment only.
type CounterRepository struct{ db *gorm.DB }

func NewCounterRepository(db *gorm.DB) *CounterRepository { return &CounterRepository{db: db} }

func (r *CounterRepository) Next(ctx context.Context, prefix, datePart string) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := refcode.Counter{Prefix: prefix, DatePart: datePart, Counter: 1}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "prefix"}, {Name: "date_part"}},
			DoUpdates: clause.Assignments(map[string]any{"counter": gorm.Expr("reference_counters.counter + 1")}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		var cur refcode.Counter
		if err := tx.Where("prefix = ? AND date_part = ?", prefix, datePart).First(&cur).Error; err != nil {
			return err
		}
		next = cur.Counter
		return nil
	})
	return next, err
}
