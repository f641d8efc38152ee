package refcode

import "context"

// Table: reference_counters. One row per (prefix, date) bucket.
type Counter struct {
	ID       uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Prefix   string `gorm:"column:prefix;size:16;not null;uniqueIndex:ux_reference_counters_bucket,priority:1"`
	DatePart string `gorm:"column:date_part;size:8;not null;uniqueIndex:ux_reference_counters_bucket,priority:2"`
	Counter  int64  `gorm:"column:counter;not null"`
}

func (Counter) TableName() string { return "reference_counters" }

// Sequencer hands out the next counter value for a bucket. Two callers must
// never receive the same value.
type Sequencer interface {
	Next(ctx context.Context, prefix, datePart string) (int64, error)
}
