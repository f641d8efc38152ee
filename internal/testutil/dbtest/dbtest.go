// Package dbtest opens migrated in-memory SQLite databases and seeds the
// reference rows the workflow needs.
package dbtest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"procurement-backend/internal/domain/budget"
	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/domain/loa"
	"procurement-backend/internal/domain/reason"
	"procurement-backend/internal/infrastructure/db"
)

// Open returns a fresh schema on a single connection, so transactions
// serialize the way row locks would on MySQL.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "open sqlite")
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb), "migrate")
	return gdb
}

func Ptr[T any](v T) *T { return &v }

func Dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Band is a shorthand for one loa row; empty ids leave the slot unset.
type Band struct {
	Type       document.Type
	DivisionID *uint64
	Min        string
	Max        string // empty: unbounded
	Reviewer1  string
	Reviewer2  string
	Approver1  string
	Approver2  string
	Approver3  string
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func SeedBand(t testing.TB, gdb *gorm.DB, b Band) *loa.ChainConfig {
	t.Helper()
	def, ok := document.Lookup(b.Type)
	require.True(t, ok, "unknown type %q", b.Type)
	row := &loa.ChainConfig{
		SubModuleID: def.SubModuleID,
		DivisionID:  b.DivisionID,
		Level:       1,
		MinAmount:   Dec(b.Min),
		Reviewer1ID: optional(b.Reviewer1),
		Reviewer2ID: optional(b.Reviewer2),
		Approver1ID: optional(b.Approver1),
		Approver2ID: optional(b.Approver2),
		Approver3ID: optional(b.Approver3),
		Active:      true,
	}
	if b.Max != "" {
		row.MaxAmount = Ptr(Dec(b.Max))
	}
	require.NoError(t, gdb.WithContext(context.Background()).Create(row).Error)
	return row
}

func SeedReason(t testing.TB, gdb *gorm.DB, label string, active bool) *reason.RejectionReason {
	t.Helper()
	r := &reason.RejectionReason{Label: label, Active: true}
	require.NoError(t, gdb.Create(r).Error)
	if !active {
		// the column default would swallow a false on insert
		require.NoError(t, gdb.Model(r).Update("active", false).Error)
		r.Active = false
	}
	return r
}

// SeedBudget approves amount for one month of (division, year, coa).
func SeedBudget(t testing.TB, gdb *gorm.DB, divisionID uint64, year, month int, coaID uint64, amount string) {
	t.Helper()
	col, ok := budget.MonthColumn(month)
	require.True(t, ok)
	b := &budget.Budget{DivisionID: divisionID, Year: year, ChartOfAccountID: coaID}
	require.NoError(t, gdb.Create(b).Error)
	require.NoError(t, gdb.Model(b).Update(col, Dec(amount)).Error)
}
