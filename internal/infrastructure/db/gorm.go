package db

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"procurement-backend/internal/config"
	"procurement-backend/internal/domain/budget"
	"procurement-backend/internal/domain/document"
	"procurement-backend/internal/domain/history"
	"procurement-backend/internal/domain/loa"
	"procurement-backend/internal/domain/purchasing"
	"procurement-backend/internal/domain/reason"
	"procurement-backend/internal/domain/refcode"
)

// Open picks the dialector from cfg.DBDriver and applies the pool settings.
func Open(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dial = postgres.Open(cfg.PostgresDSN())
	case "mysql", "":
		dial = mysql.Open(cfg.MySQLDSN())
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
	gdb, err := openGorm(dial, &gorm.Config{Logger: NewLogger(log, logger.Warn)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	log.WithField("driver", cfg.DBDriver).Info("gorm: connected")
	return gdb, nil
}

func OpenGorm(dsn string) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn))
}

// OpenGormWithDialector lets tests hand in a dialector over a fake *sql.DB.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	return openGorm(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
}

func openGorm(dial gorm.Dialector, cfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Models lists every table the service owns, in creation order.
func Models() []any {
	return []any{
		&purchasing.Purchasing{},
		&document.Document{},
		&loa.ChainConfig{},
		&refcode.Counter{},
		&budget.Budget{},
		&budget.Availment{},
		&reason.RejectionReason{},
		&history.Action{},
	}
}

// Migrate creates or widens the tables. It never drops columns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// NewLogger routes gorm's statements and errors through logrus.
func NewLogger(log logrus.FieldLogger, level logger.LogLevel) logger.Interface {
	return logger.New(gormWriter{log: log.WithField("component", "gorm")}, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

type gormWriter struct{ log logrus.FieldLogger }

func (w gormWriter) Printf(format string, args ...any) { w.log.Infof(format, args...) }
