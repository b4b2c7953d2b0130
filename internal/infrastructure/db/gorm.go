package db

import (
	"fmt"
	"log/slog"
	"time"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/encumbrance"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/valuation"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	// Driver is "mysql" or "sqlite".
	Driver string
	// DSN is the MySQL DSN or the SQLite file path.
	DSN   string
	Debug bool
	Log   *slog.Logger
}

// Dialector picks the gorm dialector for the configured driver.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func OpenGorm(opts Options) (*gorm.DB, error) {
	dial, err := Dialector(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}
	db, err := OpenGormWithDialector(dial, opts)
	if err != nil {
		return nil, err
	}
	if opts.Driver == "sqlite" {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY
		sqlDB, _ := db.DB()
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenGormWithDialector opens, tunes the pool and pings. Driver errors are
// translated into gorm's portable errors (gorm.ErrDuplicatedKey, ...).
func OpenGormWithDialector(dial gorm.Dialector, opts ...Options) (*gorm.DB, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	log := o.Log
	if log == nil {
		log = slog.Default()
	}
	// the only ping is the explicit one below, after the pool is tuned
	cfg := &gorm.Config{
		TranslateError:       true,
		DisableAutomaticPing: true,
		Logger:               newLogger(log, o.Debug),
	}
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
	log.Info("gorm: connected", slog.String("dialect", dial.Name()))
	return db, nil
}

// newLogger routes gorm's logger through slog. Record-not-found is an
// expected outcome here and never logged.
func newLogger(log *slog.Logger, debug bool) logger.Interface {
	level, slogLevel := logger.Warn, slog.LevelWarn
	if debug {
		level, slogLevel = logger.Info, slog.LevelDebug
	}
	return logger.New(slog.NewLogLogger(log.Handler(), slogLevel), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate creates or updates the collateral, encumbrance and history tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&collateral.Collateral{},
		&encumbrance.Encumbrance{},
		&valuation.Record{},
		&title.Record{},
	)
}
