package db

import (
	"errors"
	"path/filepath"
	"testing"

	"collateral-service/internal/domain/collateral"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
)

func TestOpenGormWithDialector_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing()

	// Build a mysql dialector that uses our mocked *sql.DB
	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true, // don't query @@version
	})

	gdb, err := OpenGormWithDialector(dial)
	if err != nil {
		t.Fatalf("OpenGormWithDialector error: %v", err)
	}
	if gdb == nil {
		t.Fatalf("got nil gorm.DB")
	}
	if !gdb.Config.TranslateError {
		t.Fatalf("TranslateError must be on")
	}
	if !gdb.Config.DisableAutomaticPing {
		t.Fatalf("gorm must not ping on its own; OpenGormWithDialector pings once")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenGormWithDialector_PingFails(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(errors.New("no ping"))

	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	gdb, err := OpenGormWithDialector(dial, Options{Debug: true})
	if err == nil {
		t.Fatalf("expected error, got nil (gdb=%v)", gdb)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDialector(t *testing.T) {
	if d, err := Dialector("mysql", "u:p@tcp(h:3306)/db"); err != nil || d.Name() != "mysql" {
		t.Fatalf("mysql: %v %v", d, err)
	}
	if d, err := Dialector("sqlite", "x.db"); err != nil || d.Name() != "sqlite" {
		t.Fatalf("sqlite: %v %v", d, err)
	}
	if _, err := Dialector("postgres", ""); err == nil {
		t.Fatalf("want error for unsupported driver")
	}
}

func TestOpenGorm_SQLiteAndMigrate(t *testing.T) {
	gdb, err := OpenGorm(Options{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "collateral.db")})
	if err != nil {
		t.Fatalf("OpenGorm: %v", err)
	}
	sqlDB, _ := gdb.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(gdb); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// idempotent
	if err := Migrate(gdb); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	for _, table := range []string{"collateral", "encumbrance", "valuation_record", "title_record"} {
		if !gdb.Migrator().HasTable(table) {
			t.Fatalf("table %s not created", table)
		}
	}
	c := collateral.Collateral{
		CollateralID: "COL-0000000A", CustomerID: "C", Type: collateral.TypeVehicle,
		MarketValue: decimal.NewFromInt(100), AvailableValue: decimal.NewFromInt(100),
		Currency: "USD", Status: collateral.StatusActive,
	}
	if err := gdb.Create(&c).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got collateral.Collateral
	if err := gdb.Where("collateral_id = ?", c.CollateralID).First(&got).Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !got.MarketValue.Equal(c.MarketValue) {
		t.Fatalf("market value = %s", got.MarketValue)
	}
}
