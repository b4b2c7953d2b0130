package mysql

import (
	"fmt"
	"testing"
	"time"

	collateralDomain "collateral-service/internal/domain/collateral"
	encumbranceDomain "collateral-service/internal/domain/encumbrance"
	titleDomain "collateral-service/internal/domain/title"
	valuationDomain "collateral-service/internal/domain/valuation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a private shared-cache in-memory database so every pooled
// connection sees the same schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&collateralDomain.Collateral{},
		&encumbranceDomain.Encumbrance{},
		&valuationDomain.Record{},
		&titleDomain.Record{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func makeCollateral(collateralID, customerID, market string) *collateralDomain.Collateral {
	return &collateralDomain.Collateral{
		CollateralID:    collateralID,
		CustomerID:      customerID,
		AccountID:       "ACC-" + customerID,
		Type:            collateralDomain.TypeVehicle,
		MarketValue:     dec(market),
		EstimatedValue:  dec(market),
		AvailableValue:  dec(market),
		EncumberedValue: decimal.Zero,
		Currency:        "USD",
		Status:          collateralDomain.StatusActive,
	}
}

func makeEncumbrance(encID, collateralID, amount string, status encumbranceDomain.Status) *encumbranceDomain.Encumbrance {
	return &encumbranceDomain.Encumbrance{
		EncumbranceID: encID,
		CollateralID:  collateralID,
		LoanID:        "LN-" + encID,
		CustomerID:    "CUST-1",
		Amount:        dec(amount),
		Currency:      "USD",
		Type:          encumbranceDomain.TypeLien,
		Status:        status,
		EffectiveDate: time.Now().UTC(),
	}
}
