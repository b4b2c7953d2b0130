package collateral

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domain "collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/uow"
	"collateral-service/internal/domain/valuation"
	"collateral-service/internal/usecase/reconcile"
	"collateral-service/pkg/id"

	"github.com/shopspring/decimal"
)

var errNoProvider = fmt.Errorf("%w: provider not configured", errs.ErrUnavailable)

type Usecase struct {
	rec          *reconcile.Reconciler
	repo         domain.Repository
	valuer       valuation.Provider
	titles       title.Registry
	// titleRecords resolves a missing title number from the history.
	titleRecords title.RecordRepository
	log          *slog.Logger
	now          func() time.Time
}

type Option func(*Usecase)

func WithValuationProvider(p valuation.Provider) Option { return func(u *Usecase) { u.valuer = p } }
func WithTitleRegistry(v title.Registry) Option { return func(u *Usecase) { u.titles = v } }
func WithTitleRecords(r title.RecordRepository) Option {
	return func(u *Usecase) { u.titleRecords = r }
}
func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }
func WithLogger(l *slog.Logger) Option {
	return func(u *Usecase) {
		if l != nil {
			u.log = l
		}
	}
}

func NewUsecase(rec *reconcile.Reconciler, repo domain.Repository, opts ...Option) *Usecase {
	u := &Usecase{rec: rec, repo: repo, log: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*domain.Collateral, error) {
	if strings.TrimSpace(in.CustomerID) == "" {
		return nil, errs.Validation("customer_id is required")
	}
	typ, err := domain.ParseType(in.Type)
	if err != nil {
		return nil, err
	}
	if in.MarketValue.IsNegative() {
		return nil, errs.Validation("market_value must not be negative")
	}
	if in.EstimatedValue.IsNegative() {
		return nil, errs.Validation("estimated_value must not be negative")
	}
	status := domain.StatusActive
	if in.Status != "" {
		if status, err = domain.ParseStatus(in.Status); err != nil {
			return nil, err
		}
	}
	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = "USD"
	}

	c := &domain.Collateral{
		CollateralID:       id.NewCollateralID(),
		CustomerID:         in.CustomerID,
		AccountID:          in.AccountID,
		Type:               typ,
		Description:        in.Description,
		EstimatedValue:     in.EstimatedValue,
		MarketValue:        in.MarketValue,
		Currency:           currency,
		Status:             status,
		Location:           in.Location,
		EvaluationDate:     utc(in.EvaluationDate),
		LegalDescription:   in.LegalDescription,
		OwnershipDocuments: in.OwnershipDocuments,
		LastInspectionDate: utc(in.LastInspectionDate),
		RiskRating:         in.RiskRating,
		CreatedBy:          in.CreatedBy,
		UpdatedBy:          in.CreatedBy,
	}
	c.ApplyEncumbered(decimal.Zero)
	if err := u.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "collateral created",
		slog.String("collateral_id", c.CollateralID),
		slog.String("customer_id", c.CustomerID),
		slog.String("market_value", c.MarketValue.String()),
	)
	return c, nil
}

func (u *Usecase) Update(ctx context.Context, collateralID string, in UpdateInput) (*domain.Collateral, error) {
	var status domain.Status
	if in.Status != nil {
		s, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		status = s
	}
	if in.MarketValue != nil && in.MarketValue.IsNegative() {
		return nil, errs.Validation("market_value must not be negative")
	}
	if in.EstimatedValue != nil && in.EstimatedValue.IsNegative() {
		return nil, errs.Validation("estimated_value must not be negative")
	}
	return u.rec.WithinCollateral(ctx, collateralID, func(_ uow.Repos, c *domain.Collateral) error {
		if in.Description != nil {
			c.Description = *in.Description
		}
		if in.EstimatedValue != nil {
			c.EstimatedValue = *in.EstimatedValue
		}
		if in.MarketValue != nil {
			c.MarketValue = *in.MarketValue
		}
		if in.Currency != nil {
			c.Currency = strings.ToUpper(*in.Currency)
		}
		if status != "" {
			c.Status = status
		}
		if in.Location != nil {
			c.Location = *in.Location
		}
		if in.EvaluationDate != nil {
			c.EvaluationDate = utc(in.EvaluationDate)
		}
		if in.LegalDescription != nil {
			c.LegalDescription = *in.LegalDescription
		}
		if in.OwnershipDocuments != nil {
			c.OwnershipDocuments = *in.OwnershipDocuments
		}
		if in.LastInspectionDate != nil {
			c.LastInspectionDate = utc(in.LastInspectionDate)
		}
		if in.RiskRating != nil {
			c.RiskRating = *in.RiskRating
		}
		if in.UpdatedBy != "" {
			c.UpdatedBy = in.UpdatedBy
		}
		return nil
	})
}

// UpdateValue sets the market value and reconciles. A value below the
// encumbered total leaves available value at zero.
func (u *Usecase) UpdateValue(ctx context.Context, collateralID string, marketValue decimal.Decimal, updatedBy string) (*domain.Collateral, error) {
	if marketValue.IsNegative() {
		return nil, errs.Validation("market_value must not be negative")
	}
	c, err := u.rec.WithinCollateral(ctx, collateralID, func(_ uow.Repos, c *domain.Collateral) error {
		c.MarketValue = marketValue
		if updatedBy != "" {
			c.UpdatedBy = updatedBy
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "market value updated",
		slog.String("collateral_id", collateralID),
		slog.String("market_value", marketValue.String()),
	)
	return c, nil
}

// Delete removes the collateral together with its encumbrances.
func (u *Usecase) Delete(ctx context.Context, collateralID string) error {
	n, err := u.rec.Remove(ctx, collateralID)
	if err != nil {
		return err
	}
	u.log.InfoContext(ctx, "collateral deleted",
		slog.String("collateral_id", collateralID),
		slog.Int64("encumbrances_removed", n),
	)
	return nil
}

func (u *Usecase) Reconcile(ctx context.Context, collateralID string) (*domain.Collateral, error) {
	return u.rec.Reconcile(ctx, collateralID)
}

func (u *Usecase) Get(ctx context.Context, collateralID string) (*domain.Collateral, error) {
	return u.repo.GetByCollateralID(ctx, collateralID)
}

func (u *Usecase) ListByCustomer(ctx context.Context, customerID string) ([]domain.Collateral, error) {
	return u.repo.Find(ctx, domain.Filter{CustomerID: customerID})
}

func (u *Usecase) ListByAccount(ctx context.Context, accountID string) ([]domain.Collateral, error) {
	return u.repo.Find(ctx, domain.Filter{AccountID: accountID})
}

func (u *Usecase) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Collateral, error) {
	return u.repo.Find(ctx, domain.Filter{Status: status})
}

// Available lists a customer's collateral with at least minValue available.
func (u *Usecase) Available(ctx context.Context, customerID string, minValue decimal.Decimal) ([]domain.Collateral, error) {
	return u.repo.Find(ctx, domain.Filter{CustomerID: customerID, MinAvailable: &minValue})
}

func (u *Usecase) Encumbered(ctx context.Context) ([]domain.Collateral, error) {
	return u.repo.Find(ctx, domain.Filter{EncumberedOnly: true})
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
