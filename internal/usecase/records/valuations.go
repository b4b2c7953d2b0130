package records

import (
	"context"
	"log/slog"
	"strings"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/uow"
	"collateral-service/internal/domain/valuation"
	"collateral-service/pkg/id"

	"github.com/shopspring/decimal"
)

// CreateValuation adds a MANUAL entry to the history. It does not change the
// collateral's market value; that goes through the value update.
func (u *Usecase) CreateValuation(ctx context.Context, in ValuationInput) (*valuation.Record, error) {
	if strings.TrimSpace(in.CollateralID) == "" {
		return nil, errs.Validation("collateral_id is required")
	}
	status := valuation.RecordCompleted
	if in.Status != "" {
		s, err := valuation.ParseRecordStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = s
	}
	if err := checkRange(in.EstimatedValue, in.LowRange, in.HighRange, in.Confidence); err != nil {
		return nil, err
	}
	now := u.now().UTC()
	v := &valuation.Record{
		ValuationID:    id.NewValuationID(),
		CollateralID:   in.CollateralID,
		Source:         valuation.SourceManual,
		Type:           strings.ToUpper(strings.TrimSpace(in.Type)),
		Location:       in.Location,
		Description:    in.Description,
		Status:         status,
		EstimatedValue: in.EstimatedValue,
		LowRange:       in.LowRange,
		HighRange:      in.HighRange,
		Currency:       strings.ToUpper(in.Currency),
		Methodology:    in.Methodology,
		Confidence:     in.Confidence,
		Reason:         in.Reason,
		RequestDate:    now,
		Message:        in.Message,
		CreatedBy:      in.CreatedBy,
		UpdatedBy:      in.CreatedBy,
	}
	if in.ValuationDate != nil {
		at := in.ValuationDate.UTC()
		v.ValuationDate = &at
	} else if status == valuation.RecordCompleted {
		v.ValuationDate = &now
	}

	err := u.within(ctx, in.CollateralID, func(r uow.Repos, c *collateral.Collateral) error {
		if v.Type == "" {
			v.Type = string(c.Type)
		}
		if v.Location == "" {
			v.Location = c.Location
		}
		if v.Currency == "" {
			v.Currency = c.Currency
		}
		v.PreviousValue = c.MarketValue
		return r.Valuations.Create(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "valuation recorded",
		slog.String("valuation_id", v.ValuationID),
		slog.String("collateral_id", v.CollateralID),
		slog.String("status", string(v.Status)),
	)
	return v, nil
}

func (u *Usecase) GetValuation(ctx context.Context, valuationID string) (*valuation.Record, error) {
	return u.valuations.GetByValuationID(ctx, valuationID)
}

func (u *Usecase) UpdateValuation(ctx context.Context, valuationID string, in ValuationUpdate) (*valuation.Record, error) {
	found, err := u.valuations.GetByValuationID(ctx, valuationID)
	if err != nil {
		return nil, err
	}
	var out *valuation.Record
	err = u.within(ctx, found.CollateralID, func(r uow.Repos, _ *collateral.Collateral) error {
		v, err := r.Valuations.GetByValuationID(ctx, valuationID)
		if err != nil {
			return err
		}
		if in.Status != nil {
			s, err := valuation.ParseRecordStatus(*in.Status)
			if err != nil {
				return err
			}
			v.Status = s
		}
		if in.EstimatedValue != nil {
			v.EstimatedValue = *in.EstimatedValue
		}
		if in.LowRange != nil {
			v.LowRange = *in.LowRange
		}
		if in.HighRange != nil {
			v.HighRange = *in.HighRange
		}
		if in.Confidence != nil {
			v.Confidence = *in.Confidence
		}
		if err := checkRange(v.EstimatedValue, v.LowRange, v.HighRange, v.Confidence); err != nil {
			return err
		}
		if in.Methodology != nil {
			v.Methodology = *in.Methodology
		}
		if in.ValuationDate != nil {
			at := in.ValuationDate.UTC()
			v.ValuationDate = &at
		}
		if in.Message != nil {
			v.Message = *in.Message
		}
		if in.UpdatedBy != "" {
			v.UpdatedBy = in.UpdatedBy
		}
		out = v
		return r.Valuations.Save(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) DeleteValuation(ctx context.Context, valuationID string) error {
	found, err := u.valuations.GetByValuationID(ctx, valuationID)
	if err != nil {
		return err
	}
	err = u.within(ctx, found.CollateralID, func(r uow.Repos, _ *collateral.Collateral) error {
		return r.Valuations.Delete(ctx, valuationID)
	})
	if err != nil {
		return err
	}
	u.log.InfoContext(ctx, "valuation record deleted",
		slog.String("valuation_id", valuationID),
		slog.String("collateral_id", found.CollateralID),
	)
	return nil
}

func (u *Usecase) ValuationsByCollateral(ctx context.Context, collateralID string) ([]valuation.Record, error) {
	return u.valuations.Find(ctx, valuation.RecordFilter{CollateralID: collateralID})
}

func (u *Usecase) ValuationsByType(ctx context.Context, typ string) ([]valuation.Record, error) {
	if strings.TrimSpace(typ) == "" {
		return nil, errs.Validation("type is required")
	}
	return u.valuations.Find(ctx, valuation.RecordFilter{Type: typ})
}

func (u *Usecase) ValuationsByLocation(ctx context.Context, location string) ([]valuation.Record, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errs.Validation("location is required")
	}
	return u.valuations.Find(ctx, valuation.RecordFilter{Location: location})
}

func (u *Usecase) ValuationsByStatus(ctx context.Context, raw string) ([]valuation.Record, error) {
	s, err := valuation.ParseRecordStatus(raw)
	if err != nil {
		return nil, err
	}
	return u.valuations.Find(ctx, valuation.RecordFilter{Status: s})
}

// LatestValuation is the newest entry of any status.
func (u *Usecase) LatestValuation(ctx context.Context, collateralID string) (*valuation.Record, error) {
	all, err := u.valuations.Find(ctx, valuation.RecordFilter{CollateralID: collateralID})
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, valuation.ErrRecordNotFound
	}
	return &all[0], nil
}

func checkRange(estimated, low, high decimal.Decimal, confidence float64) error {
	if estimated.IsNegative() || low.IsNegative() || high.IsNegative() {
		return errs.Validation("valuation amounts must not be negative")
	}
	if !high.IsZero() && low.GreaterThan(high) {
		return errs.Validation("low_range must not exceed high_range")
	}
	if confidence < 0 || confidence > 1 {
		return errs.Validation("confidence_score must be between 0 and 1")
	}
	return nil
}
