package records

import (
	"context"
	"log/slog"
	"strings"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/uow"
	"collateral-service/pkg/id"
)

func (u *Usecase) CreateTitle(ctx context.Context, in TitleInput) (*title.Record, error) {
	if strings.TrimSpace(in.CollateralID) == "" {
		return nil, errs.Validation("collateral_id is required")
	}
	status := title.StatusPendingVerification
	if in.Status != "" {
		s, err := title.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = s
	}
	t := &title.Record{
		TitleID:          id.NewTitleID(),
		CollateralID:     in.CollateralID,
		TitleNumber:      strings.TrimSpace(in.TitleNumber),
		LegalDescription: in.LegalDescription,
		Status:           status,
		CurrentOwner:     in.CurrentOwner,
		PreviousOwner:    in.PreviousOwner,
		RegistrationDate: utc(in.RegistrationDate),
		Valid:            in.Valid,
		VerificationDate: utc(in.VerificationDate),
		Notes:            in.Notes,
		CreatedBy:        in.CreatedBy,
		UpdatedBy:        in.CreatedBy,
	}
	if t.VerificationDate == nil && status == title.StatusVerified {
		now := u.now().UTC()
		t.VerificationDate = &now
	}

	err := u.within(ctx, in.CollateralID, func(r uow.Repos, c *collateral.Collateral) error {
		if t.LegalDescription == "" {
			t.LegalDescription = c.LegalDescription
		}
		return r.Titles.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "title recorded",
		slog.String("title_id", t.TitleID),
		slog.String("collateral_id", t.CollateralID),
		slog.String("status", string(t.Status)),
	)
	return t, nil
}

func (u *Usecase) GetTitle(ctx context.Context, titleID string) (*title.Record, error) {
	return u.titles.GetByTitleID(ctx, titleID)
}

func (u *Usecase) UpdateTitle(ctx context.Context, titleID string, in TitleUpdate) (*title.Record, error) {
	found, err := u.titles.GetByTitleID(ctx, titleID)
	if err != nil {
		return nil, err
	}
	var out *title.Record
	err = u.within(ctx, found.CollateralID, func(r uow.Repos, _ *collateral.Collateral) error {
		t, err := r.Titles.GetByTitleID(ctx, titleID)
		if err != nil {
			return err
		}
		if in.Status != nil {
			s, err := title.ParseStatus(*in.Status)
			if err != nil {
				return err
			}
			t.Status = s
		}
		if in.TitleNumber != nil {
			t.TitleNumber = strings.TrimSpace(*in.TitleNumber)
		}
		if in.LegalDescription != nil {
			t.LegalDescription = *in.LegalDescription
		}
		if in.CurrentOwner != nil && *in.CurrentOwner != t.CurrentOwner {
			if in.PreviousOwner == nil && t.CurrentOwner != "" {
				t.PreviousOwner = t.CurrentOwner
			}
			t.CurrentOwner = *in.CurrentOwner
		}
		if in.PreviousOwner != nil {
			t.PreviousOwner = *in.PreviousOwner
		}
		if in.RegistrationDate != nil {
			t.RegistrationDate = utc(in.RegistrationDate)
		}
		if in.Valid != nil {
			t.Valid = *in.Valid
		}
		if in.VerificationDate != nil {
			t.VerificationDate = utc(in.VerificationDate)
		}
		if in.Notes != nil {
			t.Notes = *in.Notes
		}
		if in.UpdatedBy != "" {
			t.UpdatedBy = in.UpdatedBy
		}
		out = t
		return r.Titles.Save(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) DeleteTitle(ctx context.Context, titleID string) error {
	found, err := u.titles.GetByTitleID(ctx, titleID)
	if err != nil {
		return err
	}
	err = u.within(ctx, found.CollateralID, func(r uow.Repos, _ *collateral.Collateral) error {
		return r.Titles.Delete(ctx, titleID)
	})
	if err != nil {
		return err
	}
	u.log.InfoContext(ctx, "title record deleted",
		slog.String("title_id", titleID),
		slog.String("collateral_id", found.CollateralID),
	)
	return nil
}

// TitleByNumber returns the newest record carrying the number.
func (u *Usecase) TitleByNumber(ctx context.Context, titleNumber string) (*title.Record, error) {
	n := strings.TrimSpace(titleNumber)
	if n == "" {
		return nil, errs.Validation("title_number is required")
	}
	return u.first(ctx, title.RecordFilter{TitleNumber: n})
}

func (u *Usecase) TitlesByCollateral(ctx context.Context, collateralID string) ([]title.Record, error) {
	return u.titles.Find(ctx, title.RecordFilter{CollateralID: collateralID})
}

func (u *Usecase) LatestTitle(ctx context.Context, collateralID string) (*title.Record, error) {
	return u.first(ctx, title.RecordFilter{CollateralID: collateralID})
}

func (u *Usecase) TitlesByOwner(ctx context.Context, owner string) ([]title.Record, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, errs.Validation("owner is required")
	}
	return u.titles.Find(ctx, title.RecordFilter{Owner: owner})
}

// VerifiedTitlesByOwner keeps the owner's VERIFIED records flagged valid.
func (u *Usecase) VerifiedTitlesByOwner(ctx context.Context, owner string) ([]title.Record, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, errs.Validation("owner is required")
	}
	return u.titles.Find(ctx, title.RecordFilter{Owner: owner, UsableOnly: true})
}

func (u *Usecase) TitlesByStatus(ctx context.Context, raw string) ([]title.Record, error) {
	s, err := title.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	return u.titles.Find(ctx, title.RecordFilter{Status: s})
}

// ValidTitles lists every VERIFIED record flagged valid.
func (u *Usecase) ValidTitles(ctx context.Context) ([]title.Record, error) {
	return u.titles.Find(ctx, title.RecordFilter{UsableOnly: true})
}

func (u *Usecase) first(ctx context.Context, f title.RecordFilter) (*title.Record, error) {
	all, err := u.titles.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, title.ErrRecordNotFound
	}
	return &all[0], nil
}
