package mysql

import (
	"errors"

	"collateral-service/internal/domain/errs"

	"gorm.io/gorm"
)

// translate maps driver errors onto the domain error kinds. notFound is the
// aggregate's own not-found sentinel. Anything unrecognised, including a
// cancelled or expired context, is retryable.
func translate(op string, err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.Conflict("%s: duplicate key", op)
	}
	return errs.Unavailable(op, err)
}
