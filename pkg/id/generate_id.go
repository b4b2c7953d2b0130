package id

import (
	"strings"

	"github.com/google/uuid"
)

const (
	PrefixCollateral  = "COL"
	PrefixEncumbrance = "ENC"
	PrefixValuation   = "VAL"
	PrefixTitle       = "TTL"
)

// New returns a public identifier of the form PREFIX-XXXXXXXX, where X is
// uppercase hex taken from a random (v4) UUID.
func New(prefix string) string {
	u := uuid.New()
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(u.String(), "-", "")[:8])
}

// NewCollateralID returns a fresh COL-XXXXXXXX identifier.
func NewCollateralID() string { return New(PrefixCollateral) }

// NewEncumbranceID returns a fresh ENC-XXXXXXXX identifier.
func NewEncumbranceID() string { return New(PrefixEncumbrance) }

func NewValuationID() string { return New(PrefixValuation) }

func NewTitleID() string { return New(PrefixTitle) }
