package rates

import (
	"context"

	"gorm.io/gorm"

	"github.com/mustafamuse/irshad-center-sub014/internal/program"
)

// Calculator computes the expected recurring charge for a set of funded
// profiles. It is a read-only collaborator of the reconciliation engine.
type Calculator interface {
	// ExpectedCharge returns the expected total in minor units. The second
	// return reports whether an expectation exists at all: profiles with no
	// active enrollment or no published rate yield no expectation rather
	// than a zero one.
	ExpectedCharge(ctx context.Context, db *gorm.DB, p program.Program, profileIDs []string) (int64, bool, error)
}

// Table maps a program and rate code to a monthly amount in minor units.
type Table map[program.Program]map[string]int64

// DefaultTable returns the published tuition rates.
func DefaultTable() Table {
	return Table{
		program.Dugsi: {
			"standard": 15000,
			"reduced":  10000,
			"sibling":  12500,
		},
		program.Mahad: {
			"standard": 20000,
			"reduced":  15000,
			"sibling":  17500,
		},
	}
}
