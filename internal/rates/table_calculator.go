package rates

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	enrollmentdomain "github.com/mustafamuse/irshad-center-sub014/internal/enrollment/domain"
	"github.com/mustafamuse/irshad-center-sub014/internal/program"
)

const rateCacheTTL = 5 * time.Minute

type cacheEntry struct {
	rateCode  string
	expiresAt time.Time
}

// TableCalculator resolves each funded profile's rate code and sums the
// published rate per program. Rate codes are cached briefly; the table is
// immutable after construction.
type TableCalculator struct {
	table    Table
	profiles enrollmentdomain.Store

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

func NewTableCalculator(table Table, profiles enrollmentdomain.Store) *TableCalculator {
	if table == nil {
		table = DefaultTable()
	}
	return &TableCalculator{
		table:    table,
		profiles: profiles,
		cache:    make(map[string]cacheEntry),
	}
}

func (c *TableCalculator) ExpectedCharge(ctx context.Context, db *gorm.DB, p program.Program, profileIDs []string) (int64, bool, error) {
	if len(profileIDs) == 0 {
		return 0, false, nil
	}
	programRates, ok := c.table[p]
	if !ok {
		return 0, false, nil
	}

	var total int64
	for _, profileID := range profileIDs {
		rateCode, found, err := c.rateCode(ctx, db, profileID)
		if err != nil {
			return 0, false, err
		}
		if !found {
			return 0, false, nil
		}
		amount, ok := programRates[rateCode]
		if !ok {
			return 0, false, nil
		}
		total += amount
	}
	return total, true, nil
}

func (c *TableCalculator) rateCode(ctx context.Context, db *gorm.DB, profileID string) (string, bool, error) {
	c.mu.RLock()
	entry, ok := c.cache[profileID]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.rateCode, true, nil
	}

	enrollment, err := c.profiles.GetActiveEnrollment(ctx, db, profileID)
	if errors.Is(err, enrollmentdomain.ErrEnrollmentNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if enrollment.RateCode == "" {
		return "", false, nil
	}

	c.mu.Lock()
	c.cache[profileID] = cacheEntry{
		rateCode:  enrollment.RateCode,
		expiresAt: time.Now().Add(rateCacheTTL),
	}
	c.mu.Unlock()
	return enrollment.RateCode, true, nil
}
