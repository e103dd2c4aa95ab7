package core

import (
	"errors"
	"fmt"
	"time"
)

// SmartCardRate is the fee in Kyat collected for every smart card issued.
const SmartCardRate int64 = 10000

// DateLayout is the ISO calendar date format used for Record.Date.
const DateLayout = "2006-01-02"

// AllTownships is the township filter sentinel meaning "no restriction".
const AllTownships = "All"

// Townships lists the recognised townships in display order. The first entry
// is the default township of the entry form.
var Townships = []string{
	"နမ့်ဆန်",
	"မန်တုံ",
	"နမ့်ခမ်း",
	"ကွတ်ခိုင်",
	"မန်ပန်",
}

type (
	// Record is one daily township immigration-statistics entry. Records are
	// immutable once built; Revenue is fixed at creation and never recomputed.
	Record struct {
		ID        int64  `json:"id"`
		Date      string `json:"date"`
		Township  string `json:"township"`
		Household int64  `json:"household"`
		Male      int64  `json:"male"`
		Female    int64  `json:"female"`
		SmartCard int64  `json:"smart_card"`
		Taang     int64  `json:"taang"`
		Shan      int64  `json:"shan"`
		Bamar     int64  `json:"bamar"`
		Revenue   int64  `json:"revenue"`
	}
)

var (
	ErrNegativeCount = errors.New("negative count")
	ErrDuplicateID   = errors.New("duplicate record id")
	ErrCountTooLarge = errors.New("count too large")
)

// Population returns male + female. It is derived on demand, never stored.
func (r Record) Population() int64 {
	return r.Male + r.Female
}

// Time parses Date. ok is false when Date is not a valid calendar date.
func (r Record) Time() (t time.Time, ok bool) {
	t, err := time.Parse(DateLayout, r.Date)
	return t, err == nil
}

// Validate reports the first count field that is negative or above MaxCount.
// Revenue may reach MaxCount smart cards at SmartCardRate.
func (r Record) Validate() error {
	counts := []struct {
		name  string
		value int64
		limit int64
	}{
		{"household", r.Household, MaxCount},
		{"male", r.Male, MaxCount},
		{"female", r.Female, MaxCount},
		{"smart_card", r.SmartCard, MaxCount},
		{"taang", r.Taang, MaxCount},
		{"shan", r.Shan, MaxCount},
		{"bamar", r.Bamar, MaxCount},
		{"revenue", r.Revenue, MaxCount * SmartCardRate},
	}
	for _, c := range counts {
		if c.value < 0 {
			return fmt.Errorf("%s: %w", c.name, ErrNegativeCount)
		}
		if c.value > c.limit {
			return fmt.Errorf("%s: %w", c.name, ErrCountTooLarge)
		}
	}
	return nil
}

// ValidateCollection checks every record and that ids are unique.
func ValidateCollection(records []Record) error {
	seen := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", r.ID, err)
		}
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("record %d: %w", r.ID, ErrDuplicateID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// IsKnownTownship reports whether name is one of Townships.
func IsKnownTownship(name string) bool {
	for _, t := range Townships {
		if t == name {
			return true
		}
	}
	return false
}

// DefaultTownship is the township preselected by the entry form.
func DefaultTownship() string {
	return Townships[0]
}
