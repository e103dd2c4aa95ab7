package core

import (
	"strings"
	"time"
)

// FormInput holds the raw values of the data-entry form. Counts stay raw
// until BuildRecord coerces them.
type FormInput struct {
	Date      string   `json:"date"`
	Township  string   `json:"township"`
	Household RawCount `json:"household"`
	Male      RawCount `json:"male"`
	Female    RawCount `json:"female"`
	SmartCard RawCount `json:"smart_card"`
	Taang     RawCount `json:"taang"`
	Shan      RawCount `json:"shan"`
	Bamar     RawCount `json:"bamar"`
}

// Preview is what the form shows before submission. None of it is stored.
type Preview struct {
	TotalPop         int64
	EstimatedRevenue int64
}

// Preview derives the live totals for the current form values.
func (in FormInput) Preview() Preview {
	smartCards := in.SmartCard.Value()
	return Preview{
		TotalPop:         in.Male.Value() + in.Female.Value(),
		EstimatedRevenue: smartCards * SmartCardRate,
	}
}

// Builder turns form input into records.
type Builder struct {
	IDs IDSource
	// Now supplies the fallback date; time.Now when nil.
	Now func() time.Time
}

// NewBuilder returns a Builder drawing ids from ids.
func NewBuilder(ids IDSource) *Builder {
	return &Builder{IDs: ids}
}

// Build normalises in into a Record. It never fails: unusable counts become
// zero, a missing or malformed date becomes today and a blank township
// becomes DefaultTownship.
func (b *Builder) Build(in FormInput) Record {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}

	date := strings.TrimSpace(in.Date)
	if _, err := time.Parse(DateLayout, date); err != nil {
		date = now().Format(DateLayout)
	}

	township := strings.TrimSpace(in.Township)
	if township == "" {
		township = DefaultTownship()
	}

	smartCards := in.SmartCard.Value()
	return Record{
		ID:        b.IDs.NextID(),
		Date:      date,
		Township:  township,
		Household: in.Household.Value(),
		Male:      in.Male.Value(),
		Female:    in.Female.Value(),
		SmartCard: smartCards,
		Taang:     in.Taang.Value(),
		Shan:      in.Shan.Value(),
		Bamar:     in.Bamar.Value(),
		Revenue:   smartCards * SmartCardRate,
	}
}

// BuildRecord is Build with a one-off Builder.
func BuildRecord(in FormInput, ids IDSource) Record {
	return NewBuilder(ids).Build(in)
}
