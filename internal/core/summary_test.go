package core

import (
	"math"
	"math/rand"
	"testing"
)

func TestAggregateSeed(t *testing.T) {
	s := Aggregate(SeedRecords())

	if s.RecordCount != 3 {
		t.Fatalf("record count = %d", s.RecordCount)
	}
	if s.TotalHousehold != 18 {
		t.Fatalf("household = %d, want 18", s.TotalHousehold)
	}
	if s.TotalPop != 99 {
		t.Fatalf("population = %d, want 99", s.TotalPop)
	}
	if s.TotalMale != 45 || s.TotalFemale != 54 {
		t.Fatalf("male/female = %d/%d", s.TotalMale, s.TotalFemale)
	}
	if s.TotalSmartCard != 35 {
		t.Fatalf("smart cards = %d, want 35", s.TotalSmartCard)
	}
	if s.TotalRevenue != 350000 {
		t.Fatalf("revenue = %d, want 350000", s.TotalRevenue)
	}
	if s.TotalTaang != 85 || s.TotalShan != 14 || s.TotalBamar != 0 {
		t.Fatalf("ethnicity = %d/%d/%d", s.TotalTaang, s.TotalShan, s.TotalBamar)
	}

	if len(s.Townships) != len(Townships) {
		t.Fatalf("townships = %d, want %d", len(s.Townships), len(Townships))
	}
	if s.MaxTownshipPop != 82 {
		t.Fatalf("max township pop = %d, want 82", s.MaxTownshipPop)
	}
	want := map[string]struct{ pop, pct int64 }{
		"နမ့်ဆန်":   {82, 100},
		"မန်တုံ":    {17, 20},
		"နမ့်ခမ်း":  {0, MinBarPercent},
		"ကွတ်ခိုင်": {0, MinBarPercent},
		"မန်ပန်":    {0, MinBarPercent},
	}
	for i, tt := range s.Townships {
		if tt.Name != Townships[i] {
			t.Fatalf("township %d = %q, want %q", i, tt.Name, Townships[i])
		}
		w := want[tt.Name]
		if tt.Population != w.pop || tt.BarPercent != w.pct {
			t.Fatalf("%s: pop=%d pct=%d, want pop=%d pct=%d", tt.Name, tt.Population, tt.BarPercent, w.pop, w.pct)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	if s.RecordCount != 0 || s.TotalHousehold != 0 || s.TotalPop != 0 || s.TotalSmartCard != 0 || s.TotalRevenue != 0 {
		t.Fatalf("expected zero totals, got %+v", s)
	}
	if s.MaxTownshipPop != 1 {
		t.Fatalf("max township pop = %d, want 1", s.MaxTownshipPop)
	}
	for _, tt := range s.Townships {
		if tt.Population != 0 || tt.BarPercent != MinBarPercent {
			t.Fatalf("unexpected township total %+v", tt)
		}
	}
}

func TestAggregateLargeCounts(t *testing.T) {
	records := []Record{
		{ID: 1, Township: Townships[0], Male: MaxCount, Female: MaxCount, Revenue: MaxCount * SmartCardRate},
		{ID: 2, Township: Townships[1], Male: MaxCount, Female: MaxCount/2 - 1},
	}
	s := Aggregate(records)
	if s.TotalPop != 4*MaxCount-MaxCount/2-1 {
		t.Fatalf("total pop = %d", s.TotalPop)
	}
	if s.Townships[0].BarPercent != 100 || s.Townships[1].BarPercent != 74 {
		t.Fatalf("bars = %d, %d", s.Townships[0].BarPercent, s.Townships[1].BarPercent)
	}

	// Sums saturate instead of wrapping.
	huge := []Record{
		{ID: 1, Township: Townships[0], Male: math.MaxInt64 - 1, Revenue: math.MaxInt64},
		{ID: 2, Township: Townships[1], Male: 5, Revenue: 5},
	}
	s = Aggregate(huge)
	if s.TotalPop != math.MaxInt64 || s.TotalRevenue != math.MaxInt64 {
		t.Fatalf("totals wrapped: pop = %d revenue = %d", s.TotalPop, s.TotalRevenue)
	}
	if s.Townships[0].BarPercent != 100 || s.Townships[1].BarPercent != MinBarPercent {
		t.Fatalf("bars = %d, %d", s.Townships[0].BarPercent, s.Townships[1].BarPercent)
	}
}

func TestAggregateIgnoresUnknownTownshipsInBars(t *testing.T) {
	records := []Record{
		{ID: 1, Township: "Lashio", Male: 100, Female: 100},
		{ID: 2, Township: "မန်ပန်", Male: 1, Female: 1},
	}
	s := Aggregate(records)
	if s.TotalPop != 202 {
		t.Fatalf("total pop = %d, want 202", s.TotalPop)
	}
	if s.MaxTownshipPop != 2 {
		t.Fatalf("max township pop = %d, want 2", s.MaxTownshipPop)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	records := append(SeedRecords(),
		Record{ID: 4, Township: "နမ့်ခမ်း", Household: 4, Male: 9, Female: 2, SmartCard: 3, Revenue: 30000},
		Record{ID: 5, Township: "မန်ပန်", Household: 1, Male: 1, Female: 1, SmartCard: 0},
	)
	want := Aggregate(records)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]Record(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Aggregate(shuffled)
		if got.TotalPop != want.TotalPop || got.TotalRevenue != want.TotalRevenue ||
			got.TotalHousehold != want.TotalHousehold || got.MaxTownshipPop != want.MaxTownshipPop {
			t.Fatalf("aggregate depends on order: %+v vs %+v", got, want)
		}
		for j := range got.Townships {
			if got.Townships[j] != want.Townships[j] {
				t.Fatalf("township totals depend on order")
			}
		}
	}
}

func TestAggregateRecomputesAfterMutation(t *testing.T) {
	records := SeedRecords()
	before := Aggregate(records)

	added := Record{ID: 9, Township: "မန်တုံ", Male: 3, Female: 4}
	records = append([]Record{added}, records...)
	if got := Aggregate(records).TotalPop; got != before.TotalPop+7 {
		t.Fatalf("after insert total pop = %d, want %d", got, before.TotalPop+7)
	}

	records = records[1:]
	if got := Aggregate(records).TotalPop; got != before.TotalPop {
		t.Fatalf("after delete total pop = %d, want %d", got, before.TotalPop)
	}
}

func TestPopulationOn(t *testing.T) {
	records := SeedRecords()
	if got := PopulationOn(records, "2025-12-16"); got != 44 {
		t.Fatalf("population on 2025-12-16 = %d, want 44", got)
	}
	if got := PopulationOn(records, "2024-01-01"); got != 0 {
		t.Fatalf("population on unknown date = %d, want 0", got)
	}
}
