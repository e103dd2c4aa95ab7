package core

import "math"

// MinBarPercent keeps townships with no population visible on the bar chart.
const MinBarPercent = 5

// TownshipTotal is the population of one recognised township.
type TownshipTotal struct {
	Name       string
	Population int64
	BarPercent int64 // relative to Summary.MaxTownshipPop, floored at MinBarPercent
}

// Summary holds the dashboard statistics for a record collection.
type Summary struct {
	RecordCount    int
	TotalHousehold int64
	TotalPop       int64
	TotalMale      int64
	TotalFemale    int64
	TotalSmartCard int64
	TotalRevenue   int64
	TotalTaang     int64
	TotalShan      int64
	TotalBamar     int64

	Townships      []TownshipTotal
	MaxTownshipPop int64 // never below 1
}

// Aggregate folds the whole collection into a Summary. It keeps no state
// between calls; call it again after every mutation.
func Aggregate(records []Record) Summary {
	s := Summary{RecordCount: len(records)}
	byTownship := make(map[string]int64, len(Townships))
	for _, r := range records {
		s.TotalHousehold = addCount(s.TotalHousehold, r.Household)
		s.TotalPop = addCount(s.TotalPop, r.Population())
		s.TotalMale = addCount(s.TotalMale, r.Male)
		s.TotalFemale = addCount(s.TotalFemale, r.Female)
		s.TotalSmartCard = addCount(s.TotalSmartCard, r.SmartCard)
		s.TotalRevenue = addCount(s.TotalRevenue, r.Revenue)
		s.TotalTaang = addCount(s.TotalTaang, r.Taang)
		s.TotalShan = addCount(s.TotalShan, r.Shan)
		s.TotalBamar = addCount(s.TotalBamar, r.Bamar)
		byTownship[r.Township] = addCount(byTownship[r.Township], r.Population())
	}

	s.MaxTownshipPop = 1
	for _, name := range Townships {
		if p := byTownship[name]; p > s.MaxTownshipPop {
			s.MaxTownshipPop = p
		}
	}

	s.Townships = make([]TownshipTotal, 0, len(Townships))
	for _, name := range Townships {
		pop := byTownship[name]
		s.Townships = append(s.Townships, TownshipTotal{
			Name:       name,
			Population: pop,
			BarPercent: barPercent(pop, s.MaxTownshipPop),
		})
	}
	return s
}

// addCount adds non-negative counts, saturating at math.MaxInt64.
func addCount(total, n int64) int64 {
	if n > math.MaxInt64-total {
		return math.MaxInt64
	}
	return total + n
}

func barPercent(pop, ceiling int64) int64 {
	pct := int64(float64(pop) * 100 / float64(ceiling))
	if pct < MinBarPercent {
		return MinBarPercent
	}
	return pct
}

// PopulationOn sums male + female over records dated date (YYYY-MM-DD).
func PopulationOn(records []Record, date string) int64 {
	var total int64
	for _, r := range records {
		if r.Date == date {
			total = addCount(total, r.Population())
		}
	}
	return total
}
