package core

// SeedRecords returns the fallback dataset used when no valid persisted
// collection exists. Each call returns a fresh slice.
func SeedRecords() []Record {
	return []Record{
		{ID: 1, Date: "2025-12-16", Township: "နမ့်ဆန်", Household: 5, Male: 12, Female: 15, SmartCard: 10, Taang: 25, Shan: 2, Bamar: 0, Revenue: 100000},
		{ID: 2, Date: "2025-12-16", Township: "မန်တုံ", Household: 3, Male: 8, Female: 9, SmartCard: 5, Taang: 10, Shan: 7, Bamar: 0, Revenue: 50000},
		{ID: 3, Date: "2025-12-15", Township: "နမ့်ဆန်", Household: 10, Male: 25, Female: 30, SmartCard: 20, Taang: 50, Shan: 5, Bamar: 0, Revenue: 200000},
	}
}
