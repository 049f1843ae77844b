package models

// DailyAggregate is one point of the open-interest history series: the
// venue-wide notional open interest attributed to the start of one UTC day.
type DailyAggregate struct {
	Date    string  `json:"date"`
	TotalOI float64 `json:"total_oi"`
}

// HistorySeries is the ordered sequence of daily aggregates, ascending by
// date, with at most one entry per calendar day.
type HistorySeries []DailyAggregate

// OverrideTable maps YYYY-MM-DD dates to manually vetted totals. An entry
// here always wins over anything computed from the archive.
type OverrideTable map[string]float64

// RunStats summarises one history rebuild for logging and metrics.
type RunStats struct {
	DaysEmitted    int
	DaysOverridden int
	DaysMissing    int
	DaysFailed     int
	DaysEmpty      int
}
