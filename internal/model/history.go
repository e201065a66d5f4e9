package model

// DemandHistoryRecord is one (sku, year, period) demand observation
// (spec.md §3).
type DemandHistoryRecord struct {
	SKUID        string
	PeriodYear   int
	PeriodNumber int

	Shipped            float64
	LostSales          float64
	PromotionalDemand  float64
	TotalDemand        float64
	OutOfStockDays     int

	IsIgnored bool
	IsAdjusted bool
}

// Recompute enforces the invariant total_demand = shipped + lost_sales -
// promotional_demand and marks the record adjusted (spec.md §4.2 contract).
func (r *DemandHistoryRecord) Recompute() {
	r.TotalDemand = r.Shipped + r.LostSales - r.PromotionalDemand
	r.IsAdjusted = true
}

// SeasonalProfile holds periods-normalized multiplicative seasonal
// indices shared across SKUs (spec.md §3, §4.4).
type SeasonalProfile struct {
	ProfileID   string
	Periodicity Periodicity
	Indices     []float64 // length == Periodicity, mean ≈ 1.0
}

// IndexForPeriod returns the seasonal index for a 1-based period
// number, wrapping modulo the profile length.
func (p *SeasonalProfile) IndexForPeriod(period int) float64 {
	if len(p.Indices) == 0 {
		return 1.0
	}
	idx := (period - 1) % len(p.Indices)
	if idx < 0 {
		idx += len(p.Indices)
	}
	v := p.Indices[idx]
	if v <= 0 {
		return 1.0
	}
	return v
}
