package indicators

import "sort"

// SwingPoint is one fractal swing high or low: a bar whose high (or low)
// is more extreme than `wing` bars on each side.
type SwingPoint struct {
	Index int
	Price float64
	High  bool // true = swing high, false = swing low
}

// FractalSwings finds every fractal swing point in bars using a symmetric
// window of `wing` bars on each side (the classic 2-2 fractal uses wing=2).
func FractalSwings(bars []PriceBar, wing int) []SwingPoint {
	var out []SwingPoint
	for i := wing; i < len(bars)-wing; i++ {
		if isSwingHigh(bars, i, wing) {
			out = append(out, SwingPoint{Index: i, Price: bars[i].High, High: true})
		}
		if isSwingLow(bars, i, wing) {
			out = append(out, SwingPoint{Index: i, Price: bars[i].Low, High: false})
		}
	}
	return out
}

func isSwingHigh(bars []PriceBar, i, wing int) bool {
	for j := i - wing; j <= i+wing; j++ {
		if j != i && bars[j].High >= bars[i].High {
			return false
		}
	}
	return true
}

func isSwingLow(bars []PriceBar, i, wing int) bool {
	for j := i - wing; j <= i+wing; j++ {
		if j != i && bars[j].Low <= bars[i].Low {
			return false
		}
	}
	return true
}

// Cluster is a single support/resistance zone: a run of price-sorted swing
// points, each within tolerancePct of the previous one's price, collapsed
// to their mean.
type Cluster struct {
	Price      float64
	TouchCount int
	High       bool
}

// ClusterSwings groups swing points into support/resistance zones using a
// percentage-of-price tolerance band (rather than a fixed ATR-independent
// threshold, so the same function works across symbols with very
// different price scales). Highs and lows are clustered separately.
func ClusterSwings(points []SwingPoint, tolerancePct float64) []Cluster {
	highs, lows := splitByType(points)
	var out []Cluster
	out = append(out, clusterOneSide(highs, tolerancePct, true)...)
	out = append(out, clusterOneSide(lows, tolerancePct, false)...)
	return out
}

func splitByType(points []SwingPoint) (highs, lows []SwingPoint) {
	for _, p := range points {
		if p.High {
			highs = append(highs, p)
		} else {
			lows = append(lows, p)
		}
	}
	return
}

func clusterOneSide(points []SwingPoint, tolerancePct float64, high bool) []Cluster {
	if len(points) == 0 {
		return nil
	}

	sorted := make([]SwingPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	var clusters []Cluster
	var current []float64

	flush := func() {
		if len(current) == 0 {
			return
		}
		sum := 0.0
		for _, p := range current {
			sum += p
		}
		clusters = append(clusters, Cluster{
			Price:      sum / float64(len(current)),
			TouchCount: len(current),
			High:       high,
		})
		current = nil
	}

	for _, p := range sorted {
		if len(current) == 0 {
			current = append(current, p.Price)
			continue
		}
		mean := current[len(current)-1]
		if (p.Price-mean)/mean <= tolerancePct {
			current = append(current, p.Price)
		} else {
			flush()
			current = append(current, p.Price)
		}
	}
	flush()

	return clusters
}
