// Package report aggregates the engine's output table into daily equity and
// the usual performance metrics. It is a downstream consumer: nothing here
// feeds back into the simulation.
package report

import (
	"math"
	"time"

	"github.com/alejandrodnm/flexbt/internal/domain"
)

const tradingDaysPerYear = 252

// DailyPoint is the equity at the close of one calendar date: the last
// snapshot's total value for that date.
type DailyPoint struct {
	Date   time.Time
	Equity float64
}

// Metrics are the headline numbers for a run. Ratios are NaN when the run is
// too short or returns have zero variance.
type Metrics struct {
	Start        time.Time
	End          time.Time
	Days         int
	FinalEquity  float64
	TotalReturn  float64
	AnnualReturn float64
	MaxDrawdown  float64
	Sharpe       float64
	Sortino      float64
}

// timestampLayouts covers the date formats seen in the input CSVs. Only the
// date component matters for daily grouping.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006/1/2",
	time.RFC3339,
}

func parseDate(ts string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}

// DailyEquity groups snapshots by date and keeps the last total value per
// date. Zero-valued dates are dropped so a transient zero doesn't show up as
// a -100% daily return. Snapshots with unparseable timestamps are skipped.
func DailyEquity(snapshots []domain.Snapshot) []DailyPoint {
	var points []DailyPoint
	for _, s := range snapshots {
		date, ok := parseDate(s.Timestamp)
		if !ok {
			continue
		}
		if n := len(points); n > 0 && points[n-1].Date.Equal(date) {
			points[n-1].Equity = s.TotalValueUSD
			continue
		}
		points = append(points, DailyPoint{Date: date, Equity: s.TotalValueUSD})
	}

	filtered := points[:0]
	for _, p := range points {
		if p.Equity > 0 {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Compute derives the run metrics from the daily equity curve. With fewer
// than two points everything except FinalEquity is zero/NaN.
func Compute(daily []DailyPoint) Metrics {
	m := Metrics{Sharpe: math.NaN(), Sortino: math.NaN(), AnnualReturn: math.NaN()}
	if len(daily) == 0 {
		return m
	}

	first, last := daily[0], daily[len(daily)-1]
	m.Start = first.Date
	m.End = last.Date
	m.Days = int(last.Date.Sub(first.Date).Hours() / 24)
	m.FinalEquity = last.Equity
	m.TotalReturn = last.Equity/first.Equity - 1

	if m.Days > 0 {
		m.AnnualReturn = math.Pow(1+m.TotalReturn, 365/float64(m.Days)) - 1
	}

	// Max drawdown against the running peak.
	peak := first.Equity
	for _, p := range daily {
		if p.Equity > peak {
			peak = p.Equity
		}
		if dd := p.Equity/peak - 1; dd < m.MaxDrawdown {
			m.MaxDrawdown = dd
		}
	}

	returns := make([]float64, 0, len(daily)-1)
	for i := 1; i < len(daily); i++ {
		returns = append(returns, daily[i].Equity/daily[i-1].Equity-1)
	}
	if len(returns) < 2 {
		return m
	}

	mean := meanOf(returns)
	if std := stdOf(returns, mean); std > 0 {
		m.Sharpe = mean / std * math.Sqrt(tradingDaysPerYear)
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) >= 2 {
		if dstd := stdOf(downside, meanOf(downside)); dstd > 0 {
			m.Sortino = mean / dstd * math.Sqrt(tradingDaysPerYear)
		}
	}

	return m
}

func meanOf(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdOf is the sample standard deviation (n-1 denominator).
func stdOf(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}
