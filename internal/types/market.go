package types

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
)

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
)

// PriceBar is one dated OHLCV observation for one instrument, plus any
// indicator columns appended by the signal pipeline. OHLCV fields are never
// mutated after construction; indicator columns are only added or overwritten.
type PriceBar struct {
	Symbol string    `csv:"symbol" yaml:"symbol"`
	Time   time.Time `csv:"time" yaml:"time"`
	Open   float64   `csv:"open" yaml:"open"`
	High   float64   `csv:"high" yaml:"high"`
	Low    float64   `csv:"low" yaml:"low"`
	Close  float64   `csv:"close" yaml:"close"`
	Volume float64   `csv:"volume" yaml:"volume"`

	indicators map[string]float64
}

// Indicator returns the named indicator column for this bar. A None result is
// the "undefined" sentinel: the generator could not compute a value for this
// row (e.g. not enough history), and consumers must treat it as no signal.
func (b PriceBar) Indicator(name string) optional.Option[float64] {
	value, ok := b.indicators[name]
	if !ok {
		return optional.None[float64]()
	}

	return optional.Some(value)
}

// IndicatorNames returns the names of all indicator columns set on this bar.
func (b PriceBar) IndicatorNames() []string {
	names := make([]string, 0, len(b.indicators))
	for name := range b.indicators {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// setIndicator writes an indicator column, allocating the column map lazily.
func (b *PriceBar) setIndicator(name string, value float64) {
	if b.indicators == nil {
		b.indicators = make(map[string]float64)
	}

	b.indicators[name] = value
}

// cloneIndicators returns a copy of the bar with its own indicator map.
func (b PriceBar) cloneIndicators() PriceBar {
	clone := b
	if b.indicators != nil {
		clone.indicators = make(map[string]float64, len(b.indicators))
		for name, value := range b.indicators {
			clone.indicators[name] = value
		}
	}

	return clone
}

// PriceTable is an ordered-by-date table of price bars per instrument. Bars
// are held in time order per symbol. The table is read-only to everything
// downstream of the signal pipeline.
type PriceTable struct {
	symbols []string
	series  map[string][]PriceBar
	dates   []time.Time
}

// NewPriceTable builds a table from a flat list of bars. Bars are grouped by
// symbol and sorted by time; the date calendar is the sorted union of all
// bar timestamps.
func NewPriceTable(bars []PriceBar) *PriceTable {
	series := make(map[string][]PriceBar)
	dateSet := make(map[int64]time.Time)

	for _, bar := range bars {
		series[bar.Symbol] = append(series[bar.Symbol], bar)
		dateSet[bar.Time.UnixNano()] = bar.Time
	}

	symbols := make([]string, 0, len(series))

	for symbol := range series {
		symbols = append(symbols, symbol)
		sort.SliceStable(series[symbol], func(i, j int) bool {
			return series[symbol][i].Time.Before(series[symbol][j].Time)
		})
	}

	sort.Strings(symbols)

	dates := make([]time.Time, 0, len(dateSet))
	for _, date := range dateSet {
		dates = append(dates, date)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return &PriceTable{
		symbols: symbols,
		series:  series,
		dates:   dates,
	}
}

// Len returns the total number of bars in the table.
func (t *PriceTable) Len() int {
	total := 0
	for _, bars := range t.series {
		total += len(bars)
	}

	return total
}

// Symbols returns the instruments in the table in sorted order.
func (t *PriceTable) Symbols() []string {
	out := make([]string, len(t.symbols))
	copy(out, t.symbols)

	return out
}

// Dates returns the simulated calendar: the sorted union of all bar
// timestamps across symbols.
func (t *PriceTable) Dates() []time.Time {
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)

	return out
}

// History returns the full time-ordered series for a symbol. The returned
// slice is shared with the table and must not be mutated by the caller.
func (t *PriceTable) History(symbol string) []PriceBar {
	return t.series[symbol]
}

// Bar returns the bar for a symbol at an exact timestamp.
func (t *PriceTable) Bar(symbol string, at time.Time) optional.Option[PriceBar] {
	bars := t.series[symbol]

	idx := sort.Search(len(bars), func(i int) bool { return !bars[i].Time.Before(at) })
	if idx < len(bars) && bars[idx].Time.Equal(at) {
		return optional.Some(bars[idx])
	}

	return optional.None[PriceBar]()
}

// SetIndicator writes an indicator column on the i-th bar of a symbol's
// series. Used by signal generators on cloned tables; OHLCV fields are never
// touched.
func (t *PriceTable) SetIndicator(symbol string, i int, name string, value float64) {
	bars := t.series[symbol]
	if i < 0 || i >= len(bars) {
		return
	}

	bars[i].setIndicator(name, value)
}

// Clone returns a deep copy of the table, including per-bar indicator maps.
// Generators transform clones so the pipeline never mutates its input.
func (t *PriceTable) Clone() *PriceTable {
	series := make(map[string][]PriceBar, len(t.series))

	for symbol, bars := range t.series {
		cloned := make([]PriceBar, len(bars))
		for i, bar := range bars {
			cloned[i] = bar.cloneIndicators()
		}

		series[symbol] = cloned
	}

	symbols := make([]string, len(t.symbols))
	copy(symbols, t.symbols)

	dates := make([]time.Time, len(t.dates))
	copy(dates, t.dates)

	return &PriceTable{
		symbols: symbols,
		series:  series,
		dates:   dates,
	}
}

// SameShape reports whether other has the same symbol/date keys as t.
// The pipeline uses this to verify generators preserve row identity.
func (t *PriceTable) SameShape(other *PriceTable) bool {
	if len(t.symbols) != len(other.symbols) {
		return false
	}

	for i, symbol := range t.symbols {
		if other.symbols[i] != symbol {
			return false
		}

		a, b := t.series[symbol], other.series[symbol]
		if len(a) != len(b) {
			return false
		}

		for j := range a {
			if !a[j].Time.Equal(b[j].Time) {
				return false
			}
		}
	}

	return true
}

// Slice builds the cross-section visible to a strategy at the given date:
// every symbol's bar for that date plus its history up to and including the
// date. Future rows are structurally absent.
func (t *PriceTable) Slice(at time.Time) Slice {
	current := make(map[string]PriceBar)
	history := make(map[string][]PriceBar)

	for symbol, bars := range t.series {
		// First index strictly after `at`.
		end := sort.Search(len(bars), func(i int) bool { return bars[i].Time.After(at) })
		if end == 0 {
			continue
		}

		history[symbol] = bars[:end]
		if bars[end-1].Time.Equal(at) {
			current[symbol] = bars[end-1]
		}
	}

	return Slice{
		time:    at,
		current: current,
		history: history,
	}
}

// Slice is the strategy's view of the market at one date. It contains only
// bars with timestamps at or before its date.
type Slice struct {
	time    time.Time
	current map[string]PriceBar
	history map[string][]PriceBar
}

// Time returns the date this slice was built for.
func (s Slice) Time() time.Time {
	return s.time
}

// Symbols returns the symbols that have a bar at this slice's date, sorted.
func (s Slice) Symbols() []string {
	symbols := make([]string, 0, len(s.current))
	for symbol := range s.current {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

// Bar returns the symbol's bar at this slice's date, if it has one.
func (s Slice) Bar(symbol string) optional.Option[PriceBar] {
	bar, ok := s.current[symbol]
	if !ok {
		return optional.None[PriceBar]()
	}

	return optional.Some(bar)
}

// History returns the symbol's bars up to and including this slice's date.
// The returned slice is shared and must not be mutated.
func (s Slice) History(symbol string) []PriceBar {
	return s.history[symbol]
}
