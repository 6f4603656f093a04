package indicator

import (
	"fmt"
	"sort"

	"chartcorev1/internal/model"
)

// Kind identifies an activatable chart indicator.
type Kind string

const (
	KindSMA9      Kind = "sma9"
	KindSMA50     Kind = "sma50"
	KindSMA200    Kind = "sma200"
	KindEMA9      Kind = "ema9"
	KindEMA21     Kind = "ema21"
	KindRSI       Kind = "rsi"
	KindMACD      Kind = "macd"
	KindBollinger Kind = "bollinger"
)

// Options tunes an indicator at activation time. Zero fields fall back to
// the kind's defaults.
type Options struct {
	Period     int
	Fast       int
	Slow       int
	Signal     int
	StdDevMult float64
}

// Output is one active indicator's computed lines, each index-aligned
// with the source candles. Single-line indicators use the "value" key;
// MACD uses "macd"/"signal"/"histogram"; Bollinger "upper"/"middle"/"lower".
type Output struct {
	Kind  Kind              `json:"kind"`
	Lines map[string]Series `json:"lines"`
}

// kindDefaults returns the baked-in parameters for a kind, or false for an
// unknown kind.
func kindDefaults(kind Kind) (Options, bool) {
	switch kind {
	case KindSMA9:
		return Options{Period: 9}, true
	case KindSMA50:
		return Options{Period: 50}, true
	case KindSMA200:
		return Options{Period: 200}, true
	case KindEMA9:
		return Options{Period: 9}, true
	case KindEMA21:
		return Options{Period: 21}, true
	case KindRSI:
		return Options{Period: 14}, true
	case KindMACD:
		return Options{Fast: 12, Slow: 26, Signal: 9}, true
	case KindBollinger:
		return Options{Period: 20, StdDevMult: 2}, true
	}
	return Options{}, false
}

// ParseKind validates a kind string from config or a client message.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kindDefaults(k); !ok {
		return "", fmt.Errorf("indicator: unknown kind %q", s)
	}
	return k, nil
}

// Engine tracks the set of active indicators for one chart and recomputes
// every one of them over the full candle history on demand. Recomputation
// is deliberately not incremental — simplicity wins at sub-thousand-candle
// window sizes. Not safe for concurrent use; the chart facade serializes
// access with its own lock.
type Engine struct {
	active map[Kind]Options
}

// NewEngine creates an engine with no active indicators.
func NewEngine() *Engine {
	return &Engine{active: make(map[Kind]Options)}
}

// Add activates an indicator. Unknown kinds and non-positive periods are
// rejected. Re-adding an active kind replaces its options.
func (e *Engine) Add(kind Kind, opts Options) error {
	def, ok := kindDefaults(kind)
	if !ok {
		return fmt.Errorf("indicator: unknown kind %q", kind)
	}
	if opts.Period < 0 || opts.Fast < 0 || opts.Slow < 0 || opts.Signal < 0 {
		return ErrBadPeriod
	}
	merged := mergeOptions(def, opts)
	if kind == KindMACD {
		if merged.Fast <= 0 || merged.Slow <= 0 || merged.Signal <= 0 {
			return ErrBadPeriod
		}
	} else if merged.Period <= 0 {
		return ErrBadPeriod
	}
	e.active[kind] = merged
	return nil
}

// Remove deactivates an indicator; its series is discarded. Removing an
// inactive kind is a no-op.
func (e *Engine) Remove(kind Kind) {
	delete(e.active, kind)
}

// Active returns the active kinds in stable (sorted) order.
func (e *Engine) Active() []Kind {
	kinds := make([]Kind, 0, len(e.active))
	for k := range e.active {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ComputeAll recomputes every active indicator over the full series.
// Outputs come back in Active() order so refreshes are deterministic.
func (e *Engine) ComputeAll(candles []model.Candle) []Output {
	outputs := make([]Output, 0, len(e.active))
	for _, kind := range e.Active() {
		out, err := e.compute(kind, e.active[kind], candles)
		if err != nil {
			// Options were validated at Add time; nothing to do here.
			continue
		}
		outputs = append(outputs, out)
	}
	return outputs
}

func (e *Engine) compute(kind Kind, opts Options, candles []model.Candle) (Output, error) {
	switch kind {
	case KindSMA9, KindSMA50, KindSMA200:
		s, err := SMA(candles, opts.Period)
		if err != nil {
			return Output{}, err
		}
		return Output{Kind: kind, Lines: map[string]Series{"value": s}}, nil

	case KindEMA9, KindEMA21:
		s, err := EMA(candles, opts.Period)
		if err != nil {
			return Output{}, err
		}
		return Output{Kind: kind, Lines: map[string]Series{"value": s}}, nil

	case KindRSI:
		s, err := RSI(candles, opts.Period)
		if err != nil {
			return Output{}, err
		}
		return Output{Kind: kind, Lines: map[string]Series{"value": s}}, nil

	case KindMACD:
		r, err := MACD(candles, opts.Fast, opts.Slow, opts.Signal)
		if err != nil {
			return Output{}, err
		}
		return Output{Kind: kind, Lines: map[string]Series{
			"macd":      r.Line,
			"signal":    r.Signal,
			"histogram": r.Histogram,
		}}, nil

	case KindBollinger:
		r, err := Bollinger(candles, opts.Period, opts.StdDevMult)
		if err != nil {
			return Output{}, err
		}
		return Output{Kind: kind, Lines: map[string]Series{
			"upper":  r.Upper,
			"middle": r.Middle,
			"lower":  r.Lower,
		}}, nil
	}
	return Output{}, fmt.Errorf("indicator: unknown kind %q", kind)
}

func mergeOptions(def, opts Options) Options {
	if opts.Period > 0 {
		def.Period = opts.Period
	}
	if opts.Fast > 0 {
		def.Fast = opts.Fast
	}
	if opts.Slow > 0 {
		def.Slow = opts.Slow
	}
	if opts.Signal > 0 {
		def.Signal = opts.Signal
	}
	if opts.StdDevMult > 0 {
		def.StdDevMult = opts.StdDevMult
	}
	return def
}
