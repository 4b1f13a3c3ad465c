package market

import "math"

type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Trades    int64   `json:"trades"`
}

// Window is an ordered candle slice, oldest first.
type Window []Candle

func (w Window) Closes() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.Close
	}
	return out
}

func (w Window) Highs() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.High
	}
	return out
}

func (w Window) Lows() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.Low
	}
	return out
}

func (w Window) Volumes() []float64 {
	out := make([]float64, len(w))
	for i, c := range w {
		out[i] = c.Volume
	}
	return out
}

// Returns computes simple close-to-close returns; the result has len(w)-1 entries.
func (w Window) Returns() []float64 {
	if len(w) < 2 {
		return nil
	}
	out := make([]float64, 0, len(w)-1)
	for i := 1; i < len(w); i++ {
		prev := w[i-1].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (w[i].Close-prev)/prev)
	}
	return out
}

// Volatility is the standard deviation of the last n close-to-close returns.
// Windows too short for an estimate report a mild 1% default, matching the
// conservative assumption used when no history is available.
func (w Window) Volatility(n int) float64 {
	rets := w.Returns()
	if len(rets) == 0 {
		return 0.01
	}
	if n > 0 && len(rets) > n {
		rets = rets[len(rets)-n:]
	}
	var sum float64
	for _, r := range rets {
		sum += r
	}
	mean := sum / float64(len(rets))
	var ss float64
	for _, r := range rets {
		d := r - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(rets)))
}
