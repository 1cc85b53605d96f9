package automation

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

const latencyWindow = 256

// LatencySummary describes recent tick processing times.
type LatencySummary struct {
	Samples int
	Mean    time.Duration
	StdDev  time.Duration
	P95     time.Duration
	Max     time.Duration
}

// latencyRing keeps the most recent tick durations.
type latencyRing struct {
	mu   sync.Mutex
	buf  [latencyWindow]float64
	n    int
	next int
}

func (r *latencyRing) add(d time.Duration) {
	r.mu.Lock()
	r.buf[r.next] = float64(d)
	r.next = (r.next + 1) % latencyWindow
	if r.n < latencyWindow {
		r.n++
	}
	r.mu.Unlock()
}

func (r *latencyRing) summary() LatencySummary {
	r.mu.Lock()
	xs := make([]float64, r.n)
	copy(xs, r.buf[:r.n])
	r.mu.Unlock()
	if len(xs) == 0 {
		return LatencySummary{}
	}
	sort.Float64s(xs)
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}
	return LatencySummary{
		Samples: len(xs),
		Mean:    time.Duration(mean),
		StdDev:  time.Duration(std),
		P95:     time.Duration(stat.Quantile(0.95, stat.Empirical, xs, nil)),
		Max:     time.Duration(xs[len(xs)-1]),
	}
}
