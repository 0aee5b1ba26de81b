package timedataset

import (
	"errors"
	"math"
	"time"
)

var ErrCannotInferFreq = errors.New("cannot infer frequency from time slice")

// TimeSlice is a sorted slice of timestamps
type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// Span is the duration between the first and last timestamp
func (t TimeSlice) Span() time.Duration {
	return t.EndTime().Sub(t.StartTime())
}

// EstimateFreq returns the most common non-zero interval between consecutive points. Ties are
// broken by picking the smaller interval.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		delta := t[i].Sub(t[i-1])
		if delta <= 0 {
			continue
		}
		frequencies[delta] += 1
	}
	if len(frequencies) == 0 {
		return 0, ErrCannotInferFreq
	}

	var maxCnt int
	maxDelta := time.Duration(math.MaxInt64)

	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}

// Extend returns n timestamps following the last timestamp spaced by interval
func (t TimeSlice) Extend(n int, interval time.Duration) TimeSlice {
	if n <= 0 || len(t) == 0 {
		return nil
	}
	last := t.EndTime()
	out := make([]time.Time, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, last.Add(time.Duration(i)*interval))
	}
	return TimeSlice(out)
}
