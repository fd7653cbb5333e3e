// Package timeseries provides the append-only solution container an
// integrator records into: one time stamp plus a fixed number of values per
// time point.
package timeseries

import "fmt"

// TimeSeries stores time points with a fixed number of elements each.
// Storage grows by doubling so long integrations amortize allocation.
type TimeSeries struct {
	numElements int
	numPoints   int
	capacity    int
	times       []float64
	values      []float64 // flat, numElements per point
}

// New creates an empty series whose points carry numElements values.
func New(numElements int) *TimeSeries {
	if numElements < 0 {
		numElements = 0
	}
	return &TimeSeries{numElements: numElements}
}

// NumElements returns the number of values per time point.
func (ts *TimeSeries) NumElements() int { return ts.numElements }

// NumTimePoints returns the number of recorded time points.
func (ts *TimeSeries) NumTimePoints() int { return ts.numPoints }

// Capacity returns the number of time points storage currently holds.
func (ts *TimeSeries) Capacity() int { return ts.capacity }

// Reserve grows storage to hold at least n time points. Capacity always
// lands on a power of two.
func (ts *TimeSeries) Reserve(n int) {
	if n <= ts.capacity {
		return
	}
	c := ts.capacity
	if c == 0 {
		c = 1
	}
	for c < n {
		c *= 2
	}
	times := make([]float64, ts.numPoints, c)
	copy(times, ts.times)
	values := make([]float64, ts.numPoints*ts.numElements, c*ts.numElements)
	copy(values, ts.values)
	ts.times = times
	ts.values = values
	ts.capacity = c
}

// AddTimePoint appends a time point with zero values and returns its index.
func (ts *TimeSeries) AddTimePoint(t float64) int {
	ts.Reserve(ts.numPoints + 1)
	ts.times = append(ts.times, t)
	ts.values = append(ts.values, make([]float64, ts.numElements)...)
	ts.numPoints++
	return ts.numPoints - 1
}

// AddTimePointValues appends a time point with the given values.
func (ts *TimeSeries) AddTimePointValues(t float64, vals []float64) (int, error) {
	if len(vals) != ts.numElements {
		return 0, fmt.Errorf("time point has %d values, series stores %d", len(vals), ts.numElements)
	}
	i := ts.AddTimePoint(t)
	copy(ts.Value(i), vals)
	return i, nil
}

// Time returns the time stamp at index i.
func (ts *TimeSeries) Time(i int) float64 { return ts.times[i] }

// Value returns the values at index i as a mutable slice view.
func (ts *TimeSeries) Value(i int) []float64 {
	return ts.values[i*ts.numElements : (i+1)*ts.numElements]
}

// LastTime returns the most recent time stamp.
func (ts *TimeSeries) LastTime() float64 { return ts.times[ts.numPoints-1] }

// LastValue returns the values of the most recent time point.
func (ts *TimeSeries) LastValue() []float64 { return ts.Value(ts.numPoints - 1) }
