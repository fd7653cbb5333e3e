// Package damping implements the time-varying intervention matrix that
// scales contact rates in a compartmental disease-spread simulation.
//
// Interventions are recorded as (level, type, time, value) entries. Entries
// with the same level and type form one intervention's step function over
// time; types within a level combine additively; levels combine with the
// complement-product rule 1-(1-a)(1-b). Every step transition is replaced by
// a linear ramp of half-width one time unit so the combined factor stays
// continuous, which adaptive ODE solvers require of their forcing terms.
//
// A container is mutated only through Add during scenario setup and then
// queried through ValueAt during simulation; ValueAt is pure and safe for
// concurrent readers once mutation has stopped.
package damping

import (
	"fmt"
	"sort"
)

// transitionHalfWidth is the smoothing ramp half-width R. Each transition at
// time tk is interpolated linearly over [tk-R, tk+R].
const transitionHalfWidth = 1.0

type seriesKey struct {
	level int
	typ   int
}

type entry struct {
	time  float64
	value *Matrix // pre-expanded to container dimensions
}

// series is the per-(level, type) step function: entries sorted by strictly
// increasing time, a later Add at an existing time overwrites the value.
type series struct {
	kind    ShapeKind
	entries []entry
}

// Dampings owns all intervention series for one simulation node and is the
// single query entry point for the combined contact-rate reduction.
type Dampings struct {
	rows, cols int
	series     map[seriesKey]*series
	keys       []seriesKey // sorted by (level, type) for deterministic folds
}

// New creates an empty container for a rows x cols broadcast target.
func New(rows, cols int) *Dampings {
	return &Dampings{
		rows:   rows,
		cols:   cols,
		series: make(map[seriesKey]*series),
	}
}

// NewSquare creates an empty container for an n x n broadcast target.
func NewSquare(n int) *Dampings {
	return New(n, n)
}

// Rows returns the broadcast target row count.
func (d *Dampings) Rows() int { return d.rows }

// Cols returns the broadcast target column count.
func (d *Dampings) Cols() int { return d.cols }

// NumEntries returns the total number of recorded entries across all series.
func (d *Dampings) NumEntries() int {
	n := 0
	for _, s := range d.series {
		n += len(s.entries)
	}
	return n
}

// Add records that the intervention identified by (level, typ) contributes
// value from time t onward, superseding its earlier contribution. Adding at
// a time already recorded for the same key overwrites that entry. Shape
// mismatches with the container dimensions or with the series' established
// shape fail here, never at query time.
func (d *Dampings) Add(value Value, level, typ int, t float64) error {
	expanded, err := value.expand(d.rows, d.cols)
	if err != nil {
		return fmt.Errorf("damping at level %d type %d: %w", level, typ, err)
	}

	key := seriesKey{level: level, typ: typ}
	s, ok := d.series[key]
	if !ok {
		s = &series{kind: value.Kind()}
		d.series[key] = s
		i := sort.Search(len(d.keys), func(i int) bool {
			k := d.keys[i]
			return k.level > key.level || (k.level == key.level && k.typ >= key.typ)
		})
		d.keys = append(d.keys, seriesKey{})
		copy(d.keys[i+1:], d.keys[i:])
		d.keys[i] = key
	} else if s.kind != value.Kind() {
		return fmt.Errorf("damping at level %d type %d: shape %s conflicts with established shape %s",
			level, typ, value.Kind(), s.kind)
	}

	// insertion sort; configuration is small and append-heavy
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].time >= t })
	if i < len(s.entries) && s.entries[i].time == t {
		s.entries[i].value = expanded
		return nil
	}
	s.entries = append(s.entries, entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = entry{time: t, value: expanded}
	return nil
}

// ValueAt evaluates the combined reduction matrix at time t. It is pure and
// idempotent: times may repeat or arrive in any order, as they do when an
// adaptive integrator rejects and retries steps. An empty container yields
// the zero (no reduction) matrix.
func (d *Dampings) ValueAt(t float64) *Matrix {
	if len(d.keys) == 0 {
		return NewMatrix(d.rows, d.cols)
	}

	var combined *Matrix
	i := 0
	for i < len(d.keys) {
		level := d.keys[i].level
		levelSum := NewMatrix(d.rows, d.cols)
		for i < len(d.keys) && d.keys[i].level == level {
			d.series[d.keys[i]].smoothedInto(levelSum, t, d.rows, d.cols)
			i++
		}
		if combined == nil {
			combined = levelSum
		} else {
			combined.combineInPlace(levelSum)
		}
	}
	return combined
}

// Clone returns a deep copy. Simulation nodes that share one configuration
// must each own a clone, not a reference.
func (d *Dampings) Clone() *Dampings {
	c := New(d.rows, d.cols)
	c.keys = append([]seriesKey(nil), d.keys...)
	for key, s := range d.series {
		cs := &series{kind: s.kind, entries: make([]entry, len(s.entries))}
		for i, e := range s.entries {
			cs.entries[i] = entry{time: e.time, value: e.value.Clone()}
		}
		c.series[key] = cs
	}
	return c
}

// rawAt returns the step-function value at x: the last entry with time <= x,
// or nil for "zero" before the first entry. The returned matrix is shared
// and must not be mutated.
func (s *series) rawAt(x float64) *Matrix {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].time > x })
	if i == 0 {
		return nil
	}
	return s.entries[i-1].value
}

// smoothedInto adds the series' smoothed value at t into dst.
//
// The ramp around the transition nearest to t interpolates between the step
// values effective just before and just after that transition. When two
// transitions lie closer together than twice the half-width the nearest one
// wins; neighbouring transitions then enter only through the raw step values
// at the ramp ends.
func (s *series) smoothedInto(dst *Matrix, t float64, rows, cols int) {
	if len(s.entries) == 0 {
		return
	}

	k := s.nearestTransition(t)
	tk := s.entries[k].time
	if t < tk-transitionHalfWidth || t > tk+transitionHalfWidth {
		if v := s.rawAt(t); v != nil {
			dst.addInPlace(v)
		}
		return
	}

	lo := s.rawAt(tk - transitionHalfWidth)
	hi := s.rawAt(tk + transitionHalfWidth)
	f := (t - (tk - transitionHalfWidth)) / (2 * transitionHalfWidth)
	tmp := NewMatrix(rows, cols)
	zero := NewMatrix(rows, cols)
	if lo == nil {
		lo = zero
	}
	if hi == nil {
		hi = zero
	}
	tmp.lerpInto(lo, hi, f)
	dst.addInPlace(tmp)
}

// nearestTransition returns the index of the entry whose time is closest to
// t. Ties between two equidistant transitions resolve to the earlier one.
func (s *series) nearestTransition(t float64) int {
	i := sort.Search(len(s.entries), func(i int) bool { return s.entries[i].time >= t })
	if i == 0 {
		return 0
	}
	if i == len(s.entries) {
		return len(s.entries) - 1
	}
	if t-s.entries[i-1].time <= s.entries[i].time-t {
		return i - 1
	}
	return i
}
