// Package calibration maps raw analog readings of unknown range onto 0..255.
package calibration

import "math"

// Sentinel bounds meaning "no sample seen yet".
const (
	UnsetMin = math.MaxInt
	UnsetMax = 0
)

// Defaults used when a channel is configured without explicit ranges.
const (
	DefaultMinRange = 0
	DefaultMaxRange = 1024
)

// Params describes one analog channel.
type Params struct {
	Inverted   bool
	DeadZone   float64
	MinRange   int
	MaxRange   int
	InitialMin *int
	InitialMax *int
}

// Mapper learns the range of a sensor from the samples it observes and
// rescales each sample into that range. It is not safe for concurrent use;
// a session owns its mappers exclusively.
type Mapper struct {
	inverted bool
	deadZone float64
	minRange int
	maxRange int
	min      int
	max      int
}

// New creates a mapper, seeding its bounds when both initial values are set.
func New(p Params) *Mapper {
	m := &Mapper{
		inverted: p.Inverted,
		deadZone: p.DeadZone,
		minRange: p.MinRange,
		maxRange: p.MaxRange,
	}
	m.Reset()
	if p.InitialMin != nil && p.InitialMax != nil {
		m.SetBounds(*p.InitialMin, *p.InitialMax)
	}
	return m
}

// Reset forgets the learned bounds.
func (m *Mapper) Reset() {
	m.min = UnsetMin
	m.max = UnsetMax
}

// SetBounds overrides the learned bounds.
func (m *Mapper) SetBounds(min, max int) {
	m.min = min
	m.max = max
}

// Bounds returns the learned bounds.
func (m *Mapper) Bounds() (min, max int) {
	return m.min, m.max
}

// MinimumRangeMet reports whether enough of the sensor range has been seen
// for the mapped output to be trusted.
func (m *Mapper) MinimumRangeMet() bool {
	return m.max-m.min >= m.minRange
}

// Observe widens the bounds with raw, unless doing so would stretch the
// spread beyond maxRange, and returns raw mapped onto 0..255.
func (m *Mapper) Observe(raw int) byte {
	if raw > m.max && raw-m.min <= m.maxRange {
		m.max = raw
	}
	if raw < m.min && m.max-raw <= m.maxRange {
		m.min = raw
	}

	if m.min == m.max {
		return 0
	}

	delta := m.max - m.min
	deadZone := int(float64(delta) * m.deadZone)
	usable := delta - 2*deadZone
	if usable <= 0 {
		return 0
	}
	t := float64(raw-(m.min+deadZone)) / float64(usable)

	v := math.Max(math.Min(t*math.MaxUint8, math.MaxUint8), 0)
	if m.inverted {
		v = math.MaxUint8 - v
	}
	return byte(v)
}
