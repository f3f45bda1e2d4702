package calibration

import (
	"math/rand"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestObserveLearnsRange(t *testing.T) {
	m := New(Params{MaxRange: DefaultMaxRange})

	if got := m.Observe(100); got != 0 {
		t.Errorf("first sample should map to 0, got %d", got)
	}
	if min, max := m.Bounds(); min != 100 || max != 100 {
		t.Fatalf("Bounds() = (%d, %d), want (100, 100)", min, max)
	}
	if got := m.Observe(300); got != 255 {
		t.Errorf("Observe(300) = %d, want 255", got)
	}
	if got := m.Observe(150); got != 63 {
		t.Errorf("Observe(150) = %d, want 63", got)
	}
	if got := m.Observe(200); got != 127 {
		t.Errorf("Observe(200) = %d, want 127", got)
	}
}

func TestObserveInverted(t *testing.T) {
	m := New(Params{Inverted: true, MaxRange: DefaultMaxRange})
	m.SetBounds(100, 300)

	if got := m.Observe(150); got != 191 {
		t.Errorf("Observe(150) = %d, want 191", got)
	}
	if got := m.Observe(100); got != 255 {
		t.Errorf("Observe(100) = %d, want 255", got)
	}
	if got := m.Observe(300); got != 0 {
		t.Errorf("Observe(300) = %d, want 0", got)
	}
}

func TestObserveRejectsOutliers(t *testing.T) {
	m := New(Params{MaxRange: 400})
	m.SetBounds(100, 300)

	if got := m.Observe(1000); got != 255 {
		t.Errorf("outlier above should clamp to 255, got %d", got)
	}
	if min, max := m.Bounds(); min != 100 || max != 300 {
		t.Errorf("high outlier moved bounds to (%d, %d)", min, max)
	}

	if got := m.Observe(-200); got != 0 {
		t.Errorf("outlier below should clamp to 0, got %d", got)
	}
	if min, max := m.Bounds(); min != 100 || max != 300 {
		t.Errorf("low outlier moved bounds to (%d, %d)", min, max)
	}

	// Within maxRange of the opposite bound the range still grows.
	m.Observe(450)
	if _, max := m.Bounds(); max != 450 {
		t.Errorf("max = %d, want 450", max)
	}
}

func TestObserveDeadZone(t *testing.T) {
	m := New(Params{DeadZone: 0.1, MaxRange: DefaultMaxRange})
	m.SetBounds(0, 100)

	cases := []struct {
		raw  int
		want byte
	}{
		{5, 0},
		{10, 0},
		{50, 127},
		{90, 255},
		{95, 255},
	}
	for _, c := range cases {
		if got := m.Observe(c.raw); got != c.want {
			t.Errorf("Observe(%d) = %d, want %d", c.raw, got, c.want)
		}
	}
}

func TestObserveDeadZoneSwallowsRange(t *testing.T) {
	m := New(Params{DeadZone: 0.5, MaxRange: DefaultMaxRange})
	m.SetBounds(0, 100)

	if got := m.Observe(75); got != 0 {
		t.Errorf("Observe(75) = %d, want 0 when the dead zone covers everything", got)
	}
}

func TestMinimumRangeMetAndReset(t *testing.T) {
	m := New(Params{MinRange: 150, MaxRange: DefaultMaxRange})

	if m.MinimumRangeMet() {
		t.Fatalf("fresh mapper should not meet its minimum range")
	}
	m.Observe(100)
	m.Observe(200)
	if m.MinimumRangeMet() {
		t.Fatalf("spread of 100 should not meet a minimum of 150")
	}
	m.Observe(260)
	if !m.MinimumRangeMet() {
		t.Fatalf("spread of 160 should meet a minimum of 150")
	}

	m.Reset()
	if m.MinimumRangeMet() {
		t.Errorf("Reset() should gate the channel again")
	}
	if min, max := m.Bounds(); min != UnsetMin || max != UnsetMax {
		t.Errorf("Reset() bounds = (%d, %d)", min, max)
	}
}

func TestInitialBounds(t *testing.T) {
	m := New(Params{MaxRange: DefaultMaxRange, InitialMin: intPtr(10), InitialMax: intPtr(20)})
	if min, max := m.Bounds(); min != 10 || max != 20 {
		t.Errorf("Bounds() = (%d, %d), want (10, 20)", min, max)
	}

	m = New(Params{MaxRange: DefaultMaxRange, InitialMin: intPtr(10)})
	if min, max := m.Bounds(); min != UnsetMin || max != UnsetMax {
		t.Errorf("a single initial bound should be ignored, got (%d, %d)", min, max)
	}
}

func TestInvertedMirrorsNormal(t *testing.T) {
	normal := New(Params{MaxRange: DefaultMaxRange})
	inverted := New(Params{Inverted: true, MaxRange: DefaultMaxRange})

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		raw := r.Intn(1024)
		a := normal.Observe(raw)
		b := inverted.Observe(raw)

		min, max := normal.Bounds()
		if min == max {
			continue
		}
		// Both sides truncate the same float, so they sum to 254 or 255.
		if sum := int(a) + int(b); sum != 254 && sum != 255 {
			t.Fatalf("sample %d: normal %d + inverted %d = %d", raw, a, b, sum)
		}
	}
}
