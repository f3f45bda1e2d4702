package input

import (
	"sync"
	"testing"
)

type countingInjector struct {
	inFlight int
	maxSeen  int
	calls    int
}

func (c *countingInjector) enter() {
	c.inFlight++
	if c.inFlight > c.maxSeen {
		c.maxSeen = c.inFlight
	}
	c.calls++
}

func (c *countingInjector) leave() { c.inFlight-- }

func (c *countingInjector) KeyDown(Key) error           { c.enter(); defer c.leave(); return nil }
func (c *countingInjector) KeyUp(Key) error             { c.enter(); defer c.leave(); return nil }
func (c *countingInjector) KeyPress(Key) error          { c.enter(); defer c.leave(); return nil }
func (c *countingInjector) SetAxis(Axis, float32) error { c.enter(); defer c.leave(); return nil }
func (c *countingInjector) ResetAxes() error            { c.enter(); defer c.leave(); return nil }
func (c *countingInjector) Close() error                { return nil }

func TestLockedSerialisesCalls(t *testing.T) {
	inner := &countingInjector{}
	locked := NewLocked(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = locked.KeyDown("A")
				_ = locked.SetAxis(AxisLeftStickX, 0.5)
				_ = locked.KeyUp("A")
			}
		}()
	}
	wg.Wait()

	if inner.calls != 8*100*3 {
		t.Errorf("calls = %d, want %d", inner.calls, 8*100*3)
	}
	if inner.maxSeen != 1 {
		t.Errorf("observed %d concurrent calls, want 1", inner.maxSeen)
	}
}

func TestClampAxis(t *testing.T) {
	cases := []struct {
		axis Axis
		in   float32
		want float32
	}{
		{AxisLeftStickX, -2, -1},
		{AxisLeftStickX, 0.25, 0.25},
		{AxisLeftStickY, 3, 1},
		{AxisLeftTrigger, -0.5, 0},
		{AxisRightTrigger, 0.75, 0.75},
		{AxisRightTrigger, 1.5, 1},
	}
	for _, c := range cases {
		if got := clampAxis(c.axis, c.in); got != c.want {
			t.Errorf("clampAxis(%s, %v) = %v, want %v", c.axis, c.in, got, c.want)
		}
	}
}

func TestKnownKeys(t *testing.T) {
	for _, key := range []Key{"A", "Z", "0", "Space", "Enter", "F12"} {
		if !Known(key) {
			t.Errorf("Known(%q) = false", key)
		}
	}
	for _, key := range []Key{"", "a", "F13", "Escape"} {
		if Known(key) {
			t.Errorf("Known(%q) = true", key)
		}
	}
}
