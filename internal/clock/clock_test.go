package clock

import (
	"sync"
	"testing"
	"time"
)

// TestSimulated_Advance tests that time moves by the given amount.
func TestSimulated_Advance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewSimulated(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	got := c.Advance(90 * time.Second)
	want := start.Add(90 * time.Second)
	if !got.Equal(want) {
		t.Errorf("Advance() = %v, want %v", got, want)
	}
	if now := c.Now(); !now.Equal(want) {
		t.Errorf("Now() after advance = %v, want %v", now, want)
	}
}

// TestSimulated_SetNeverRewinds tests that Set ignores earlier times.
func TestSimulated_SetNeverRewinds(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewSimulated(start)

	c.Set(start.Add(-time.Hour))
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() after backward Set = %v, want %v", got, start)
	}

	later := start.Add(time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Errorf("Now() after forward Set = %v, want %v", got, later)
	}
}

// TestSimulated_Concurrent tests concurrent advance and read.
func TestSimulated_Concurrent(t *testing.T) {
	c := NewSimulated(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
		}()
		go func() {
			defer wg.Done()
			_ = c.Now()
		}()
	}
	wg.Wait()

	want := time.Date(2024, 1, 1, 0, 0, 50, 0, time.UTC)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("Now() after 50 advances = %v, want %v", got, want)
	}
}

// TestSystem_Now tests that the wall clock moves forward.
func TestSystem_Now(t *testing.T) {
	c := NewSystem()
	a := c.Now()
	b := c.Now()
	if b.Before(a) {
		t.Errorf("wall clock went backward: %v then %v", a, b)
	}
}
