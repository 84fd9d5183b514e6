package systems

import "testing"

func TestSunlightBounds(t *testing.T) {
	for tick := 0; tick < 5000; tick++ {
		v := Sunlight(tick, 100, 400)
		if v < 0 || v > 1 {
			t.Fatalf("Sunlight(%d) = %v, want within [0,1]", tick, v)
		}
	}
}

func TestSunlightDayShape(t *testing.T) {
	// Days start dark, climb toward a mid-day peak, and return to dark.
	if got := Sunlight(0, 100, 400); got != 0 {
		t.Errorf("Sunlight(0) = %v, want 0", got)
	}

	if v5, v10 := Sunlight(5, 100, 400), Sunlight(10, 100, 400); !(v10 > v5 && v5 > 0) {
		t.Errorf("morning not rising: Sunlight(5) = %v, Sunlight(10) = %v", v5, v10)
	}

	if mid := Sunlight(55, 100, 400); mid < 0.9 {
		t.Errorf("mid-day Sunlight(55) = %v, want > 0.9", mid)
	}
}

func TestSunlightSeasonBoundary(t *testing.T) {
	// A season is four nominal days; its boundary coincides with a day
	// boundary, so the wave restarts from darkness there.
	for _, tick := range []int{400, 800, 1200} {
		if got := Sunlight(tick, 100, 400); got != 0 {
			t.Errorf("Sunlight(%d) = %v, want 0 at season boundary", tick, got)
		}
	}
}

func TestSunlightShortDays(t *testing.T) {
	// Late in the season the sine term shrinks days to 80 ticks; the wave
	// must stay well-formed with the shorter modulus.
	for tick := 280; tick < 400; tick++ {
		v := Sunlight(tick, 100, 400)
		if v < 0 || v > 1 {
			t.Fatalf("Sunlight(%d) = %v out of range during short days", tick, v)
		}
	}
}
