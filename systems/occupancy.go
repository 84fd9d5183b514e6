package systems

import "github.com/mlange-42/ark/ecs"

// Occupancy tracks which cells host a live organism and which organism that
// is. The bitset answers the hot placement checks during seeding and
// reproduction; the entity slice lets death handling and tests map a cell
// back to its occupant. For live organisms this index is a bijection with
// their positions.
type Occupancy struct {
	w    int
	used []bool
	ents []ecs.Entity
}

// NewOccupancy creates an empty index for a w×h grid.
func NewOccupancy(w, h int) *Occupancy {
	return &Occupancy{
		w:    w,
		used: make([]bool, w*h),
		ents: make([]ecs.Entity, w*h),
	}
}

// IsFree reports whether no live organism holds (x, y).
func (o *Occupancy) IsFree(x, y int) bool {
	return !o.used[y*o.w+x]
}

// Occupant returns the entity holding (x, y), if any.
func (o *Occupancy) Occupant(x, y int) (ecs.Entity, bool) {
	i := y*o.w + x
	return o.ents[i], o.used[i]
}

// Set marks (x, y) as held by e. The cell must be free.
func (o *Occupancy) Set(x, y int, e ecs.Entity) {
	i := y*o.w + x
	o.used[i] = true
	o.ents[i] = e
}

// Clear releases (x, y).
func (o *Occupancy) Clear(x, y int) {
	i := y*o.w + x
	o.used[i] = false
	o.ents[i] = ecs.Entity{}
}

// Count returns the number of held cells. Linear scan; used by invariant
// checks, not the hot path.
func (o *Occupancy) Count() int {
	n := 0
	for _, u := range o.used {
		if u {
			n++
		}
	}
	return n
}
