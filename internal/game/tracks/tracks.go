// Package tracks models the shipping and exchange progression tracks.
package tracks

// Cost is the price of one advance.
type Cost struct {
	Workers int
	Coins   int
	Priests int
}

// Holdings are the resources a player can pay with.
type Holdings struct {
	Workers int
	Coins   int
	Priests int
}

// Covers reports whether h pays for c.
func (h Holdings) Covers(c Cost) bool {
	return h.Workers >= c.Workers && h.Coins >= c.Coins && h.Priests >= c.Priests
}

// Rules describe one faction's view of one track.
type Rules struct {
	Eligible bool
	Start    int
	Max      int
	Cost     Cost
	// Points awards victory points keyed by the level being left.
	Points map[int]int
}

// CanAdvance reports whether a player at level may advance and afford it.
func (r Rules) CanAdvance(level int, h Holdings) bool {
	if !r.Eligible || level >= r.Max {
		return false
	}
	return h.Covers(r.Cost)
}

// PointsFor returns the victory points for leaving level.
func (r Rules) PointsFor(level int) int {
	return r.Points[level]
}

// DefaultShipping is the shipping track for most factions.
var DefaultShipping = Rules{
	Eligible: true,
	Start:    0,
	Max:      3,
	Cost:     Cost{Priests: 1, Coins: 4},
	Points:   map[int]int{0: 2, 1: 3, 2: 4},
}

// DefaultExchange is the exchange track for most factions.
var DefaultExchange = Rules{
	Eligible: true,
	Start:    0,
	Max:      2,
	Cost:     Cost{Workers: 2, Coins: 5, Priests: 1},
	Points:   map[int]int{0: 6, 1: 6},
}

// Ineligible returns r with advancement disabled.
func (r Rules) Ineligible() Rules {
	r.Eligible = false
	return r
}

// WithMax returns r capped at max.
func (r Rules) WithMax(max int) Rules {
	r.Max = max
	return r
}

// WithCost returns r with a different advance price.
func (r Rules) WithCost(c Cost) Rules {
	r.Cost = c
	return r
}
