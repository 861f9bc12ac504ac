package cult

import "fmt"

// Type identifies one of the four cult tracks.
type Type int

const (
	Fire Type = iota
	Water
	Earth
	Air
)

// NumTracks is the number of cult tracks on the board.
const NumTracks = 4

var typeNames = map[Type]string{
	Fire:  "FIRE",
	Water: "WATER",
	Earth: "EARTH",
	Air:   "AIR",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("CULT_%d", int(t))
}

// Valid reports whether t names a track.
func (t Type) Valid() bool {
	return t >= Fire && t <= Air
}

// Types lists the tracks in board order.
func Types() []Type {
	return []Type{Fire, Water, Earth, Air}
}

const (
	MaxLevel       = 10
	KeylessCeiling = 9
	NumPriestSpots = 4
	Unoccupied     = -1
)

// spotValues are the advancement values of the priest spots, best first.
var spotValues = [NumPriestSpots]int{3, 2, 2, 2}

// thresholdBonus is the power granted for entering a level.
var thresholdBonus = map[int]int{
	3:  1,
	5:  2,
	7:  2,
	10: 3,
}

// Spot is a priest slot on a track.
type Spot struct {
	Advancement int
	Player      int
}

// Progress is one player's position on one track.
type Progress struct {
	Level  int
	HasKey bool
}

// Track is a single cult track with its priest spots and every player's position.
type Track struct {
	spots    [NumPriestSpots]Spot
	progress []Progress
}

// NewTrack creates a track sized for numPlayers, everyone at level 0 without a key.
func NewTrack(numPlayers int) *Track {
	t := &Track{progress: make([]Progress, numPlayers)}
	for i, v := range spotValues {
		t.spots[i] = Spot{Advancement: v, Player: Unoccupied}
	}
	return t
}

// PowerGain returns the threshold power earned moving from one level to another.
func PowerGain(from, to int) int {
	power := 0
	for level := from + 1; level <= to; level++ {
		power += thresholdBonus[level]
	}
	return power
}

func (t *Track) valid(player int) bool {
	return player >= 0 && player < len(t.progress)
}

// Progress returns the player's position. Unknown players read as level 0.
func (t *Track) Progress(player int) Progress {
	if !t.valid(player) {
		return Progress{}
	}
	return t.progress[player]
}

// ceiling is the highest level the player may currently reach.
func (t *Track) ceiling(player int) int {
	if t.progress[player].HasKey {
		return MaxLevel
	}
	return KeylessCeiling
}

// Headroom returns how many levels the player can still climb.
func (t *Track) Headroom(player int) int {
	if !t.valid(player) {
		return 0
	}
	return max(t.ceiling(player)-t.progress[player].Level, 0)
}

// CanAdvance reports whether the full steps fit under the player's ceiling.
func (t *Track) CanAdvance(player, steps int) bool {
	if !t.valid(player) || steps <= 0 {
		return false
	}
	return steps <= t.Headroom(player)
}

// Advance moves the player up to steps levels, clamped at the ceiling, and returns
// the levels moved and the threshold power earned.
func (t *Track) Advance(player, steps int) (moved, power int) {
	if !t.valid(player) || steps <= 0 {
		return 0, 0
	}
	moved = min(steps, t.Headroom(player))
	if moved == 0 {
		return 0, 0
	}
	from := t.progress[player].Level
	t.progress[player].Level = from + moved
	return moved, PowerGain(from, from+moved)
}

// SetLevel places the player directly at level without awarding power.
// Used for starting positions.
func (t *Track) SetLevel(player, level int) {
	if !t.valid(player) {
		return
	}
	t.progress[player].Level = min(max(level, 0), t.ceiling(player))
}

// GiveKey lets the player reach the top level.
func (t *Track) GiveKey(player int) {
	if !t.valid(player) {
		return
	}
	t.progress[player].HasKey = true
}

// AvailableSpots returns the indexes of unoccupied priest spots.
func (t *Track) AvailableSpots() []int {
	available := make([]int, 0, NumPriestSpots)
	for i, spot := range t.spots {
		if spot.Player == Unoccupied {
			available = append(available, i)
		}
	}
	return available
}

// Spot returns the spot at index i.
func (t *Track) Spot(i int) Spot {
	return t.spots[i]
}

// SpotsHeldBy counts the spots occupied by the player.
func (t *Track) SpotsHeldBy(player int) int {
	n := 0
	for _, spot := range t.spots {
		if spot.Player == player {
			n++
		}
	}
	return n
}

// bestSpot returns the free spot with the largest advancement, lowest index first.
func (t *Track) bestSpot() (int, bool) {
	best := -1
	for i, spot := range t.spots {
		if spot.Player != Unoccupied {
			continue
		}
		if best == -1 || spot.Advancement > t.spots[best].Advancement {
			best = i
		}
	}
	return best, best != -1
}

// Placement describes the outcome of sending a priest.
type Placement struct {
	Spot   int // -1 when sacrificed or nothing happened
	Levels int
	Power  int
}

// PlacePriest sends a priest of player to the track. A sacrificed priest advances
// the player one level. Otherwise the priest occupies the best free spot for good
// and advances the player by its value. With no free spot nothing happens.
func (t *Track) PlacePriest(player int, sacrifice bool) Placement {
	if !t.valid(player) {
		return Placement{Spot: -1}
	}
	if sacrifice {
		levels, power := t.Advance(player, 1)
		return Placement{Spot: -1, Levels: levels, Power: power}
	}

	idx, ok := t.bestSpot()
	if !ok {
		return Placement{Spot: -1}
	}
	t.spots[idx].Player = player
	levels, power := t.Advance(player, t.spots[idx].Advancement)
	return Placement{Spot: idx, Levels: levels, Power: power}
}

// Clone returns an independent copy of the track.
func (t *Track) Clone() *Track {
	c := &Track{spots: t.spots, progress: make([]Progress, len(t.progress))}
	copy(c.progress, t.progress)
	return c
}
