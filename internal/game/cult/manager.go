package cult

// Manager owns the four cult tracks of a game.
type Manager struct {
	tracks [NumTracks]*Track
}

// NewManager creates all tracks for numPlayers.
func NewManager(numPlayers int) *Manager {
	m := &Manager{}
	for i := range m.tracks {
		m.tracks[i] = NewTrack(numPlayers)
	}
	return m
}

// Track returns the track for cult type c, or nil for an unknown type.
func (m *Manager) Track(c Type) *Track {
	if !c.Valid() {
		return nil
	}
	return m.tracks[c]
}

// PlacePriest sends a priest of player to track c.
func (m *Manager) PlacePriest(player int, c Type, sacrifice bool) Placement {
	t := m.Track(c)
	if t == nil {
		return Placement{Spot: -1}
	}
	return t.PlacePriest(player, sacrifice)
}

// Advance moves player up track c without placing a priest.
func (m *Manager) Advance(player int, c Type, steps int) (moved, power int) {
	t := m.Track(c)
	if t == nil {
		return 0, 0
	}
	return t.Advance(player, steps)
}

// Progress returns the player's position on track c.
func (m *Manager) Progress(player int, c Type) Progress {
	t := m.Track(c)
	if t == nil {
		return Progress{}
	}
	return t.Progress(player)
}

// GiveKey unlocks the top level of track c for player.
func (m *Manager) GiveKey(player int, c Type) {
	if t := m.Track(c); t != nil {
		t.GiveKey(player)
	}
}

// SetStartingLevels places player on every track without awarding power.
func (m *Manager) SetStartingLevels(player int, levels [NumTracks]int) {
	for i, t := range m.tracks {
		t.SetLevel(player, levels[i])
	}
}

// PriestsOnTracks counts the priest spots player occupies across all tracks.
func (m *Manager) PriestsOnTracks(player int) int {
	n := 0
	for _, t := range m.tracks {
		n += t.SpotsHeldBy(player)
	}
	return n
}

// Clone returns an independent copy of every track.
func (m *Manager) Clone() *Manager {
	c := &Manager{}
	for i, t := range m.tracks {
		c.tracks[i] = t.Clone()
	}
	return c
}
