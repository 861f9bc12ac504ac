// Package board holds the hex map the rules engine plays on.
// Hexes are laid out in offset rows and addressed by a dense index.
package board

import (
	"fmt"
	"slices"

	"github.com/terrabots/terra-server-go/internal/game/building"
	"github.com/terrabots/terra-server-go/internal/game/terraform"
)

// NoOwner marks a hex without a building.
const NoOwner = -1

// Board is the geometry and occupancy view the engine needs.
type Board interface {
	NumHexes() int
	AdjacentHexes(hex int) []int
	// IsIndirectlyConnected reports whether player owns a building next to hex,
	// or one reachable across at most shipping river hexes.
	IsIndirectlyConnected(hex, player, shipping int) bool
	Terrain(hex int) terraform.Terrain
	Building(hex int) building.Type
	Owner(hex int) int
	// RiverBetween returns the single river hex separating a and b.
	RiverBetween(a, b int) (int, bool)

	SetTerrain(hex int, t terraform.Terrain)
	SetBuilding(hex int, b building.Type, owner int)
	// Connect makes a and b adjacent, as a bridge does.
	Connect(a, b int)

	Clone() Board
}

// Coord is an axial hex coordinate.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

var neighborDirections = [6]Coord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// offsetToAxial converts an odd-row offset position to axial coordinates.
func offsetToAxial(row, col int) Coord {
	return Coord{Q: col - (row-(row&1))/2, R: row}
}

// Hex is the state of one board space.
type Hex struct {
	Coord    Coord
	Terrain  terraform.Terrain
	Building building.Type
	Owner    int
}

// Map is the standard Board implementation.
type Map struct {
	hexes []Hex
	index map[Coord]int
	// geo is the fixed grid adjacency; adj adds bridges on top of it.
	geo [][]int
	adj [][]int
}

// NewMap builds a map from rows of terrain. Odd rows are shifted half a hex right.
func NewMap(rows [][]terraform.Terrain) (*Map, error) {
	m := &Map{index: make(map[Coord]int)}
	for r, row := range rows {
		for c, t := range row {
			if !t.Valid() {
				return nil, fmt.Errorf("row %d col %d: invalid terrain %d", r, c, int(t))
			}
			coord := offsetToAxial(r, c)
			m.index[coord] = len(m.hexes)
			m.hexes = append(m.hexes, Hex{Coord: coord, Terrain: t, Owner: NoOwner})
		}
	}
	if len(m.hexes) == 0 {
		return nil, fmt.Errorf("board has no hexes")
	}

	m.geo = make([][]int, len(m.hexes))
	m.adj = make([][]int, len(m.hexes))
	for i, h := range m.hexes {
		for _, d := range neighborDirections {
			if j, ok := m.index[Coord{Q: h.Coord.Q + d.Q, R: h.Coord.R + d.R}]; ok {
				m.geo[i] = append(m.geo[i], j)
			}
		}
		slices.Sort(m.geo[i])
		m.adj[i] = slices.Clone(m.geo[i])
	}
	return m, nil
}

func (m *Map) valid(hex int) bool {
	return hex >= 0 && hex < len(m.hexes)
}

// NumHexes returns the number of hexes on the map.
func (m *Map) NumHexes() int {
	return len(m.hexes)
}

// Hex returns a copy of the hex at index hex.
func (m *Map) Hex(hex int) (Hex, bool) {
	if !m.valid(hex) {
		return Hex{}, false
	}
	return m.hexes[hex], true
}

// Index returns the hex at an axial coordinate.
func (m *Map) Index(c Coord) (int, bool) {
	i, ok := m.index[c]
	return i, ok
}

// AdjacentHexes returns the neighbours of hex in ascending order, bridges included.
func (m *Map) AdjacentHexes(hex int) []int {
	if !m.valid(hex) {
		return nil
	}
	return slices.Clone(m.adj[hex])
}

func (m *Map) Terrain(hex int) terraform.Terrain {
	if !m.valid(hex) {
		return terraform.River
	}
	return m.hexes[hex].Terrain
}

func (m *Map) Building(hex int) building.Type {
	if !m.valid(hex) {
		return building.None
	}
	return m.hexes[hex].Building
}

func (m *Map) Owner(hex int) int {
	if !m.valid(hex) {
		return NoOwner
	}
	return m.hexes[hex].Owner
}

func (m *Map) SetTerrain(hex int, t terraform.Terrain) {
	if m.valid(hex) {
		m.hexes[hex].Terrain = t
	}
}

// SetBuilding places b for owner. Placing building.None clears the hex.
func (m *Map) SetBuilding(hex int, b building.Type, owner int) {
	if !m.valid(hex) {
		return
	}
	if b == building.None {
		owner = NoOwner
	}
	m.hexes[hex].Building = b
	m.hexes[hex].Owner = owner
}

func (m *Map) ownedBy(hex, player int) bool {
	return m.hexes[hex].Building != building.None && m.hexes[hex].Owner == player
}

func (m *Map) IsIndirectlyConnected(hex, player, shipping int) bool {
	if !m.valid(hex) {
		return false
	}
	for _, n := range m.adj[hex] {
		if m.ownedBy(n, player) {
			return true
		}
	}
	if shipping <= 0 {
		return false
	}

	// Walk the river outward from hex, one river hex per shipping step.
	visited := map[int]bool{hex: true}
	frontier := []int{hex}
	for depth := 1; depth <= shipping && len(frontier) > 0; depth++ {
		var next []int
		for _, h := range frontier {
			for _, n := range m.adj[h] {
				if visited[n] || m.hexes[n].Terrain != terraform.River {
					continue
				}
				visited[n] = true
				next = append(next, n)
			}
		}
		for _, river := range next {
			for _, n := range m.adj[river] {
				if n != hex && m.ownedBy(n, player) {
					return true
				}
			}
		}
		frontier = next
	}
	return false
}

func (m *Map) RiverBetween(a, b int) (int, bool) {
	if !m.valid(a) || !m.valid(b) || a == b {
		return 0, false
	}
	if m.hexes[a].Terrain == terraform.River || m.hexes[b].Terrain == terraform.River {
		return 0, false
	}
	if slices.Contains(m.geo[a], b) {
		return 0, false
	}

	common := -1
	shared := 0
	for _, n := range m.geo[a] {
		if slices.Contains(m.geo[b], n) {
			common = n
			shared++
		}
	}
	if shared != 1 || m.hexes[common].Terrain != terraform.River {
		return 0, false
	}
	return common, true
}

func (m *Map) Connect(a, b int) {
	if !m.valid(a) || !m.valid(b) || a == b {
		return
	}
	m.adj[a] = insertSorted(m.adj[a], b)
	m.adj[b] = insertSorted(m.adj[b], a)
}

func insertSorted(s []int, v int) []int {
	i, found := slices.BinarySearch(s, v)
	if found {
		return s
	}
	return slices.Insert(s, i, v)
}

// Clone returns a deep copy. Coordinates are immutable and shared.
func (m *Map) Clone() Board {
	c := &Map{
		hexes: slices.Clone(m.hexes),
		index: m.index,
		geo:   m.geo,
		adj:   make([][]int, len(m.adj)),
	}
	for i, a := range m.adj {
		c.adj[i] = slices.Clone(a)
	}
	return c
}
