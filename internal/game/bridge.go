package game

import (
	"sort"

	"github.com/terrabots/terra-server-go/internal/game/terraform"
)

func normalizePair(a, b int) (int, int) {
	if b < a {
		return b, a
	}
	return a, b
}

func (s *State) bridgeCount(player int) int {
	n := 0
	for _, b := range s.bridges {
		if b.Owner == player {
			n++
		}
	}
	return n
}

// HasBridge reports whether a and b are already bridged, in either order.
func (s *State) HasBridge(a, b int) bool {
	a, b = normalizePair(a, b)
	for _, br := range s.bridges {
		if br.A == a && br.B == b {
			return true
		}
	}
	return false
}

// CanBuildBridge reports whether player may bridge a and b: fewer than two
// bridges so far, exactly one river hex between them, a building of the player
// on one end, and no bridge there yet.
func (s *State) CanBuildBridge(player, a, b int) bool {
	if player < 0 || player >= len(s.players) {
		return false
	}
	if s.bridgeCount(player) >= MaxBridges || s.HasBridge(a, b) {
		return false
	}
	if _, ok := s.board.RiverBetween(a, b); !ok {
		return false
	}
	return s.ownsBuilding(a, player) || s.ownsBuilding(b, player)
}

// bridgeActions enumerates every bridge player may build, sorted by endpoints.
func (s *State) bridgeActions(player int) []Action {
	if s.bridgeCount(player) >= MaxBridges {
		return nil
	}
	type pair struct{ a, b int }
	seen := make(map[pair]bool)
	var pairs []pair

	for h := 0; h < s.board.NumHexes(); h++ {
		if !s.ownsBuilding(h, player) {
			continue
		}
		for _, river := range s.board.AdjacentHexes(h) {
			if s.board.Terrain(river) != terraform.River {
				continue
			}
			for _, other := range s.board.AdjacentHexes(river) {
				if other == h {
					continue
				}
				if between, ok := s.board.RiverBetween(h, other); !ok || between != river {
					continue
				}
				a, b := normalizePair(h, other)
				if seen[pair{a, b}] || !s.CanBuildBridge(player, a, b) {
					continue
				}
				seen[pair{a, b}] = true
				pairs = append(pairs, pair{a, b})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	out := make([]Action, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, TakeBridge(p.a, p.b))
	}
	return out
}

func (s *State) addBridge(player, a, b int) {
	a, b = normalizePair(a, b)
	s.bridges = append(s.bridges, Bridge{A: a, B: b, Owner: player})
	s.board.Connect(a, b)
}
