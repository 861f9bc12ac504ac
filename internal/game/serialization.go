package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/terrabots/terra-server-go/internal/game/cult"
)

// Checksum returns a SHA-256 digest of a canonical rendering of the state. Two
// states with equal checksums are indistinguishable to the rules. The event bus
// and logger are not part of the state.
func (s *State) Checksum() string {
	sum := sha256.Sum256(s.canonical())
	return hex.EncodeToString(sum[:])
}

// canonical renders every rules-relevant field in a fixed order, independent of
// map iteration order.
func (s *State) canonical() []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "TURN:%s|%d|%d|%d|%d\n",
		s.turns.Phase(),
		s.turns.Round(),
		s.turns.MaxRounds(),
		s.turns.TurnNumber(),
		s.turns.CurrentPlayer(),
	)
	fmt.Fprintf(&buf, "RULES:%s\n", s.opts.Rotation)

	for i, r := range s.players {
		fmt.Fprintf(&buf, "PLAYER:%d|%s|%d|%d|%d|%d/%d/%d|%d|%d|%d\n",
			i,
			s.factions[i].Name,
			r.Workers,
			r.Coins,
			r.Priests,
			r.Power.Bowl1, r.Power.Bowl2, r.Power.Bowl3,
			r.Shipping,
			r.Exchange,
			r.VictoryPoints,
		)
		for _, c := range cult.Types() {
			pr := s.cults.Progress(i, c)
			fmt.Fprintf(&buf, "  CULT:%s=%d|%t\n", c, pr.Level, pr.HasKey)
		}
	}

	for _, c := range cult.Types() {
		buf.WriteString("SPOTS:" + c.String())
		track := s.cults.Track(c)
		for i := 0; i < cult.NumPriestSpots; i++ {
			fmt.Fprintf(&buf, "|%d", track.Spot(i).Player)
		}
		buf.WriteString("\n")
	}

	for h := 0; h < s.board.NumHexes(); h++ {
		fmt.Fprintf(&buf, "HEX:%d|%s|%s|%d|%v\n",
			h,
			s.board.Terrain(h),
			s.board.Building(h),
			s.board.Owner(h),
			s.board.AdjacentHexes(h),
		)
	}

	used := make([]int, 0, len(s.usedPowerActions))
	for pa, ok := range s.usedPowerActions {
		if ok {
			used = append(used, int(pa))
		}
	}
	sort.Ints(used)
	fmt.Fprintf(&buf, "USED:%v\n", used)

	// Bridges keep build order.
	for _, b := range s.bridges {
		fmt.Fprintf(&buf, "BRIDGE:%d-%d|%d\n", b.A, b.B, b.Owner)
	}

	if s.offer != nil {
		fmt.Fprintf(&buf, "OFFER:%d|%d|%d\n", s.offer.Hex, s.offer.Owner, s.offer.Candidate)
	} else {
		buf.WriteString("OFFER:-\n")
	}
	fmt.Fprintf(&buf, "SPADES:%d|%t\n", s.spades.Count, s.spades.CanBuild)

	return buf.Bytes()
}
