package game

import (
	"time"

	"github.com/terrabots/terra-server-go/internal/game/board"
	"github.com/terrabots/terra-server-go/internal/game/building"
	"github.com/terrabots/terra-server-go/internal/game/cult"
)

// GameView is the complete public state of a hosted game.
type GameView struct {
	GameID        string          `json:"game_id"`
	Phase         string          `json:"phase"`
	Round         int             `json:"round"`
	MaxRounds     int             `json:"max_rounds"`
	TurnPlayer    int             `json:"turn_player"`
	CurrentPlayer int             `json:"current_player"`
	Finished      bool            `json:"finished"`
	Players       []PlayerView    `json:"players"`
	Hexes         []HexView       `json:"hexes"`
	Cults         []CultView      `json:"cults"`
	Bridges       []Bridge        `json:"bridges"`
	PowerActions  map[string]bool `json:"power_actions_used"`
	Offer         *PendingOffer   `json:"offer,omitempty"`
	Spades        PendingSpades   `json:"spades"`
	Legal         []Action        `json:"legal_actions"`
	Checksum      string          `json:"checksum"`
	Returns       []float64       `json:"returns"`
	StartedAt     time.Time       `json:"started_at"`
}

// PlayerView is one seat.
type PlayerView struct {
	Seat    int             `json:"seat"`
	Faction string          `json:"faction"`
	Home    string          `json:"home"`
	Res     PlayerResources `json:"resources"`
	Cult    map[string]int  `json:"cult"`
}

// HexView is one board hex.
type HexView struct {
	Index    int    `json:"index"`
	Q        int    `json:"q"`
	R        int    `json:"r"`
	Terrain  string `json:"terrain"`
	Building string `json:"building,omitempty"`
	Owner    int    `json:"owner"`
}

// CultView is one cult track's priest spots; -1 marks a free spot.
type CultView struct {
	Track string `json:"track"`
	Spots []int  `json:"spots"`
}

// View renders the state for clients.
func (s *State) View(gameID string, startedAt time.Time) GameView {
	v := GameView{
		GameID:        gameID,
		Phase:         s.Phase().String(),
		Round:         s.Round(),
		MaxRounds:     s.turns.MaxRounds(),
		TurnPlayer:    s.TurnPlayer(),
		CurrentPlayer: s.CurrentPlayer(),
		Finished:      s.IsTerminal(),
		Bridges:       s.Bridges(),
		PowerActions:  make(map[string]bool, len(PowerActions())),
		Spades:        s.spades,
		Legal:         s.LegalActions(),
		Checksum:      s.Checksum(),
		Returns:       s.Returns(),
		StartedAt:     startedAt,
	}
	if o, ok := s.Offer(); ok {
		v.Offer = &o
	}
	for _, pa := range PowerActions() {
		v.PowerActions[pa.String()] = s.usedPowerActions[pa]
	}

	for i := range s.players {
		pv := PlayerView{
			Seat:    i,
			Faction: s.factions[i].Name,
			Home:    s.factions[i].Home.String(),
			Res:     s.players[i],
			Cult:    make(map[string]int, cult.NumTracks),
		}
		for _, c := range cult.Types() {
			pv.Cult[c.String()] = s.cults.Progress(i, c).Level
		}
		v.Players = append(v.Players, pv)
	}

	m, _ := s.board.(*board.Map)
	for h := 0; h < s.board.NumHexes(); h++ {
		hv := HexView{
			Index:   h,
			Terrain: s.board.Terrain(h).String(),
			Owner:   s.board.Owner(h),
		}
		if b := s.board.Building(h); b != building.None {
			hv.Building = b.String()
		}
		if m != nil {
			if hex, ok := m.Hex(h); ok {
				hv.Q, hv.R = hex.Coord.Q, hex.Coord.R
			}
		}
		v.Hexes = append(v.Hexes, hv)
	}

	for _, c := range cult.Types() {
		track := s.cults.Track(c)
		cv := CultView{Track: c.String(), Spots: make([]int, cult.NumPriestSpots)}
		for i := range cv.Spots {
			cv.Spots[i] = track.Spot(i).Player
		}
		v.Cults = append(v.Cults, cv)
	}
	return v
}
