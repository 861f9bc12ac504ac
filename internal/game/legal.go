package game

import (
	"github.com/terrabots/terra-server-go/internal/game/building"
	"github.com/terrabots/terra-server-go/internal/game/cult"
	"github.com/terrabots/terra-server-go/internal/game/power"
	"github.com/terrabots/terra-server-go/internal/game/rules"
	"github.com/terrabots/terra-server-go/internal/game/terraform"
	"github.com/terrabots/terra-server-go/internal/game/tracks"
)

// bill is a combined price in workers, coins and priests.
type bill struct {
	workers int
	coins   int
	priests int
}

func (b bill) plus(o bill) bill {
	return bill{workers: b.workers + o.workers, coins: b.coins + o.coins, priests: b.priests + o.priests}
}

func (r PlayerResources) covers(b bill) bool {
	return r.Workers >= b.workers && r.Coins >= b.coins && r.Priests >= b.priests
}

func (r *PlayerResources) pay(b bill) {
	r.Workers -= b.workers
	r.Coins -= b.coins
	r.Priests -= b.priests
}

func (r PlayerResources) holdings() tracks.Holdings {
	return tracks.Holdings{Workers: r.Workers, Coins: r.Coins, Priests: r.Priests}
}

func buildingBill(c building.Cost) bill {
	return bill{workers: c.Workers, coins: c.Coins}
}

func trackBill(c tracks.Cost) bill {
	return bill{workers: c.Workers, coins: c.Coins, priests: c.Priests}
}

// spadeBill charges amount of whatever resource p pays spades in.
func spadeBill(p terraform.Policy, amount int) bill {
	if p.Resource == terraform.Priests {
		return bill{priests: amount}
	}
	return bill{workers: amount}
}

// LegalActions returns the actions the current player may take, in a fixed order
// and without duplicates. A pending power offer overrides everything else; a
// pending spade sequence restricts the set to spade use.
func (s *State) LegalActions() []Action {
	if s.IsTerminal() {
		return nil
	}
	if s.offer != nil {
		return []Action{AcceptPower(), DeclinePower()}
	}

	p := s.turns.CurrentPlayer()
	if s.spades.Count > 0 {
		return s.spadeActions(p)
	}
	if s.turns.Phase() == rules.PhaseSetup {
		return s.setupActions(p)
	}

	var out []Action
	out = append(out, s.conversionActions(p)...)
	out = append(out, s.powerActionChoices(p)...)
	out = append(out, s.transformActions(p)...)
	out = append(out, s.buildActions(p)...)
	out = append(out, s.upgradeActions(p)...)
	out = append(out, s.priestActions(p)...)
	out = append(out, s.trackActions(p)...)
	out = append(out, EndTurn())
	return out
}

func (s *State) setupActions(p int) []Action {
	var out []Action
	home := s.factions[p].Home
	for h := 0; h < s.board.NumHexes(); h++ {
		if s.board.Terrain(h) == home && s.board.Building(h) == building.None {
			out = append(out, Build(h))
		}
	}
	if len(out) == 0 {
		out = append(out, EndTurn())
	}
	return out
}

func (s *State) conversionActions(p int) []Action {
	r := s.players[p]
	var out []Action
	if r.Power.Available() >= power.PriestCost && s.priestsInPlay(p) < MaxPriests {
		out = append(out, Convert(ActionPowerToPriest))
	}
	if r.Power.Available() >= power.WorkerCost {
		out = append(out, Convert(ActionPowerToWorker))
	}
	if r.Power.Available() >= power.CoinCost {
		out = append(out, Convert(ActionPowerToCoin))
	}
	if r.Priests >= 1 {
		out = append(out, Convert(ActionPriestToWorker))
	}
	if r.Workers >= 1 {
		out = append(out, Convert(ActionWorkerToCoin))
	}
	for n := 1; n <= r.Power.MaxBurn(); n++ {
		out = append(out, Burn(n))
	}
	return out
}

func (s *State) powerActionAvailable(p int, pa PowerAction) bool {
	if s.usedPowerActions[pa] || s.players[p].Power.Available() < pa.Cost() {
		return false
	}
	if pa == PowerPriest && s.priestsInPlay(p) >= MaxPriests {
		return false
	}
	return true
}

func (s *State) powerActionChoices(p int) []Action {
	var out []Action
	for _, pa := range PowerActions() {
		if !s.powerActionAvailable(p, pa) {
			continue
		}
		if pa == PowerBridge {
			out = append(out, s.bridgeActions(p)...)
			continue
		}
		out = append(out, TakePower(pa))
	}
	return out
}

// transformable reports whether hex is an empty hex player can reach.
func (s *State) transformable(p, hex int) bool {
	return s.board.Building(hex) == building.None &&
		s.board.Terrain(hex).Transformable() &&
		s.board.IsIndirectlyConnected(hex, p, s.players[p].Shipping)
}

func (s *State) canPlaceDwelling(p int) bool {
	return s.buildingCount(p, building.Dwelling) < building.SupplyLimit(building.Dwelling)
}

// transformBill prices turning hex into t, and whether the policy allows it.
func (s *State) transformBill(p, hex int, t terraform.Terrain) (bill, bool) {
	info := s.factions[p]
	cost, ok := terraform.Cost(s.board.Terrain(hex), t, s.players[p].Exchange, info.Spades)
	if !ok {
		return bill{}, false
	}
	return spadeBill(info.Spades, cost), true
}

func (s *State) transformActions(p int) []Action {
	var out []Action
	info := s.factions[p]
	r := s.players[p]
	dwelling := buildingBill(info.BuildingCost(building.Dwelling))

	for h := 0; h < s.board.NumHexes(); h++ {
		if !s.transformable(p, h) {
			continue
		}
		for _, t := range terraform.Wheel() {
			b, ok := s.transformBill(p, h, t)
			if !ok || !r.covers(b) {
				continue
			}
			out = append(out, Transform(h, t))
			if t == info.Home && s.canPlaceDwelling(p) && r.covers(b.plus(dwelling)) {
				out = append(out, TransformBuild(h, t))
			}
		}
	}
	return out
}

func (s *State) buildActions(p int) []Action {
	info := s.factions[p]
	if !s.canPlaceDwelling(p) || !s.players[p].covers(buildingBill(info.BuildingCost(building.Dwelling))) {
		return nil
	}
	var out []Action
	for h := 0; h < s.board.NumHexes(); h++ {
		if s.transformable(p, h) && s.board.Terrain(h) == info.Home {
			out = append(out, Build(h))
		}
	}
	return out
}

// hasAdjacentOpponent reports whether another player has a building next to hex.
func (s *State) hasAdjacentOpponent(p, hex int) bool {
	for _, n := range s.board.AdjacentHexes(hex) {
		if s.board.Building(n) != building.None && s.board.Owner(n) != p {
			return true
		}
	}
	return false
}

// upgradeBill prices replacing the building on hex with to.
func (s *State) upgradeBill(p, hex int, to building.Type) (bill, bool) {
	if !s.ownsBuilding(hex, p) {
		return bill{}, false
	}
	if s.buildingCount(p, to) >= building.SupplyLimit(to) {
		return bill{}, false
	}
	cost, ok := building.UpgradeCost(s.board.Building(hex), to, s.factions[p].Costs, s.hasAdjacentOpponent(p, hex))
	if !ok {
		return bill{}, false
	}
	return buildingBill(cost), true
}

func (s *State) upgradeActions(p int) []Action {
	var out []Action
	for h := 0; h < s.board.NumHexes(); h++ {
		if !s.ownsBuilding(h, p) {
			continue
		}
		for _, to := range building.Upgrades(s.board.Building(h)) {
			if b, ok := s.upgradeBill(p, h, to); ok && s.players[p].covers(b) {
				out = append(out, Upgrade(h, to))
			}
		}
	}
	return out
}

func (s *State) priestActions(p int) []Action {
	if s.players[p].Priests < 1 {
		return nil
	}
	var out []Action
	for _, c := range cult.Types() {
		track := s.cults.Track(c)
		if track.Headroom(p) == 0 {
			continue
		}
		if len(track.AvailableSpots()) > 0 {
			out = append(out, SendPriest(c, false))
		}
		out = append(out, SendPriest(c, true))
	}
	return out
}

func (s *State) trackActions(p int) []Action {
	var out []Action
	info := s.factions[p]
	r := s.players[p]
	if info.Shipping.CanAdvance(r.Shipping, r.holdings()) {
		out = append(out, AdvanceShipping())
	}
	if info.Exchange.CanAdvance(r.Exchange, r.holdings()) {
		out = append(out, AdvanceExchange())
	}
	return out
}

// spadeUse is the outcome of spending pending spades on one hex.
type spadeUse struct {
	applied int
	cost    bill
}

// planSpade prices turning hex into t with the pending spades. Spades the
// sequence does not cover are paid at the normal rate.
func (s *State) planSpade(p, hex int, t terraform.Terrain) (spadeUse, bool) {
	if !s.transformable(p, hex) {
		return spadeUse{}, false
	}
	info := s.factions[p]
	from := s.board.Terrain(hex)
	if !terraform.Allowed(from, t, info.Spades) {
		return spadeUse{}, false
	}
	needed := terraform.SpadesNeeded(from, t, info.Spades)
	applied := min(needed, s.spades.Count)
	missing := terraform.CostForSpades(needed-applied, s.players[p].Exchange, info.Spades)
	return spadeUse{applied: applied, cost: spadeBill(info.Spades, missing)}, true
}

func (s *State) spadeActions(p int) []Action {
	var out []Action
	info := s.factions[p]
	r := s.players[p]
	dwelling := buildingBill(info.BuildingCost(building.Dwelling))

	for h := 0; h < s.board.NumHexes(); h++ {
		for _, t := range terraform.Wheel() {
			use, ok := s.planSpade(p, h, t)
			if !ok || !r.covers(use.cost) {
				continue
			}
			out = append(out, UseSpade(h, t, false))
			if s.spades.CanBuild && t == info.Home && s.canPlaceDwelling(p) && r.covers(use.cost.plus(dwelling)) {
				out = append(out, UseSpade(h, t, true))
			}
		}
	}
	if len(out) == 0 {
		out = append(out, EndTurn())
	}
	return out
}
