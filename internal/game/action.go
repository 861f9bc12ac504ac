package game

import (
	"fmt"

	"github.com/terrabots/terra-server-go/internal/game/building"
	"github.com/terrabots/terra-server-go/internal/game/cult"
	"github.com/terrabots/terra-server-go/internal/game/terraform"
)

// ActionKind tags an action descriptor.
type ActionKind string

const (
	ActionTransform       ActionKind = "transform"
	ActionTransformBuild  ActionKind = "transform-build"
	ActionBuild           ActionKind = "build"
	ActionUpgrade         ActionKind = "upgrade"
	ActionSendPriest      ActionKind = "send-priest"
	ActionPower           ActionKind = "power-action"
	ActionAcceptPower     ActionKind = "accept-power"
	ActionDeclinePower    ActionKind = "decline-power"
	ActionPowerToPriest   ActionKind = "power-to-priest"
	ActionPowerToWorker   ActionKind = "power-to-worker"
	ActionPowerToCoin     ActionKind = "power-to-coin"
	ActionPriestToWorker  ActionKind = "priest-to-worker"
	ActionWorkerToCoin    ActionKind = "worker-to-coin"
	ActionBurnPower       ActionKind = "burn-power"
	ActionSpade           ActionKind = "spade"
	ActionAdvanceShipping ActionKind = "advance-shipping"
	ActionAdvanceExchange ActionKind = "advance-exchange"
	ActionEndTurn         ActionKind = "end-turn"
)

// PowerAction is one of the shared once-per-round power actions.
type PowerAction int

const (
	PowerBridge PowerAction = iota
	PowerPriest
	PowerWorkers
	PowerCoins
	PowerSpade
	PowerDoubleSpade
)

var powerActionNames = map[PowerAction]string{
	PowerBridge:      "BRIDGE",
	PowerPriest:      "PRIEST",
	PowerWorkers:     "WORKERS",
	PowerCoins:       "COINS",
	PowerSpade:       "SPADE",
	PowerDoubleSpade: "DOUBLE_SPADE",
}

var powerActionCosts = map[PowerAction]int{
	PowerBridge:      3,
	PowerPriest:      3,
	PowerWorkers:     4,
	PowerCoins:       4,
	PowerSpade:       4,
	PowerDoubleSpade: 6,
}

// Resources granted by the non-spade power actions.
const (
	powerWorkersGain = 2
	powerCoinsGain   = 7
)

func (p PowerAction) String() string {
	if name, ok := powerActionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("POWER_ACTION_%d", int(p))
}

// Cost returns the power spent from bowl 3.
func (p PowerAction) Cost() int {
	return powerActionCosts[p]
}

// Spades returns how many spades the action grants.
func (p PowerAction) Spades() int {
	switch p {
	case PowerSpade:
		return 1
	case PowerDoubleSpade:
		return 2
	default:
		return 0
	}
}

// PowerActions lists the power actions in board order.
func PowerActions() []PowerAction {
	return []PowerAction{PowerBridge, PowerPriest, PowerWorkers, PowerCoins, PowerSpade, PowerDoubleSpade}
}

// Action is a tagged action descriptor. Only the fields relevant to Kind are set,
// so two descriptors for the same move compare equal.
type Action struct {
	Kind      ActionKind        `json:"kind"`
	Hex       int               `json:"hex,omitempty"`
	Hex2      int               `json:"hex2,omitempty"`
	Terrain   terraform.Terrain `json:"terrain,omitempty"`
	Building  building.Type     `json:"building,omitempty"`
	Cult      cult.Type         `json:"cult,omitempty"`
	Sacrifice bool              `json:"sacrifice,omitempty"`
	Amount    int               `json:"amount,omitempty"`
	Power     PowerAction       `json:"power,omitempty"`
	Build     bool              `json:"build,omitempty"`
}

func (a Action) String() string {
	switch a.Kind {
	case ActionTransform, ActionTransformBuild:
		return fmt.Sprintf("%s(hex=%d, terrain=%s)", a.Kind, a.Hex, a.Terrain)
	case ActionBuild:
		return fmt.Sprintf("%s(hex=%d)", a.Kind, a.Hex)
	case ActionUpgrade:
		return fmt.Sprintf("%s(hex=%d, to=%s)", a.Kind, a.Hex, a.Building)
	case ActionSendPriest:
		return fmt.Sprintf("%s(cult=%s, sacrifice=%t)", a.Kind, a.Cult, a.Sacrifice)
	case ActionPower:
		if a.Power == PowerBridge {
			return fmt.Sprintf("%s(%s, %d-%d)", a.Kind, a.Power, a.Hex, a.Hex2)
		}
		return fmt.Sprintf("%s(%s)", a.Kind, a.Power)
	case ActionBurnPower:
		return fmt.Sprintf("%s(%d)", a.Kind, a.Amount)
	case ActionSpade:
		return fmt.Sprintf("%s(hex=%d, terrain=%s, build=%t)", a.Kind, a.Hex, a.Terrain, a.Build)
	default:
		return string(a.Kind)
	}
}

// Transform turns hex into terrain t.
func Transform(hex int, t terraform.Terrain) Action {
	return Action{Kind: ActionTransform, Hex: hex, Terrain: t}
}

// TransformBuild turns hex into terrain t and places a dwelling on it.
func TransformBuild(hex int, t terraform.Terrain) Action {
	return Action{Kind: ActionTransformBuild, Hex: hex, Terrain: t}
}

// Build places a dwelling on hex.
func Build(hex int) Action {
	return Action{Kind: ActionBuild, Hex: hex}
}

// Upgrade replaces the building on hex with b.
func Upgrade(hex int, b building.Type) Action {
	return Action{Kind: ActionUpgrade, Hex: hex, Building: b}
}

// SendPriest sends a priest to cult track c.
func SendPriest(c cult.Type, sacrifice bool) Action {
	return Action{Kind: ActionSendPriest, Cult: c, Sacrifice: sacrifice}
}

// TakePower takes a non-bridge power action.
func TakePower(p PowerAction) Action {
	return Action{Kind: ActionPower, Power: p}
}

// TakeBridge builds a bridge between a and b, lowest hex first.
func TakeBridge(a, b int) Action {
	if b < a {
		a, b = b, a
	}
	return Action{Kind: ActionPower, Power: PowerBridge, Hex: a, Hex2: b}
}

// AcceptPower takes the pending power offer.
func AcceptPower() Action { return Action{Kind: ActionAcceptPower} }

// DeclinePower refuses the pending power offer.
func DeclinePower() Action { return Action{Kind: ActionDeclinePower} }

// Convert performs a one-unit resource conversion of the given kind.
func Convert(kind ActionKind) Action { return Action{Kind: kind} }

// Burn moves amount tokens to bowl 3 by burning twice as many from bowl 2.
func Burn(amount int) Action { return Action{Kind: ActionBurnPower, Amount: amount} }

// UseSpade consumes pending spades on hex, optionally building a dwelling.
func UseSpade(hex int, t terraform.Terrain, build bool) Action {
	return Action{Kind: ActionSpade, Hex: hex, Terrain: t, Build: build}
}

// AdvanceShipping moves up the shipping track.
func AdvanceShipping() Action { return Action{Kind: ActionAdvanceShipping} }

// AdvanceExchange moves up the exchange track.
func AdvanceExchange() Action { return Action{Kind: ActionAdvanceExchange} }

// EndTurn hands the turn on.
func EndTurn() Action { return Action{Kind: ActionEndTurn} }
