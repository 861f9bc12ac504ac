package building

import (
	"fmt"
	"strings"
)

// Type is a structure that can stand on a hex.
type Type int

const (
	None Type = iota
	Dwelling
	TradingPost
	Temple
	Stronghold
	Sanctuary
)

var typeNames = map[Type]string{
	None:        "NONE",
	Dwelling:    "DWELLING",
	TradingPost: "TRADING_POST",
	Temple:      "TEMPLE",
	Stronghold:  "STRONGHOLD",
	Sanctuary:   "SANCTUARY",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("BUILDING_%d", int(t))
}

// ParseType maps a building name back to its Type.
func ParseType(s string) (Type, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown building %q", s)
}

// Types lists every placeable building.
func Types() []Type {
	return []Type{Dwelling, TradingPost, Temple, Stronghold, Sanctuary}
}

// PowerValue is the power a building offers to neighbouring players.
func (t Type) PowerValue() int {
	switch t {
	case Dwelling:
		return 1
	case TradingPost, Temple:
		return 2
	case Stronghold, Sanctuary:
		return 3
	default:
		return 0
	}
}

// supplyLimits is how many of each building a player owns in total.
var supplyLimits = map[Type]int{
	Dwelling:    8,
	TradingPost: 4,
	Temple:      3,
	Stronghold:  1,
	Sanctuary:   1,
}

// SupplyLimit returns how many buildings of type t a player may have on the board.
func SupplyLimit(t Type) int {
	return supplyLimits[t]
}
