package building

// Cost is the worker and coin price of a building.
type Cost struct {
	Workers int
	Coins   int
}

// DoubleCoins returns c with its coin part doubled.
func (c Cost) DoubleCoins() Cost {
	return Cost{Workers: c.Workers, Coins: c.Coins * 2}
}

// Affordable reports whether the holdings cover c.
func (c Cost) Affordable(workers, coins int) bool {
	return workers >= c.Workers && coins >= c.Coins
}

// BaseCosts apply to any faction without an override.
var BaseCosts = map[Type]Cost{
	Dwelling:    {Workers: 1, Coins: 2},
	TradingPost: {Workers: 2, Coins: 3},
	Temple:      {Workers: 2, Coins: 5},
	Stronghold:  {Workers: 4, Coins: 6},
	Sanctuary:   {Workers: 4, Coins: 6},
}

// Overrides replaces base costs for particular building types.
type Overrides map[Type]Cost

// CostOf returns the override for t when present, else the base cost.
func (o Overrides) CostOf(t Type) Cost {
	if c, ok := o[t]; ok {
		return c
	}
	return BaseCosts[t]
}

var upgrades = map[Type][]Type{
	Dwelling:    {TradingPost},
	TradingPost: {Temple, Stronghold},
	Temple:      {Sanctuary},
}

// CanUpgrade reports whether from upgrades directly into to.
func CanUpgrade(from, to Type) bool {
	for _, next := range upgrades[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Upgrades lists the buildings from can become, in graph order.
func Upgrades(from Type) []Type {
	next := upgrades[from]
	out := make([]Type, len(next))
	copy(out, next)
	return out
}

// Terminal reports whether t has no further upgrade.
func Terminal(t Type) bool {
	return t == Stronghold || t == Sanctuary
}

// UpgradeCost prices upgrading from into to. A trading post costs double coins
// when no other player's building is adjacent to the site.
func UpgradeCost(from, to Type, o Overrides, hasAdjacentOpponent bool) (Cost, bool) {
	if !CanUpgrade(from, to) {
		return Cost{}, false
	}
	cost := o.CostOf(to)
	if to == TradingPost && !hasAdjacentOpponent {
		cost = cost.DoubleCoins()
	}
	return cost, true
}
