package terraform

// Resource is what a faction pays for spades.
type Resource int

const (
	Workers Resource = iota
	Priests
)

func (r Resource) String() string {
	if r == Priests {
		return "PRIESTS"
	}
	return "WORKERS"
}

// Policy describes how a faction pays for terraforming.
type Policy struct {
	Resource Resource
	// FlatCost, when positive, replaces the per-spade price for any distance.
	FlatCost int
	// FlatSpades is the number of spades a flat-cost transform consumes.
	FlatSpades int
	// Target, when Restricted, is the only terrain the faction may create.
	Target     Terrain
	Restricted bool
}

// DefaultPolicy pays workers per spade at the exchange-level rate.
var DefaultPolicy = Policy{Resource: Workers}

// workersPerSpade is indexed by exchange level.
var workersPerSpade = []int{3, 2, 1}

// WorkersPerSpade returns the worker price of one spade at an exchange level.
func WorkersPerSpade(exchangeLevel int) int {
	if exchangeLevel < 0 || exchangeLevel >= len(workersPerSpade) {
		return workersPerSpade[0]
	}
	return workersPerSpade[exchangeLevel]
}

// SpadesNeeded returns how many spades turning from into to takes under p.
func SpadesNeeded(from, to Terrain, p Policy) int {
	d := Distance(from, to)
	if d == 0 {
		return 0
	}
	if p.FlatCost > 0 && p.FlatSpades > 0 {
		return p.FlatSpades
	}
	return d
}

// CostForSpades prices n spades at an exchange level. A flat-cost policy pays
// its flat price for a full transform and a proportional share, rounded up, for
// fewer spades.
func CostForSpades(n, exchangeLevel int, p Policy) int {
	if n <= 0 {
		return 0
	}
	switch {
	case p.FlatCost > 0 && p.FlatSpades > 0:
		n = min(n, p.FlatSpades)
		return (p.FlatCost*n + p.FlatSpades - 1) / p.FlatSpades
	case p.FlatCost > 0:
		return p.FlatCost
	case p.Resource == Priests:
		return n
	default:
		return WorkersPerSpade(exchangeLevel) * n
	}
}

// Allowed reports whether p permits turning from into to at all.
func Allowed(from, to Terrain, p Policy) bool {
	if !from.Transformable() || !to.Transformable() || from == to {
		return false
	}
	if p.Restricted && to != p.Target {
		return false
	}
	return true
}

// Cost returns the resource price of turning from into to, and false when the
// transform is not allowed.
func Cost(from, to Terrain, exchangeLevel int, p Policy) (int, bool) {
	if !Allowed(from, to, p) {
		return 0, false
	}
	return CostForSpades(SpadesNeeded(from, to, p), exchangeLevel, p), true
}

// Request is the input to CanTransform.
type Request struct {
	From, To      Terrain
	ExchangeLevel int
	Connected     bool
	Workers       int
	Priests       int
}

// CanTransform reports whether a player may transform a hex: the target is on the
// wheel, the hex is reachable, the policy allows the target, and the player holds
// enough of the resource the policy pays in.
func CanTransform(r Request, p Policy) bool {
	if !r.Connected {
		return false
	}
	cost, ok := Cost(r.From, r.To, r.ExchangeLevel, p)
	if !ok {
		return false
	}
	return Available(r.Workers, r.Priests, p) >= cost
}

// Available picks the holding that pays for spades under p.
func Available(workers, priests int, p Policy) int {
	if p.Resource == Priests {
		return priests
	}
	return workers
}
