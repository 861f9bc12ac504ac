package power

// GainOption is the priced offer a player receives when a neighbour builds.
type GainOption struct {
	Amount     int
	VPCost     int
	Affordable bool
}

// VPCost returns the victory point price of gaining amount power.
// The first token is free.
func VPCost(amount int) int {
	if amount <= 0 {
		return 0
	}
	return amount - 1
}

// CalculateGainOption prices the power a player could take from buildings worth
// totalValue. The amount is capped by the tokens left in bowls 1 and 2, then
// reduced to what availableVP can pay for.
func CalculateGainOption(b Bowls, totalValue, availableVP int) GainOption {
	if totalValue <= 0 {
		return GainOption{}
	}

	amount := min(totalValue, b.Bowl1+b.Bowl2)
	opt := GainOption{
		Amount: amount,
		VPCost: VPCost(amount),
	}
	if availableVP >= opt.VPCost {
		opt.Affordable = amount > 0
		return opt
	}
	if availableVP <= 0 {
		return GainOption{}
	}

	opt.Amount = availableVP + 1
	opt.VPCost = availableVP
	opt.Affordable = true
	return opt
}
