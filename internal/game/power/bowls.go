package power

// Conversion prices paid from bowl 3.
const (
	PriestCost = 5
	WorkerCost = 3
	CoinCost   = 1
)

// Bowls holds a player's power tokens. Tokens cycle bowl 1 -> bowl 2 -> bowl 3
// and return to bowl 1 when spent.
type Bowls struct {
	Bowl1 int
	Bowl2 int
	Bowl3 int
}

// NewBowls creates bowls with the given token split.
func NewBowls(bowl1, bowl2, bowl3 int) Bowls {
	return Bowls{Bowl1: bowl1, Bowl2: bowl2, Bowl3: bowl3}
}

// Total returns the number of tokens across all bowls.
func (b Bowls) Total() int {
	return b.Bowl1 + b.Bowl2 + b.Bowl3
}

// Available returns the power that can be spent right now.
func (b Bowls) Available() int {
	return b.Bowl3
}

// Gain moves tokens forward one bowl at a time: bowl 1 drains into bowl 2 first,
// then bowl 2 drains into bowl 3. It returns the number of tokens moved, which is
// less than amount once bowls 1 and 2 are empty.
func (b *Bowls) Gain(amount int) int {
	gained := 0
	for amount > 0 && b.Bowl1 > 0 {
		b.Bowl1--
		b.Bowl2++
		amount--
		gained++
	}
	for amount > 0 && b.Bowl2 > 0 {
		b.Bowl2--
		b.Bowl3++
		amount--
		gained++
	}
	return gained
}

// Spend moves amount tokens from bowl 3 back to bowl 1.
// Returns false and leaves the bowls untouched if bowl 3 is short.
func (b *Bowls) Spend(amount int) bool {
	if amount < 0 || b.Bowl3 < amount {
		return false
	}
	b.Bowl3 -= amount
	b.Bowl1 += amount
	return true
}

// CanBurn reports whether amount tokens can be burned into bowl 3. Burning zero
// always succeeds and changes nothing.
func (b Bowls) CanBurn(amount int) bool {
	return amount >= 0 && b.Bowl2 >= 2*amount
}

// Burn removes 2*amount tokens from bowl 2, puts amount of them in bowl 3 and
// takes the rest out of the game.
func (b *Bowls) Burn(amount int) bool {
	if !b.CanBurn(amount) {
		return false
	}
	b.Bowl2 -= 2 * amount
	b.Bowl3 += amount
	return true
}

// MaxBurn returns the largest amount Burn will accept.
func (b Bowls) MaxBurn() int {
	return b.Bowl2 / 2
}
