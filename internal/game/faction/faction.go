// Package faction holds the fixed per-faction rules table. Entries are read-only
// and shared by every game.
package faction

import (
	"fmt"
	"strings"

	"github.com/terrabots/terra-server-go/internal/game/building"
	"github.com/terrabots/terra-server-go/internal/game/cult"
	"github.com/terrabots/terra-server-go/internal/game/power"
	"github.com/terrabots/terra-server-go/internal/game/terraform"
	"github.com/terrabots/terra-server-go/internal/game/tracks"
)

// ID identifies a faction.
type ID int

const (
	ChaosMagicians ID = iota
	Giants
	Fakirs
	Nomads
	Halflings
	Cultists
	Alchemists
	Darklings
	Mermaids
	Swarmlings
	Auren
	Witches
	Dwarves
	Engineers
)

// Info is everything that differs between factions.
type Info struct {
	ID           ID
	Name         string
	Home         terraform.Terrain
	Costs        building.Overrides
	StartingCult [cult.NumTracks]int
	Bowls        power.Bowls
	Spades       terraform.Policy
	Shipping     tracks.Rules
	Exchange     tracks.Rules
}

// BuildingCost returns the faction's price for building type b.
func (i Info) BuildingCost(b building.Type) building.Cost {
	return i.Costs.CostOf(b)
}

var (
	defaultBowls = power.NewBowls(5, 7, 0)
	lowBowls     = power.NewBowls(3, 9, 0)
)

func entry(id ID, name string, home terraform.Terrain, cultLevels [cult.NumTracks]int) Info {
	return Info{
		ID:           id,
		Name:         name,
		Home:         home,
		StartingCult: cultLevels,
		Bowls:        defaultBowls,
		Spades:       terraform.DefaultPolicy,
		Shipping:     tracks.DefaultShipping,
		Exchange:     tracks.DefaultExchange,
	}
}

var table = buildTable()

func buildTable() map[ID]Info {
	t := make(map[ID]Info)
	add := func(i Info) { t[i.ID] = i }

	chaos := entry(ChaosMagicians, "Chaos Magicians", terraform.Wasteland, [4]int{2, 0, 0, 0})
	chaos.Costs = building.Overrides{building.Stronghold: {Workers: 4, Coins: 4}}
	add(chaos)

	giants := entry(Giants, "Giants", terraform.Mountains, [4]int{1, 0, 0, 1})
	giants.Spades = terraform.Policy{
		Resource:   terraform.Workers,
		FlatCost:   2,
		FlatSpades: 2,
		Target:     terraform.Mountains,
		Restricted: true,
	}
	add(giants)

	fakirs := entry(Fakirs, "Fakirs", terraform.Desert, [4]int{1, 0, 0, 1})
	fakirs.Costs = building.Overrides{building.Stronghold: {Workers: 4, Coins: 10}}
	fakirs.Bowls = power.NewBowls(7, 5, 0)
	fakirs.Shipping = tracks.DefaultShipping.Ineligible()
	fakirs.Exchange = tracks.DefaultExchange.WithMax(1)
	add(fakirs)

	nomads := entry(Nomads, "Nomads", terraform.Desert, [4]int{1, 0, 1, 0})
	nomads.Costs = building.Overrides{building.Stronghold: {Workers: 4, Coins: 8}}
	add(nomads)

	halflings := entry(Halflings, "Halflings", terraform.Plains, [4]int{0, 0, 1, 1})
	halflings.Costs = building.Overrides{building.Stronghold: {Workers: 4, Coins: 8}}
	halflings.Bowls = lowBowls
	halflings.Exchange = tracks.DefaultExchange.WithCost(tracks.Cost{Workers: 2, Coins: 1, Priests: 1})
	add(halflings)

	cultists := entry(Cultists, "Cultists", terraform.Wasteland, [4]int{1, 0, 1, 0})
	cultists.Costs = building.Overrides{
		building.Stronghold: {Workers: 4, Coins: 8},
		building.Sanctuary:  {Workers: 4, Coins: 8},
	}
	add(cultists)

	add(entry(Alchemists, "Alchemists", terraform.Swamp, [4]int{1, 1, 0, 0}))

	darklings := entry(Darklings, "Darklings", terraform.Swamp, [4]int{0, 1, 1, 0})
	darklings.Costs = building.Overrides{building.Sanctuary: {Workers: 4, Coins: 10}}
	darklings.Spades = terraform.Policy{Resource: terraform.Priests}
	darklings.Exchange = tracks.DefaultExchange.Ineligible()
	add(darklings)

	mermaids := entry(Mermaids, "Mermaids", terraform.Lakes, [4]int{0, 2, 0, 0})
	mermaids.Costs = building.Overrides{building.Sanctuary: {Workers: 4, Coins: 8}}
	mermaids.Bowls = lowBowls
	mermaids.Shipping = tracks.Rules{
		Eligible: true,
		Start:    1,
		Max:      5,
		Cost:     tracks.DefaultShipping.Cost,
		Points:   map[int]int{1: 2, 2: 3, 3: 4, 4: 5},
	}
	add(mermaids)

	swarmlings := entry(Swarmlings, "Swarmlings", terraform.Lakes, [4]int{1, 1, 1, 1})
	swarmlings.Costs = building.Overrides{
		building.Dwelling:    {Workers: 2, Coins: 3},
		building.TradingPost: {Workers: 3, Coins: 4},
		building.Temple:      {Workers: 3, Coins: 6},
		building.Stronghold:  {Workers: 5, Coins: 8},
		building.Sanctuary:   {Workers: 5, Coins: 8},
	}
	swarmlings.Bowls = lowBowls
	add(swarmlings)

	auren := entry(Auren, "Auren", terraform.Forest, [4]int{0, 1, 0, 1})
	auren.Costs = building.Overrides{building.Sanctuary: {Workers: 4, Coins: 8}}
	add(auren)

	add(entry(Witches, "Witches", terraform.Forest, [4]int{0, 0, 0, 2}))

	dwarves := entry(Dwarves, "Dwarves", terraform.Mountains, [4]int{0, 0, 2, 0})
	dwarves.Shipping = tracks.DefaultShipping.Ineligible()
	add(dwarves)

	engineers := entry(Engineers, "Engineers", terraform.Mountains, [4]int{0, 0, 0, 0})
	engineers.Costs = building.Overrides{
		building.Dwelling:    {Workers: 1, Coins: 1},
		building.TradingPost: {Workers: 1, Coins: 2},
		building.Temple:      {Workers: 1, Coins: 4},
		building.Stronghold:  {Workers: 3, Coins: 6},
		building.Sanctuary:   {Workers: 3, Coins: 6},
	}
	engineers.Bowls = lowBowls
	add(engineers)

	return t
}

// Lookup returns the rules for id.
func Lookup(id ID) (Info, bool) {
	i, ok := table[id]
	return i, ok
}

// IDs lists every faction in table order.
func IDs() []ID {
	ids := make([]ID, 0, len(table))
	for id := ChaosMagicians; id <= Engineers; id++ {
		ids = append(ids, id)
	}
	return ids
}

func (id ID) String() string {
	if i, ok := table[id]; ok {
		return i.Name
	}
	return fmt.Sprintf("FACTION_%d", int(id))
}

// Parse matches a faction by name, ignoring case and spaces.
func Parse(name string) (ID, error) {
	key := normalize(name)
	for id, i := range table {
		if normalize(i.Name) == key {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown faction %q", name)
}

func normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}
