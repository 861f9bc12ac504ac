package terraform

import (
	"fmt"
	"strings"
)

// Terrain is a hex terrain type. The first seven form the terrain wheel in order;
// River sits outside the wheel and can never be transformed.
type Terrain int

const (
	Plains Terrain = iota
	Swamp
	Lakes
	Forest
	Mountains
	Wasteland
	Desert
	River
)

// WheelSize is the number of transformable terrains on the wheel.
const WheelSize = int(River)

var terrainNames = map[Terrain]string{
	Plains:    "PLAINS",
	Swamp:     "SWAMP",
	Lakes:     "LAKES",
	Forest:    "FOREST",
	Mountains: "MOUNTAINS",
	Wasteland: "WASTELAND",
	Desert:    "DESERT",
	River:     "RIVER",
}

// terrainLetters are the single-letter codes used by board files.
var terrainLetters = map[byte]Terrain{
	'P': Plains,
	'S': Swamp,
	'L': Lakes,
	'F': Forest,
	'M': Mountains,
	'W': Wasteland,
	'D': Desert,
	'R': River,
}

func (t Terrain) String() string {
	if name, ok := terrainNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TERRAIN_%d", int(t))
}

// Valid reports whether t is a known terrain, river included.
func (t Terrain) Valid() bool {
	return t >= Plains && t <= River
}

// Transformable reports whether t is on the wheel.
func (t Terrain) Transformable() bool {
	return t >= Plains && t < River
}

// Wheel lists the transformable terrains in wheel order.
func Wheel() []Terrain {
	return []Terrain{Plains, Swamp, Lakes, Forest, Mountains, Wasteland, Desert}
}

// ParseTerrain accepts either a board letter or a terrain name.
func ParseTerrain(s string) (Terrain, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 {
		if t, ok := terrainLetters[s[0]]; ok {
			return t, nil
		}
	}
	for t, name := range terrainNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown terrain %q", s)
}

// Distance returns the number of spades between two terrains going the short way
// around the wheel. Distances involving river are zero.
func Distance(from, to Terrain) int {
	if !from.Transformable() || !to.Transformable() {
		return 0
	}
	direct := int(from) - int(to)
	if direct < 0 {
		direct = -direct
	}
	return min(direct, WheelSize-direct)
}
