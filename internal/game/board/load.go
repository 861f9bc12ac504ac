package board

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/terrabots/terra-server-go/internal/game/terraform"
)

// File is the on-disk board layout. Each row is a string of terrain letters
// (P S L F M W D, R for river); spaces are ignored.
type File struct {
	Name string   `yaml:"name" json:"name"`
	Rows []string `yaml:"rows" json:"rows"`
}

// LoadFile reads a board file without building the map.
func LoadFile(path string) (File, error) {
	var f File
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Load reads a board file from path.
func Load(path string) (*Map, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := f.Map()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse builds a map from board file contents.
func Parse(raw []byte) (*Map, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse board: %w", err)
	}
	return f.Map()
}

// Map converts the file rows into a Map.
func (f File) Map() (*Map, error) {
	rows := make([][]terraform.Terrain, 0, len(f.Rows))
	for r, line := range f.Rows {
		line = strings.ReplaceAll(line, " ", "")
		row := make([]terraform.Terrain, 0, len(line))
		for c, ch := range line {
			t, err := terraform.ParseTerrain(string(ch))
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", r, c, err)
			}
			row = append(row, t)
		}
		rows = append(rows, row)
	}
	return NewMap(rows)
}

// Default is a small board used when no board file is configured.
var Default = File{
	Name: "default",
	Rows: []string{
		"P S L F M W D P S",
		"M R R R P R R L",
		"F D W S R L M W S",
		"R R P R F R D R",
		"S L M W R P F L D",
	},
}
