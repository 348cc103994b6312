package model

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

const (
	PresetScatter = "scatter"
	PresetClassic = "classic"
)

type Position struct {
	X, Y float64
}

// Setup describes how a Game is built. Units are placed at random unless
// Fixed holds positions for both players.
type Setup struct {
	Field          Field
	UnitCount      int
	Fixed          map[PlayerId][]Position
	MirrorOwnShots bool
	Player1Name    string
	Player2Name    string
}

// ScatterSetup is the 80x70 field with eight random units a side and the
// mirrored own-shot marker.
func ScatterSetup() Setup {
	return Setup{
		Field:          Field{Width: 80, Height: 70},
		UnitCount:      8,
		MirrorOwnShots: true,
		Player1Name:    "Player 1",
		Player2Name:    "Player 2",
	}
}

// ClassicSetup is the 40x50 field with four fixed units a side.
func ClassicSetup() Setup {
	return Setup{
		Field: Field{Width: 40, Height: 50},
		Fixed: map[PlayerId][]Position{
			Player1: {{5, 8}, {20, 40}, {30, 12}, {12, 26}},
			Player2: {{8, 5}, {26, 30}, {3, 44}, {34, 20}},
		},
		Player1Name: "Player 1",
		Player2Name: "Player 2",
	}
}

func PresetSetup(name string) (Setup, error) {
	switch name {
	case PresetScatter, "":
		return ScatterSetup(), nil
	case PresetClassic:
		return ClassicSetup(), nil
	default:
		return Setup{}, fmt.Errorf("unknown preset %q", name)
	}
}

func (s Setup) Validate() error {
	if !finite(s.Field.Width, s.Field.Height) {
		return fmt.Errorf("field %vx%v is not a finite size", s.Field.Width, s.Field.Height)
	}
	if s.Field.Width < UnitWidth || s.Field.Height < UnitHeight {
		return fmt.Errorf("field %vx%v cannot hold a %dx%d unit", s.Field.Width, s.Field.Height, UnitWidth, UnitHeight)
	}
	if s.Player1Name == "" || s.Player2Name == "" {
		return errors.New("both players need a name")
	}
	if s.Fixed == nil {
		if s.UnitCount <= 0 {
			return fmt.Errorf("unit count must be positive, got %d", s.UnitCount)
		}
		return nil
	}
	for _, id := range []PlayerId{Player1, Player2} {
		positions := s.Fixed[id]
		if len(positions) == 0 {
			return fmt.Errorf("player %d has no units", id)
		}
		for _, p := range positions {
			if !finite(p.X, p.Y) || p.X < 0 || p.Y < 0 || p.X > s.Field.Width-UnitWidth || p.Y > s.Field.Height-UnitHeight {
				return fmt.Errorf("player %d unit at (%v, %v) is outside the field", id, p.X, p.Y)
			}
		}
	}
	return nil
}

func (s Setup) units(id PlayerId, rnd *rand.Rand) []*Unit {
	if s.Fixed != nil {
		positions := s.Fixed[id]
		units := make([]*Unit, 0, len(positions))
		for _, p := range positions {
			units = append(units, NewUnit(p.X, p.Y))
		}
		return units
	}
	units := make([]*Unit, 0, s.UnitCount)
	for i := 0; i < s.UnitCount; i++ {
		units = append(units, RandomUnit(s.Field, rnd))
	}
	return units
}

// LoadLayout reads a fixed layout file into base, keeping base's flags.
func LoadLayout(path string, base Setup) (Setup, error) {
	file, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("opening layout: %w", err)
	}
	defer file.Close()
	s, err := ReadLayout(file, base)
	if err != nil {
		return base, fmt.Errorf("layout %s: %w", path, err)
	}
	return s, nil
}

// ReadLayout parses lines of the form
//
//	field <width> <height>
//	player <name>
//	unit <x> <y>
//
// The first player block belongs to Player1, the second to Player2.
// Blank lines and lines starting with # are skipped.
func ReadLayout(reader io.Reader, base Setup) (Setup, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)
	s := base
	s.Fixed = make(map[PlayerId][]Position)
	current := NoPlayer
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		words := strings.Fields(text)
		switch words[0] {
		case "field":
			w, h, err := readPair(words)
			if err != nil {
				return base, fmt.Errorf("line %d: %w", line, err)
			}
			s.Field = Field{Width: w, Height: h}
		case "player":
			if current == Player2 {
				return base, fmt.Errorf("line %d: more than two players", line)
			}
			current++
			name := strings.TrimSpace(strings.TrimPrefix(text, "player"))
			if name != "" {
				if current == Player1 {
					s.Player1Name = name
				} else {
					s.Player2Name = name
				}
			}
		case "unit":
			if current == NoPlayer {
				return base, fmt.Errorf("line %d: unit before any player", line)
			}
			x, y, err := readPair(words)
			if err != nil {
				return base, fmt.Errorf("line %d: %w", line, err)
			}
			s.Fixed[current] = append(s.Fixed[current], Position{X: x, Y: y})
		default:
			return base, fmt.Errorf("line %d: unknown directive %q", line, words[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return base, err
	}
	if err := s.Validate(); err != nil {
		return base, err
	}
	return s, nil
}

func readPair(words []string) (float64, float64, error) {
	if len(words) != 3 {
		return 0, 0, fmt.Errorf("%s needs two numbers", words[0])
	}
	a, err := strconv.ParseFloat(words[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", words[0], err)
	}
	b, err := strconv.ParseFloat(words[2], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", words[0], err)
	}
	if !finite(a, b) {
		return 0, 0, fmt.Errorf("%s: %v %v is not a finite pair", words[0], a, b)
	}
	return a, b, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
