// Package report renders slider values as a human-readable suggestion.
package report

import (
	"fmt"
	"strings"

	"github.com/ironsheep/filterlab/internal/params"
)

// Line is one rendered slider row.
type Line struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Value     int    `json:"value"`
	Direction string `json:"direction"`
	Caption   string `json:"caption"`
}

// String formats the row as "Name: direction (slider +N). Caption".
func (l Line) String() string {
	return fmt.Sprintf("%s: %s (slider %s). %s", l.Name, l.Direction, signed(l.Value), l.Caption)
}

// Lines returns one row per slider in canonical order. Zero values are
// included.
func Lines(p params.Params) []Line {
	sliders := params.All()
	out := make([]Line, 0, len(sliders))
	for _, s := range sliders {
		v := p.Get(s)
		out = append(out, Line{
			Key:       s.Key(),
			Name:      s.String(),
			Value:     v,
			Direction: direction(v),
			Caption:   s.Caption(),
		})
	}
	return out
}

// Format renders all fourteen sliders, one per line.
func Format(p params.Params) string {
	lines := Lines(p)
	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = l.String()
	}
	return strings.Join(rows, "\n")
}

func direction(v int) string {
	switch {
	case v > 0:
		return fmt.Sprintf("increase %d", v)
	case v < 0:
		return fmt.Sprintf("decrease %d", -v)
	default:
		return "no change"
	}
}

func signed(v int) string {
	if v > 0 {
		return fmt.Sprintf("+%d", v)
	}
	return fmt.Sprintf("%d", v)
}
