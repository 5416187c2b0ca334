// Package wind bins compass readings into cardinal labels and tracks the
// distinct wind observations seen during a run.
package wind

import (
	"errors"
	"fmt"

	"weatherday/internal/modules/weather/types"
)

var ErrUnknownDegrees = errors.New("unrecognized wind direction degrees")

// Station directions arrive rounded to tens of degrees; 0 and 360 both denote north.
var directionByDegrees = map[int]types.WindDirection{
	0: types.North, 10: types.North, 20: types.North,
	30: types.NorthEast, 40: types.NorthEast, 50: types.NorthEast, 60: types.NorthEast,
	70: types.East, 80: types.East, 90: types.East, 100: types.East, 110: types.East,
	120: types.SouthEast, 130: types.SouthEast, 140: types.SouthEast, 150: types.SouthEast,
	160: types.South, 170: types.South, 180: types.South, 190: types.South, 200: types.South,
	210: types.SouthWest, 220: types.SouthWest, 230: types.SouthWest, 240: types.SouthWest,
	250: types.West, 260: types.West, 270: types.West, 280: types.West, 290: types.West,
	300: types.NorthWest, 310: types.NorthWest, 320: types.NorthWest, 330: types.NorthWest,
	340: types.North, 350: types.North, 360: types.North,
}

// BinDegrees maps a station wind direction in degrees to its compass label.
func BinDegrees(deg int) (types.WindDirection, error) {
	dir, ok := directionByDegrees[deg]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownDegrees, deg)
	}
	return dir, nil
}

// Registry collects distinct wind observations in first-seen order.
// It is owned by a single aggregator and is not safe for concurrent use.
type Registry struct {
	seen  map[types.WindObservation]struct{}
	order []types.WindObservation
}

func NewRegistry() *Registry {
	return &Registry{seen: make(map[types.WindObservation]struct{})}
}

// Add records w and reports whether it was new.
func (r *Registry) Add(w types.WindObservation) bool {
	if _, ok := r.seen[w]; ok {
		return false
	}
	r.seen[w] = struct{}{}
	r.order = append(r.order, w)
	return true
}

func (r *Registry) Len() int { return len(r.order) }

// All returns a copy of the distinct observations.
func (r *Registry) All() []types.WindObservation {
	out := make([]types.WindObservation, len(r.order))
	copy(out, r.order)
	return out
}

// Dedupe drops repeated observations from ws, keeping the first occurrence.
func Dedupe(ws []types.WindObservation) []types.WindObservation {
	out := make([]types.WindObservation, 0, len(ws))
	seen := make(map[types.WindObservation]struct{}, len(ws))
	for _, w := range ws {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
