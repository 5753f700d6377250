// Package geometry maps canonical stop and target placements into
// normalized chart coordinates for the strategy preview renderer.
package geometry

import (
	"fmt"
	"strings"

	"strategy-builder/internal/canonical"
)

// Chart geometry is fixed: Y runs 0 (top) to 100 (bottom) and the
// consolidation band always occupies the same vertical slice. Offsets are
// visual constants, not price conversions.
const (
	RangeHighY = 35.0
	RangeLowY  = 55.0
	RangeSize  = RangeLowY - RangeHighY
	MidpointY  = (RangeHighY + RangeLowY) / 2

	// edgeOffset places "just beyond the boundary" markers
	edgeOffset = 3.0

	// clamp bounds keep every marker inside the drawable area
	minY = 2.0
	maxY = 98.0
)

// unitScale converts a fixed distance in a given unit to normalized Y units
var unitScale = map[string]float64{
	canonical.UnitTicks:   0.5,
	canonical.UnitPoints:  2.0,
	canonical.UnitDollars: 0.05,
}

// Coordinates are the derived visual positions, recomputed on every render
// request and never persisted.
type Coordinates struct {
	EntryY         float64 `json:"entry_y"`
	StopY          float64 `json:"stop_y"`
	TargetY        float64 `json:"target_y"`
	RangeHighY     float64 `json:"range_high_y"`
	RangeLowY      float64 `json:"range_low_y"`
	RiskDistance   float64 `json:"risk_distance"`
	RewardDistance float64 `json:"reward_distance"`
	RiskReward     string  `json:"risk_reward"`
}

// Derive computes entry, stop and target Y positions from a canonical
// strategy. Unrecognized placements land just beyond the range boundary
// opposite the entry; all positions are clamped to the drawable area.
func Derive(s *canonical.Strategy) Coordinates {
	short := s.Direction == "short"

	entryY := clamp(entryPosition(s, short))
	stopY := clamp(stopPosition(s.Exit.StopLoss, entryY, short))
	risk := abs(stopY - entryY)
	targetY := clamp(targetPosition(s.Exit.TakeProfit, entryY, risk, short))
	reward := abs(targetY - entryY)

	return Coordinates{
		EntryY:         entryY,
		StopY:          stopY,
		TargetY:        targetY,
		RangeHighY:     RangeHighY,
		RangeLowY:      RangeLowY,
		RiskDistance:   risk,
		RewardDistance: reward,
		RiskReward:     ratio(risk, reward),
	}
}

// Breakout entries sit at the boundary being broken; pullback and bounce
// entries sit at the band midpoint.
func entryPosition(s *canonical.Strategy, short bool) float64 {
	entry := strings.ToLower(s.Entry + " " + s.Pattern)
	if strings.Contains(entry, "pullback") || strings.Contains(entry, "bounce") || strings.Contains(entry, "retest") {
		return MidpointY
	}
	if short {
		return RangeLowY
	}
	return RangeHighY
}

func stopPosition(stop *canonical.StopLoss, entryY float64, short bool) float64 {
	if stop == nil {
		return beyondOppositeBoundary(short)
	}

	switch stop.Type {
	case canonical.PlacementPercentage:
		if short {
			return RangeLowY - RangeSize*stop.Value
		}
		return RangeHighY + RangeSize*stop.Value

	case canonical.PlacementOppositeSide:
		switch stop.RelativeTo {
		case canonical.RelativeToRangeLow:
			return RangeLowY + edgeOffset
		case canonical.RelativeToRangeHigh:
			return RangeHighY - edgeOffset
		default:
			return beyondOppositeBoundary(short)
		}

	case canonical.PlacementFixedDistance:
		return offsetFromEntry(entryY, stop.Value*scaleFor(stop.Unit), short)

	case canonical.PlacementATRMultiple:
		// ATR is approximated as half the range size
		return offsetFromEntry(entryY, stop.Value*(RangeSize/2), short)

	default:
		return beyondOppositeBoundary(short)
	}
}

func targetPosition(target *canonical.TakeProfit, entryY, risk float64, short bool) float64 {
	if target == nil {
		return towardProfit(entryY, risk*2, short)
	}

	switch target.Method {
	case canonical.TargetRMultiple:
		return towardProfit(entryY, risk*target.Value, short)
	case canonical.TargetExtension, canonical.TargetPercentage:
		return towardProfit(entryY, RangeSize*target.Value, short)
	case canonical.TargetFixedDistance:
		return towardProfit(entryY, target.Value*scaleFor(target.Unit), short)
	default:
		return towardProfit(entryY, RangeSize, short)
	}
}

// offsetFromEntry moves against the trade: down for longs, up for shorts
func offsetFromEntry(entryY, distance float64, short bool) float64 {
	if short {
		return entryY - distance
	}
	return entryY + distance
}

// towardProfit moves with the trade: up for longs, down for shorts
func towardProfit(entryY, distance float64, short bool) float64 {
	if short {
		return entryY + distance
	}
	return entryY - distance
}

func beyondOppositeBoundary(short bool) float64 {
	if short {
		return RangeHighY - edgeOffset
	}
	return RangeLowY + edgeOffset
}

func scaleFor(unit string) float64 {
	if s, ok := unitScale[unit]; ok {
		return s
	}
	return unitScale[canonical.UnitTicks]
}

func ratio(risk, reward float64) string {
	if risk <= 0 {
		return "1:0.0"
	}
	return fmt.Sprintf("1:%.1f", reward/risk)
}

func clamp(y float64) float64 {
	if y < minY {
		return minY
	}
	if y > maxY {
		return maxY
	}
	return y
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
