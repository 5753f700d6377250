// Package canonical maps loosely-worded strategy statements into the typed,
// unit-correct representation consumed by execution and visualization.
package canonical

// PlacementType describes where a stop loss sits relative to the setup
type PlacementType string

const (
	PlacementStructure     PlacementType = "structure"
	PlacementPercentage    PlacementType = "percentage"
	PlacementATRMultiple   PlacementType = "atr_multiple"
	PlacementFixedDistance PlacementType = "fixed_distance"
	PlacementOppositeSide  PlacementType = "opposite_side"
)

// TargetMethod describes how a profit target is derived
type TargetMethod string

const (
	TargetRMultiple     TargetMethod = "r_multiple"
	TargetPercentage    TargetMethod = "percentage"
	TargetFixedDistance TargetMethod = "fixed_distance"
	TargetStructure     TargetMethod = "structure"
	TargetExtension     TargetMethod = "extension"
)

// Units for fixed-distance values
const (
	UnitTicks   = "ticks"
	UnitPoints  = "points"
	UnitDollars = "dollars"
)

// Reference points a placement can be relative to
const (
	RelativeToEntry     = "entry"
	RelativeToRangeLow  = "range_low"
	RelativeToRangeHigh = "range_high"
	RelativeToStructure = "structure"
)

// StopLoss is the canonical stop placement.
type StopLoss struct {
	Type       PlacementType `json:"type"`
	Value      float64       `json:"value"`
	Unit       string        `json:"unit,omitempty"`
	RelativeTo string        `json:"relative_to,omitempty"`
}

// TakeProfit is the canonical profit target.
type TakeProfit struct {
	Method     TargetMethod `json:"method"`
	Value      float64      `json:"value"`
	Unit       string       `json:"unit,omitempty"`
	RelativeTo string       `json:"relative_to,omitempty"`
}

// Instrument identifies a tradable futures contract with its tick economics.
type Instrument struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	TickSize  float64 `json:"tick_size"`
	TickValue float64 `json:"tick_value"`
}

// Exit groups the two exit legs.
type Exit struct {
	StopLoss   *StopLoss   `json:"stop_loss"`
	TakeProfit *TakeProfit `json:"take_profit"`
}

// Risk carries position sizing parameters.
type Risk struct {
	PositionSizing string  `json:"position_sizing,omitempty"`
	RiskPercent    float64 `json:"risk_percent,omitempty" validate:"omitempty,gt=0,lte=10"`
	MaxContracts   int     `json:"max_contracts,omitempty" validate:"omitempty,gte=1,lte=1000"`
}

// TimeSettings carries session scoping.
type TimeSettings struct {
	Session  string `json:"session,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Strategy is the fully typed, validated strategy representation.
// It is only valid once StopLoss and Instrument are present.
type Strategy struct {
	Pattern    string       `json:"pattern"`
	Direction  string       `json:"direction" validate:"omitempty,oneof=long short both"`
	Instrument *Instrument  `json:"instrument"`
	Entry      string       `json:"entry,omitempty"`
	Exit       Exit         `json:"exit"`
	Risk       Risk         `json:"risk"`
	Time       TimeSettings `json:"time"`
}
