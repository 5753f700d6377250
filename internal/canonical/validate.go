package canonical

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries the itemized list of violated fields. A strategy
// is never partially accepted: either it validates clean or the caller gets
// every issue at once.
type ValidationError struct {
	Issues []string `json:"issues"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("strategy validation failed: %s", strings.Join(e.Issues, "; "))
}

var validate = validator.New()

// Validate checks a canonical strategy for completeness and sane bounds.
// Returns nil when valid, otherwise a *ValidationError listing every issue.
func Validate(s *Strategy) error {
	var issues []string

	if s.Instrument == nil {
		issues = append(issues, "instrument is required")
	}
	if s.Exit.StopLoss == nil {
		issues = append(issues, "stop loss is required")
	} else {
		issues = append(issues, checkStop(s.Exit.StopLoss)...)
	}
	if s.Exit.TakeProfit != nil {
		issues = append(issues, checkTarget(s.Exit.TakeProfit)...)
	}

	if err := validate.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				issues = append(issues, fmt.Sprintf("%s fails %s constraint", fe.Namespace(), fe.Tag()))
			}
		} else {
			issues = append(issues, err.Error())
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func checkStop(sl *StopLoss) []string {
	var issues []string
	if !isFinite(sl.Value) {
		issues = append(issues, "stop loss value is not finite")
		return issues
	}
	switch sl.Type {
	case PlacementFixedDistance:
		if sl.Value <= 0 {
			issues = append(issues, "fixed-distance stop must be a positive distance")
		}
		if sl.Unit == UnitTicks && sl.Value > 1000 {
			issues = append(issues, "stop distance exceeds 1000 ticks")
		}
	case PlacementPercentage:
		if sl.Value <= 0 || sl.Value > 1 {
			issues = append(issues, "percentage stop must be within (0, 1]")
		}
	case PlacementATRMultiple:
		if sl.Value <= 0 || sl.Value > 10 {
			issues = append(issues, "ATR multiple stop must be within (0, 10]")
		}
	case PlacementStructure, PlacementOppositeSide:
		if sl.Value < 0 {
			issues = append(issues, "structure stop offset cannot be negative")
		}
	default:
		issues = append(issues, fmt.Sprintf("unknown stop placement type %q", sl.Type))
	}
	return issues
}

func checkTarget(tp *TakeProfit) []string {
	var issues []string
	if !isFinite(tp.Value) {
		issues = append(issues, "profit target value is not finite")
		return issues
	}
	switch tp.Method {
	case TargetRMultiple:
		if tp.Value <= 0 || tp.Value > 20 {
			issues = append(issues, "R-multiple target must be within (0, 20]")
		}
	case TargetExtension, TargetPercentage:
		if tp.Value <= 0 {
			issues = append(issues, "extension target must be positive")
		}
	case TargetFixedDistance:
		if tp.Value <= 0 {
			issues = append(issues, "fixed-distance target must be a positive distance")
		}
	case TargetStructure:
		// structure targets carry no numeric constraint
	default:
		issues = append(issues, fmt.Sprintf("unknown target method %q", tp.Method))
	}
	return issues
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
