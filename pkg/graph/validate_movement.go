package graph

import (
	"fmt"
	"math"
)

// Size rule shared with the going train search: each stage's wheel, scaled
// by its module, must be smaller than this fraction of the previous one.
const stageSizeMargin = 0.9

// knownFamilies are the escapement families the movement graph accepts.
var knownFamilies = map[string]bool{"deadbeat": true}

// ---------------------------------------------------------------------------
// Tier 2: Horological validation (errors + warnings)
// ---------------------------------------------------------------------------

// validateMovement runs all Tier 2 checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateMovement(g *MovementGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validatePayloads(g)...)
	errs = append(errs, validateTrainChildren(g)...)
	errs = append(errs, validateTiming(g)...)

	warnings = append(warnings, validateIntegerStages(g)...)
	warnings = append(warnings, validateStageSizes(g)...)
	warnings = append(warnings, validateMovementParts(g)...)

	return errs, warnings
}

// validatePayloads checks each node's numbers are physically meaningful.
func validatePayloads(g *MovementGraph) []ValidationError {
	var errs []ValidationError
	bad := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for _, node := range g.Nodes {
		switch d := node.Data.(type) {
		case PendulumData:
			if !(d.Period > 0) {
				bad(node, "pendulum period is %.4f, must be positive", d.Period)
			}
		case EscapementData:
			if !knownFamilies[d.Family] {
				bad(node, "escapement family %q is not supported", d.Family)
			}
			if d.Teeth < 4 {
				bad(node, "escape wheel has %d teeth, need at least 4", d.Teeth)
			}
			if !(d.Diameter > 0) {
				bad(node, "escape wheel diameter is %.4f, must be positive", d.Diameter)
			}
		case StageData:
			if d.WheelTeeth < 1 || d.PinionTeeth < 1 {
				bad(node, "stage %d has %d/%d teeth, both must be positive", d.Index, d.WheelTeeth, d.PinionTeeth)
			}
			if !(d.Module > 0) {
				bad(node, "stage %d module is %.4f, must be positive", d.Index, d.Module)
			}
		}
	}

	return errs
}

// validateTrainChildren checks that trains hold only stages, indexed in
// order and sharing the train's role.
func validateTrainChildren(g *MovementGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		td, ok := node.Data.(TrainData)
		if !ok {
			continue
		}
		if len(node.Children) == 0 {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("%s train has no stages", td.Role),
				Severity: SeverityError,
			})
		}
		for i, c := range g.Children(node) {
			sd, ok := c.Data.(StageData)
			if !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("train child %s is %s, not stage", c.ID.Short(), c.Kind),
					Severity: SeverityError,
				})
				continue
			}
			if sd.Index != i || sd.Role != td.Role {
				errs = append(errs, ValidationError{
					NodeID:   c.ID,
					Message:  fmt.Sprintf("stage %d %s sits at position %d of a %s train", sd.Index, sd.Role, i, td.Role),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateTiming checks that a movement's going train still turns the
// minute wheel once per target time.
func validateTiming(g *MovementGraph) []ValidationError {
	var errs []ValidationError

movements:
	for _, node := range g.Nodes {
		md, ok := node.Data.(MovementData)
		if !ok || md.EscapementTime <= 0 || md.TargetTime <= 0 {
			continue
		}
		train := g.Train(node, RoleGoing)
		if train == nil {
			continue
		}
		ratio := 1.0
		// toothless pinions are reported by validatePayloads
		for _, s := range g.Stages(train) {
			if s.PinionTeeth < 1 {
				continue movements
			}
			ratio *= s.Ratio()
		}
		got := ratio * md.EscapementTime
		if diff := math.Abs(got - md.TargetTime); diff >= md.Tolerance {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("going train turns the minute wheel every %.4f s, want %.4f s", got, md.TargetTime),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateIntegerStages warns about stages whose wheel teeth are a whole
// multiple of the pinion leaves, which wear the same teeth together.
func validateIntegerStages(g *MovementGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		sd, ok := node.Data.(StageData)
		if !ok || sd.PinionTeeth < 1 {
			continue
		}
		if sd.WheelTeeth%sd.PinionTeeth == 0 {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("stage %d/%d has an integer ratio", sd.WheelTeeth, sd.PinionTeeth),
			})
		}
	}

	return warnings
}

// validateStageSizes warns when a going train stage is not comfortably
// smaller than the one before it.
func validateStageSizes(g *MovementGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		td, ok := node.Data.(TrainData)
		if !ok || td.Role != RoleGoing {
			continue
		}
		stages := g.Stages(node)
		for i := 1; i < len(stages); i++ {
			prev := stages[i-1].Module * float64(stages[i-1].WheelTeeth)
			size := stages[i].Module * float64(stages[i].WheelTeeth)
			if size > prev*stageSizeMargin {
				warnings = append(warnings, ValidationWarning{
					NodeID:  node.ID,
					Message: fmt.Sprintf("stage %d wheel (%.1f) is not smaller than %.0f%% of stage %d (%.1f)", i, size, stageSizeMargin*100, i-1, prev),
				})
			}
		}
	}

	return warnings
}

// validateMovementParts warns about movements missing an escapement or a
// going train, or carrying more than one of either.
func validateMovementParts(g *MovementGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		if node.Kind != NodeMovement {
			continue
		}
		esc := len(g.ChildrenOfKind(node, NodeEscapement))
		going := 0
		for _, t := range g.ChildrenOfKind(node, NodeTrain) {
			if td, ok := t.Data.(TrainData); ok && td.Role == RoleGoing {
				going++
			}
		}
		name := node.Name
		if name == "" {
			name = node.ID.Short()
		}
		if esc != 1 {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("movement %q has %d escapements, want 1", name, esc),
			})
		}
		if going != 1 {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("movement %q has %d going trains, want 1", name, going),
			})
		}
	}

	return warnings
}
