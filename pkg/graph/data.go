package graph

// ---------------------------------------------------------------------------
// Movement
// ---------------------------------------------------------------------------

// MovementData groups the parts of one clock movement. Created by the
// (movement ...) form.
type MovementData struct {
	Description    string  `json:"description,omitempty"`
	EscapementTime float64 `json:"escapement_time"` // seconds per escape wheel turn
	TargetTime     float64 `json:"target_time"`     // seconds per minute wheel turn
	Tolerance      float64 `json:"tolerance"`       // allowed going train error, seconds
}

func (MovementData) nodeData() {}

// ---------------------------------------------------------------------------
// Pendulum
// ---------------------------------------------------------------------------

// PendulumData holds the period (seconds) and ideal length (metres).
type PendulumData struct {
	Period float64 `json:"period"`
	Length float64 `json:"length"`
}

func (PendulumData) nodeData() {}

// ---------------------------------------------------------------------------
// Escapement
// ---------------------------------------------------------------------------

// EscapementData holds the inputs an escapement geometry is rebuilt from.
// Angles are in radians.
type EscapementData struct {
	Family   string  `json:"family"`
	Teeth    int     `json:"teeth"`
	Diameter float64 `json:"diameter"` // escape wheel diameter mm
	Lift     float64 `json:"lift"`
	Drop     float64 `json:"drop"`
	Lock     float64 `json:"lock"`
}

func (EscapementData) nodeData() {}

// ---------------------------------------------------------------------------
// Trains
// ---------------------------------------------------------------------------

// TrainRole distinguishes the going train from the power train.
type TrainRole int

const (
	RoleGoing TrainRole = iota // escape wheel to minute wheel
	RolePower                  // power source to minute wheel
)

func (r TrainRole) String() string {
	switch r {
	case RoleGoing:
		return "going"
	case RolePower:
		return "power"
	default:
		return "unknown"
	}
}

// TrainData summarises the candidate a train was built from. Children are
// its stage nodes in mesh order.
type TrainData struct {
	Role         TrainRole `json:"role"`
	TotalRatio   float64   `json:"total_ratio"`
	Error        float64   `json:"error"`
	WeightedCost float64   `json:"weighted_cost"`
}

func (TrainData) nodeData() {}

// StageData is one wheel driving one pinion.
type StageData struct {
	Role        TrainRole `json:"role"`
	Index       int       `json:"index"` // position within the train
	WheelTeeth  int       `json:"wheel_teeth"`
	PinionTeeth int       `json:"pinion_teeth"`
	Module      float64   `json:"module"`
}

func (StageData) nodeData() {}

// Ratio returns wheel teeth over pinion leaves.
func (s StageData) Ratio() float64 {
	return float64(s.WheelTeeth) / float64(s.PinionTeeth)
}
