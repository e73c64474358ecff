package domain

// State identifies the dialogue state of a session. States other than
// StateMenu form the solve wizard and are traversed in declaration
// order.
type State int

const (
	// StateMenu is the resting state: main menu, settings sub-views
	// and history views all live here.
	StateMenu State = iota
	// StateEquation expects the equation text.
	StateEquation
	// StateInitialX expects the initial x value.
	StateInitialX
	// StateInitialY expects one initial y value per equation order.
	StateInitialY
	// StateReachPoint expects the integration end point.
	StateReachPoint
	// StateStepSize expects the integration step; valid input
	// triggers submission.
	StateStepSize
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateMenu:
		return "menu"
	case StateEquation:
		return "equation"
	case StateInitialX:
		return "initial_x"
	case StateInitialY:
		return "initial_y"
	case StateReachPoint:
		return "reach_point"
	case StateStepSize:
		return "step_size"
	default:
		return "unknown"
	}
}

// Scratch holds the wizard fields collected so far. Fields are only
// meaningful together with the session state indicating they have
// been collected; leaving the wizard clears the whole record.
type Scratch struct {
	RawEquation string
	Normalized  string
	Order       int
	InitialX    float64
	InitialY    []float64
	ReachPoint  float64
	StepSize    float64
}

// Session is the per-user in-memory dialogue record. Sessions for
// different users never share mutable data; within one user the
// engine processes foreground turns sequentially.
type Session struct {
	UserID   int64
	ChatID   int64
	State    State
	Settings Settings
	Scratch  Scratch
}

// InWizard reports whether the session is mid-way through collecting
// a solve request.
func (s *Session) InWizard() bool {
	return s.State != StateMenu
}

// ResetScratch discards all collected wizard fields and returns the
// session to the menu. Settings are untouched.
func (s *Session) ResetScratch() {
	s.Scratch = Scratch{}
	s.State = StateMenu
}

// SolveRequest builds the immutable request submitted to the solver
// backend from the fully collected scratch record and the current
// method. Callers must only invoke it from the step-size handler,
// after every field has been validated.
func (s *Session) SolveRequest() SolveRequest {
	return SolveRequest{
		Method:            s.Settings.Method,
		Order:             s.Scratch.Order,
		UserEquation:      s.Scratch.RawEquation,
		FormattedEquation: s.Scratch.Normalized,
		InitialX:          s.Scratch.InitialX,
		InitialY:          append([]float64(nil), s.Scratch.InitialY...),
		ReachPoint:        s.Scratch.ReachPoint,
		StepSize:          s.Scratch.StepSize,
	}
}
