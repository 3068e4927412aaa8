package inventory

// Step identifies one call in the fixed query sequence.
type Step int

const (
	StepNone Step = iota
	StepHealth
	StepUsers
	StepDevices
	StepPolicies
)

func (s Step) String() string {
	switch s {
	case StepHealth:
		return "health"
	case StepUsers:
		return "users"
	case StepDevices:
		return "devices"
	case StepPolicies:
		return "conditional-access-policies"
	default:
		return "none"
	}
}

// State is the lifecycle of a Runner.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "not_started"
	}
}

// Result summarizes one pass over the sequence.
type Result struct {
	State      State
	Completed  []Step
	FailedStep Step
	Counts     map[Step]int
	// Malformed lists steps whose response lacked a usable value array.
	Malformed []Step
}

// Succeeded reports whether every step ran.
func (r Result) Succeeded() bool { return r.State == StateCompleted }
