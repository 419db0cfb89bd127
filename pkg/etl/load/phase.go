package load

import "fmt"

// Phase is a step of the load cycle state machine. A cycle walks the phases
// in order and ends in PhaseComplete, or in PhaseAborted from any
// non-terminal phase on an unrecoverable error.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseExtracting
	PhaseResolvingDimensions
	PhaseVersioningFacts
	PhaseReconciling
	PhaseComplete
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseExtracting:
		return "extracting"
	case PhaseResolvingDimensions:
		return "resolving_dimensions"
	case PhaseVersioningFacts:
		return "versioning_facts"
	case PhaseReconciling:
		return "reconciling"
	case PhaseComplete:
		return "complete"
	case PhaseAborted:
		return "aborted"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}
