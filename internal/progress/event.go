package progress

import "fmt"

// Kind distinguishes progress updates from the terminal outcomes.
type Kind int

const (
	KindProgress Kind = iota
	KindSuccess
	KindFailure
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindProgress:
		return "progress"
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a single message on a Channel.
type Event struct {
	Kind Kind
	// Fraction is the completion ratio in [0,1]. For transfers with an
	// unknown total it keeps its last value.
	Fraction float64
	// Bytes and Total are set for byte transfers. Total is 0 when unknown.
	Bytes int64
	Total int64
	// OutputPath is set on success.
	OutputPath string
	// Message is a human-readable summary for failures.
	Message string
	Err     error
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Kind != KindProgress
}

// Percent returns Fraction scaled to 0..100.
func (e Event) Percent() float64 {
	return e.Fraction * 100
}
