package rigsync

import "fmt"

type EventType int

func (et EventType) String() string {
	switch et {
	case EventTypeError:
		return "ERROR"
	case EventTypeWarning:
		return "WARN"
	case EventTypeInfo:
		return "INFO"
	case EventTypeDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

const (
	EventTypeError EventType = iota
	EventTypeWarning
	EventTypeInfo
	EventTypeDebug
)

// Event is a diagnostic message from a controller. Protocol hiccups are
// reported here instead of crossing the controller boundary as errors.
type Event struct {
	Source  string
	Type    EventType
	Details string
}

func (e Event) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Type.String(), e.Source, e.Details)
}

// FrequencyChanged is emitted when a poll observes a frequency different
// from the previously cached one.
type FrequencyChanged struct {
	Source    string
	Frequency Frequency
}

func (f FrequencyChanged) String() string {
	return fmt.Sprintf("%s -> %s", f.Source, f.Frequency)
}
