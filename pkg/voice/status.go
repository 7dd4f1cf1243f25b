package voice

import "encoding/json"

// Status represents the state of a voice session.
type Status int

const (
	StatusUnknown Status = iota
	StatusConnecting
	StatusListening
	StatusSpeaking
	StatusClosed
	StatusError
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusListening:
		return "listening"
	case StatusSpeaking:
		return "speaking"
	case StatusClosed:
		return "closed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "connecting":
		*s = StatusConnecting
	case "listening":
		*s = StatusListening
	case "speaking":
		*s = StatusSpeaking
	case "closed":
		*s = StatusClosed
	case "error":
		*s = StatusError
	default:
		*s = StatusUnknown
	}
	return nil
}

// Terminal reports whether the session is finished for good. A new
// session must be activated to continue.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusError
}

// Live reports whether the session is streaming (connected, capture
// running).
func (s Status) Live() bool {
	return s == StatusListening || s == StatusSpeaking
}
