package enums

import "fmt"

// EntryStatus tracks the work state of an order entry.
type EntryStatus string

const (
	EntryStatusNew        EntryStatus = "new"
	EntryStatusProcessing EntryStatus = "processing"
	EntryStatusComplete   EntryStatus = "complete"
	EntryStatusCancelled  EntryStatus = "cancelled"
)

var validEntryStatuses = []EntryStatus{
	EntryStatusNew,
	EntryStatusProcessing,
	EntryStatusComplete,
	EntryStatusCancelled,
}

// entryTransitions lists the forward moves allowed from each state.
// Cancelled has no outgoing moves.
var entryTransitions = map[EntryStatus][]EntryStatus{
	EntryStatusNew:        {EntryStatusProcessing, EntryStatusComplete, EntryStatusCancelled},
	EntryStatusProcessing: {EntryStatusComplete, EntryStatusCancelled},
	EntryStatusComplete:   {EntryStatusCancelled},
}

// Display colors used by presentation layers.
const (
	ColorBlue    = "blue"
	ColorOrange  = "orange"
	ColorGreen   = "green"
	ColorRed     = "red"
	ColorDefault = "black"
)

var entryStatusColors = map[EntryStatus]string{
	EntryStatusNew:        ColorBlue,
	EntryStatusProcessing: ColorOrange,
	EntryStatusComplete:   ColorGreen,
	EntryStatusCancelled:  ColorRed,
}

// EntryStatuses returns every known status in lifecycle order.
func EntryStatuses() []EntryStatus {
	out := make([]EntryStatus, len(validEntryStatuses))
	copy(out, validEntryStatuses)
	return out
}

// String implements fmt.Stringer.
func (s EntryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EntryStatus.
func (s EntryStatus) IsValid() bool {
	for _, candidate := range validEntryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// FreezesTotal reports whether entries in this state keep their last total.
func (s EntryStatus) FreezesTotal() bool {
	return s == EntryStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Staying in the same state is always allowed.
func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	for _, candidate := range entryTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Color maps the status to its display color. Unknown values get
// ColorDefault instead of an error.
func (s EntryStatus) Color() string {
	if color, ok := entryStatusColors[s]; ok {
		return color
	}
	return ColorDefault
}

// StatusColor is Color for raw status strings coming from storage or templates.
func StatusColor(status string) string {
	return EntryStatus(status).Color()
}

// ParseEntryStatus converts raw input into an EntryStatus.
func ParseEntryStatus(value string) (EntryStatus, error) {
	for _, candidate := range validEntryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entry status %q", value)
}
