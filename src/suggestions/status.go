package suggestions

import "strings"

// StatusStyle is how a status is presented on the display surface.
type StatusStyle struct {
	Name  string
	Color int
	Icon  string
}

var statusStyles = map[Status]StatusStyle{
	StatusOpen:        {Name: "Open", Color: 0xFFFFFF, Icon: "⏳"},
	StatusConsidered:  {Name: "Considered", Color: 0x5865F2, Icon: "💬"},
	StatusApproved:    {Name: "Approved", Color: 0xFABD2F, Icon: "✅"},
	StatusImplemented: {Name: "Implemented", Color: 0x3BA55D, Icon: "🎉"},
	StatusDenied:      {Name: "Denied", Color: 0xED4245, Icon: "🚫"},
	StatusInvalid:     {Name: "Invalid", Color: 0xAAAAAA, Icon: "❔"},
}

// Style returns the display name, accent color and icon of s.
func (s Status) Style() StatusStyle {
	if style, ok := statusStyles[s]; ok {
		return style
	}
	return StatusStyle{Name: "Unknown", Color: 0x000000, Icon: "❓"}
}

func (s Status) String() string {
	return s.Style().Name
}

// Label is the icon followed by the name, as shown in the Status field.
func (s Status) Label() string {
	style := s.Style()
	return style.Icon + " " + style.Name
}

// ParseStatus resolves a status by name, case-insensitively.
func ParseStatus(name string) (Status, bool) {
	name = strings.TrimSpace(name)
	for _, s := range Statuses {
		if strings.EqualFold(s.Style().Name, name) {
			return s, true
		}
	}
	return 0, false
}

// closesThread reports whether reaching s ends the discussion.
func (s Status) closesThread() bool {
	return s == StatusDenied || s == StatusImplemented
}

// listed are the statuses shown by List, in order.
var listed = []Status{StatusOpen, StatusConsidered, StatusApproved}
