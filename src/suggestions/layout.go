package suggestions

import (
	"strconv"

	"github.com/go-faster/errors"
)

// Field names of the rendered summary. Positions 0-2 are fixed; the tail is
// either [ID] or [Reason, ID].
const (
	FieldStatus    = "Status"
	FieldUpvotes   = "Upvotes"
	FieldDownvotes = "Downvotes"
	FieldReason    = "Reason"
	FieldID        = "ID"

	headLen = 3
)

var errMalformedLayout = errors.New("malformed display layout")

// Field is one name/value slot of the rendered summary.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Layout is the ordered field list of a rendered suggestion.
type Layout []Field

// NewLayout is the layout of a freshly created suggestion.
func NewLayout(s *Suggestion) Layout {
	return Layout{
		{Name: FieldStatus, Value: s.Status.Label(), Inline: true},
		{Name: FieldUpvotes, Value: strconv.Itoa(s.VotesFor), Inline: true},
		{Name: FieldDownvotes, Value: strconv.Itoa(s.VotesAgainst), Inline: true},
		idField(s.ID),
	}
}

func idField(id uint64) Field {
	return Field{Name: FieldID, Value: strconv.FormatUint(id, 10), Inline: true}
}

// validate checks the fixed head and that the tail ends with ID.
func (l Layout) validate() error {
	if len(l) != headLen+1 && len(l) != headLen+2 {
		return errors.Wrapf(errMalformedLayout, "%d fields", len(l))
	}
	if l[0].Name != FieldStatus || l[1].Name != FieldUpvotes || l[2].Name != FieldDownvotes {
		return errors.Wrap(errMalformedLayout, "head")
	}
	if l[len(l)-1].Name != FieldID {
		return errors.Wrap(errMalformedLayout, "tail")
	}
	if len(l) == headLen+2 && l[headLen].Name != FieldReason {
		return errors.Wrap(errMalformedLayout, "reason slot")
	}
	return nil
}

// Reason returns the attached manager reason, if any.
func (l Layout) Reason() (string, bool) {
	if len(l) == headLen+2 && l[headLen].Name == FieldReason {
		return l[headLen].Value, true
	}
	return "", false
}

func (l Layout) clone() Layout {
	out := make(Layout, len(l))
	copy(out, l)
	return out
}

// WithCounts rewrites the Upvotes and Downvotes slots.
func (l Layout) WithCounts(t Tally) (Layout, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	out := l.clone()
	out[1].Value = strconv.Itoa(t.For)
	out[2].Value = strconv.Itoa(t.Against)
	return out, nil
}

// WithStatus rewrites the Status slot.
func (l Layout) WithStatus(s Status) (Layout, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	out := l.clone()
	out[0].Value = s.Label()
	return out, nil
}

// WithReason sets the tail. An empty reason yields [ID]; otherwise [Reason, ID].
// The ID field is carried over as is, only its slot moves.
func (l Layout) WithReason(reason string) (Layout, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	id := l[len(l)-1]
	head := l[:headLen]

	if reason == "" {
		out := make(Layout, 0, headLen+1)
		out = append(out, head...)
		return append(out, id), nil
	}

	out := make(Layout, 0, headLen+2)
	out = append(out, head...)
	return append(out, Field{Name: FieldReason, Value: reason}, id), nil
}
