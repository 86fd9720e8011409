package suggestions

import (
	"context"
	"time"
)

// Display is everything needed to render a new suggestion message.
type Display struct {
	SuggestionID uint64
	Title        string
	Description  string
	AuthorID     string
	AuthorName   string
	Status       Status
	Layout       Layout
}

// Surface is the chat platform as seen by the engine. Thread operations are
// addressed by the display reference of the message the thread hangs off.
type Surface interface {
	// Publish sends a suggestion message to the designated channel and returns its reference.
	Publish(ctx context.Context, d Display) (string, error)
	// Render reads the field layout of a rendered suggestion once, hands it to
	// update and writes the returned layout back with the accent of status. A
	// nil layout from update leaves the message untouched.
	Render(ctx context.Context, ref string, status Status, update func(Layout) (Layout, error)) error
	DeleteMessage(ctx context.Context, ref string) error

	OpenThread(ctx context.Context, ref, name string) error
	// PostThread sends content to the discussion thread and returns the posted message id.
	PostThread(ctx context.Context, ref, content string) (string, error)
	DeleteThreadMessage(ctx context.Context, ref, messageID string) error
	// CloseThread sets a reply cool-down, schedules auto-archival and archives the thread.
	CloseThread(ctx context.Context, ref string) error
	DeleteThread(ctx context.Context, ref string) error

	MemberName(ctx context.Context, userID string) (string, error)
	Mention(userID string) string
	Link(ref string) string
}

// Actor is an authenticated user together with the capabilities the platform granted them.
type Actor struct {
	ID            string
	Name          string
	Curator       bool
	ManageThreads bool
}

// StatusChanged is emitted after a status change has been persisted.
type StatusChanged struct {
	SuggestionID uint64
	Status       Status
	Reason       string
	ActorID      string
	OccurredAt   time.Time
}

// Publisher forwards status-changed events to external consumers.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev StatusChanged) error
}
