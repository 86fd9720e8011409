package suggestions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{Logger: gormlogger.Discard},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes statements
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(newTestDB(t), 0)
}

func seed(t *testing.T, st *Store, author string) *Suggestion {
	t.Helper()
	s := &Suggestion{
		Title:       "Seeded",
		Description: "Seeded suggestion",
		AuthorID:    author,
		Status:      StatusOpen,
		VotesFor:    1,
		VoteLedger:  Ledger{author: VoteUp},
	}
	require.NoError(t, st.Create(context.Background(), s))
	return s
}

type fakeMessage struct {
	display Display
	status  Status
	layout  Layout
	renders int
}

type fakeThread struct {
	name    string
	posts   []string
	removed []string
	closed  bool
}

// fakeSurface is an in-memory Surface recording every side effect.
type fakeSurface struct {
	mu       sync.Mutex
	next     int
	messages map[string]*fakeMessage
	threads  map[string]*fakeThread
	members  map[string]string

	deletedMessages []string
	deletedThreads  []string
	calls           int

	publishErr      error
	openThreadErr   error
	deleteThreadErr error
	deleteMsgErr    error
	renderErr       error

	// hold, when set, is called inside Render after the layout is read and
	// again before the new layout is written.
	hold func(stage string)
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		messages: map[string]*fakeMessage{},
		threads:  map[string]*fakeThread{},
		members:  map[string]string{},
	}
}

func (f *fakeSurface) Publish(_ context.Context, d Display) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.next++
	ref := "msg-" + strconv.Itoa(f.next)
	f.messages[ref] = &fakeMessage{display: d, status: d.Status, layout: d.Layout}
	return ref, nil
}

// Stages of a fake render at which a test can hold the caller.
const (
	renderRead  = "read"
	renderWrite = "write"
)

func (f *fakeSurface) setHold(hold func(stage string)) {
	f.mu.Lock()
	f.hold = hold
	f.mu.Unlock()
}

func (f *fakeSurface) Render(_ context.Context, ref string, status Status, update func(Layout) (Layout, error)) error {
	f.mu.Lock()
	f.calls++
	err := f.renderErr
	m, ok := f.messages[ref]
	var current Layout
	if ok {
		current = m.layout.clone()
	}
	hold := f.hold
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return errors.New("unknown message")
	}
	if hold != nil {
		hold(renderRead)
	}
	next, err := update(current)
	if err != nil || next == nil {
		return err
	}
	if hold != nil {
		hold(renderWrite)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	m.status = status
	m.layout = next.clone()
	m.renders++
	return nil
}

func (f *fakeSurface) DeleteMessage(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.deleteMsgErr != nil {
		return f.deleteMsgErr
	}
	delete(f.messages, ref)
	f.deletedMessages = append(f.deletedMessages, ref)
	return nil
}

func (f *fakeSurface) OpenThread(_ context.Context, ref, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.openThreadErr != nil {
		return f.openThreadErr
	}
	f.threads[ref] = &fakeThread{name: name}
	return nil
}

func (f *fakeSurface) PostThread(_ context.Context, ref, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	th, ok := f.threads[ref]
	if !ok {
		return "", errors.New("unknown thread")
	}
	th.posts = append(th.posts, content)
	return ref + "-post-" + strconv.Itoa(len(th.posts)), nil
}

func (f *fakeSurface) DeleteThreadMessage(_ context.Context, ref, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	th, ok := f.threads[ref]
	if !ok {
		return errors.New("unknown thread")
	}
	th.removed = append(th.removed, messageID)
	return nil
}

func (f *fakeSurface) CloseThread(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	th, ok := f.threads[ref]
	if !ok {
		return errors.New("unknown thread")
	}
	th.closed = true
	return nil
}

func (f *fakeSurface) DeleteThread(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.deleteThreadErr != nil {
		return f.deleteThreadErr
	}
	delete(f.threads, ref)
	f.deletedThreads = append(f.deletedThreads, ref)
	return nil
}

func (f *fakeSurface) MemberName(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.members[userID]
	if !ok {
		return "", errors.New("unknown member")
	}
	return name, nil
}

func (f *fakeSurface) Mention(userID string) string { return "<@" + userID + ">" }

func (f *fakeSurface) Link(ref string) string { return "https://chat.example/" + ref }

func (f *fakeSurface) message(ref string) *fakeMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[ref]
}

func (f *fakeSurface) thread(ref string) *fakeThread {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threads[ref]
}

func (f *fakeSurface) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []StatusChanged
	err    error
}

func (p *recordingPublisher) PublishStatusChanged(_ context.Context, ev StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}
