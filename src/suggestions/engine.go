package suggestions

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

const (
	maxThreadName   = 100
	maxRenderPasses = 3
)

// Options carries the optional collaborators of an Engine.
type Options struct {
	Events  Publisher
	Metrics *Metrics
	Logger  *logrus.Entry
}

// Engine runs the suggestion lifecycle against a Store and a Surface.
type Engine struct {
	store    *Store
	surface  Surface
	events   Publisher
	metrics  *Metrics
	log      *logrus.Entry
	rendered renderGuard
}

// NewEngine wires an engine.
func NewEngine(store *Store, surface Surface, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger()).WithField("module", "suggestions")
	}
	return &Engine{
		store:    store,
		surface:  surface,
		events:   opts.Events,
		metrics:  opts.Metrics,
		log:      log,
		rendered: renderGuard{versions: make(map[uint64]uint64)},
	}
}

// Metrics returns the engine's collectors, possibly nil.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Created is the result of a successful Create.
type Created struct {
	Suggestion *Suggestion
	Link       string
}

// Create stores a new suggestion by actor, renders it, opens its discussion
// thread and pings the author there.
func (e *Engine) Create(ctx context.Context, actor Actor, title, description string) (*Created, error) {
	in := createInput{Title: clean(title), Description: clean(description)}
	if err := checkInput(in); err != nil {
		return nil, err
	}

	s := &Suggestion{
		Title:        in.Title,
		Description:  in.Description,
		AuthorID:     actor.ID,
		Status:       StatusOpen,
		VotesFor:     1,
		VotesAgainst: 0,
		VoteLedger:   Ledger{actor.ID: VoteUp},
	}
	if err := e.store.Create(ctx, s); err != nil {
		return nil, internal("create", err)
	}

	ref, err := e.surface.Publish(ctx, Display{
		SuggestionID: s.ID,
		Title:        s.Title,
		Description:  s.Description,
		AuthorID:     actor.ID,
		AuthorName:   actor.Name,
		Status:       s.Status,
		Layout:       NewLayout(s),
	})
	if err != nil {
		e.discard(ctx, s.ID, "")
		return nil, internal("publish suggestion", err)
	}

	if err := e.store.AttachMessage(ctx, s.ID, ref); err != nil {
		e.discard(ctx, s.ID, ref)
		return nil, internal("attach message", err)
	}
	s.MessageID = &ref
	e.rendered.advance(s.ID, s.Version)

	log := e.log.WithField("suggestion", s.ID)
	if err := e.surface.OpenThread(ctx, ref, threadName(s)); err != nil {
		log.WithError(err).Warn("suggestions: failed to open discussion thread")
	} else {
		e.ping(ctx, ref, actor.ID, log)
	}

	log.WithField("author", actor.ID).Info("suggestions: created")
	return &Created{Suggestion: s, Link: e.surface.Link(ref)}, nil
}

// ping mentions the user in the thread and removes the mention right away.
// The platform notification survives the deletion.
func (e *Engine) ping(ctx context.Context, ref, userID string, log *logrus.Entry) {
	msgID, err := e.surface.PostThread(ctx, ref, e.surface.Mention(userID))
	if err != nil {
		log.WithError(err).Warn("suggestions: failed to ping author")
		return
	}
	if err := e.surface.DeleteThreadMessage(ctx, ref, msgID); err != nil {
		log.WithError(err).Warn("suggestions: failed to remove author ping")
	}
}

// discard undoes a half-finished creation.
func (e *Engine) discard(ctx context.Context, id uint64, ref string) {
	ctx = context.WithoutCancel(ctx)
	if ref != "" {
		if err := e.surface.DeleteMessage(ctx, ref); err != nil {
			e.log.WithError(err).WithField("suggestion", id).Error("suggestions: failed to remove orphaned message")
		}
	}
	if err := e.store.Delete(ctx, id); err != nil {
		e.log.WithError(err).WithField("suggestion", id).Error("suggestions: failed to remove orphaned record")
	}
}

func threadName(s *Suggestion) string {
	name := fmt.Sprintf("#%d %s", s.ID, s.Title)
	if utf8.RuneCountInString(name) <= maxThreadName {
		return name
	}
	runes := []rune(name)
	return string(runes[:maxThreadName-1]) + "…"
}

// Vote applies a vote event from an interaction on the rendered message ref.
// ErrNotFound means the message does not belong to any suggestion.
func (e *Engine) Vote(ctx context.Context, ref, voterID string, d Desire) (VoteResult, error) {
	s, err := e.store.GetByMessage(ctx, ref)
	if err != nil {
		return VoteResult{}, internal("resolve message", err)
	}
	return e.ApplyVote(ctx, s.ID, voterID, d)
}

// ApplyVote records voterID's desire on suggestion id and refreshes the
// rendered counters when the ledger changed.
func (e *Engine) ApplyVote(ctx context.Context, id uint64, voterID string, d Desire) (VoteResult, error) {
	res, err := e.store.ApplyVote(ctx, id, voterID, d)
	if err != nil {
		return res, internal("apply vote", err)
	}
	if !res.Changed {
		return res, nil
	}
	e.metrics.observeVote(d, res.Attempts)

	if err := e.sync(ctx, res.Suggestion); err != nil {
		return res, internal("render votes", err)
	}
	return res, nil
}

// SetStatus moves suggestion id to status on behalf of a curator. A non-empty
// reason is shown on the display until a later change without one.
func (e *Engine) SetStatus(ctx context.Context, actor Actor, id uint64, status Status, reason string) (*Suggestion, error) {
	if !actor.Curator {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Message: "Unknown status."}
	}
	in := statusInput{Reason: clean(reason)}
	if err := checkInput(in); err != nil {
		return nil, err
	}

	s, err := e.store.SetStatus(ctx, id, status, in.Reason)
	if err != nil {
		return nil, internal("set status", err)
	}
	e.metrics.observeStatus(status)

	log := e.log.WithFields(logrus.Fields{"suggestion": id, "status": status.String(), "actor": actor.ID})
	if err := e.sync(ctx, s); err != nil {
		return s, internal("render status", err)
	}

	ref := s.MessageRef()
	notice := fmt.Sprintf("Status changed to **%s**", status.Label())
	if in.Reason != "" {
		notice += "\nReason: " + in.Reason
	}
	if ref != "" {
		if _, err := e.surface.PostThread(ctx, ref, notice); err != nil {
			log.WithError(err).Warn("suggestions: failed to post status notice")
		}
	}

	if e.events != nil {
		ev := StatusChanged{
			SuggestionID: id,
			Status:       status,
			Reason:       in.Reason,
			ActorID:      actor.ID,
			OccurredAt:   time.Now().UTC(),
		}
		if err := e.events.PublishStatusChanged(ctx, ev); err != nil {
			log.WithError(err).Warn("suggestions: failed to publish status event")
		}
	}

	if status.closesThread() && actor.ManageThreads && ref != "" {
		if err := e.surface.CloseThread(ctx, ref); err != nil {
			log.WithError(err).Warn("suggestions: failed to close discussion thread")
		}
	}

	log.Info("suggestions: status changed")
	return s, nil
}

// sync rewrites the rendered layout of s from its persisted state. A render
// is dropped once a newer version of the same suggestion has been seen. When a
// newer version shows up while this render is in flight, the edits may land
// out of order, so the newest record is read back and rendered again.
func (e *Engine) sync(ctx context.Context, s *Suggestion) error {
	ref := s.MessageRef()
	if ref == "" {
		return nil
	}
	for pass := 0; pass < maxRenderPasses; pass++ {
		if !e.rendered.advance(s.ID, s.Version) {
			return nil
		}

		wrote := false
		err := e.surface.Render(ctx, ref, s.Status, func(current Layout) (Layout, error) {
			if !e.rendered.current(s.ID, s.Version) {
				return nil, nil
			}
			wrote = true
			return e.layoutFor(current, s)
		})
		if err != nil {
			return err
		}
		if !wrote || e.rendered.current(s.ID, s.Version) {
			return nil
		}

		fresh, err := e.store.Get(ctx, s.ID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		s = fresh
	}
	return nil
}

// layoutFor projects s onto the rendered layout, rebuilding it when the
// message no longer carries a layout this engine understands.
func (e *Engine) layoutFor(current Layout, s *Suggestion) (Layout, error) {
	layout, err := project(current, s)
	if err == nil || !errors.Is(err, errMalformedLayout) {
		return layout, err
	}
	e.log.WithError(err).WithField("suggestion", s.ID).Warn("suggestions: rebuilding display layout")
	return project(NewLayout(s), s)
}

// project applies the persisted status, counters and reason to layout.
func project(layout Layout, s *Suggestion) (Layout, error) {
	layout, err := layout.WithStatus(s.Status)
	if err != nil {
		return nil, err
	}
	if layout, err = layout.WithCounts(s.Tally()); err != nil {
		return nil, err
	}
	return layout.WithReason(s.StatusReason)
}

// Deleted describes a removed suggestion.
type Deleted struct {
	ID         uint64
	Title      string
	AuthorName string
}

// Delete removes suggestion id together with its message and thread. Only the
// author or a curator may delete.
func (e *Engine) Delete(ctx context.Context, actor Actor, id uint64) (*Deleted, error) {
	s, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, internal("load suggestion", err)
	}
	if actor.ID != s.AuthorID && !actor.Curator {
		return nil, ErrForbidden
	}

	log := e.log.WithFields(logrus.Fields{"suggestion": id, "actor": actor.ID})
	if ref := s.MessageRef(); ref != "" {
		if actor.ManageThreads {
			if err := e.surface.DeleteThread(ctx, ref); err != nil {
				log.WithError(err).Warn("suggestions: failed to delete discussion thread")
			}
		}
		if err := e.surface.DeleteMessage(ctx, ref); err != nil {
			return nil, internal("delete message", err)
		}
	}

	if err := e.store.Delete(ctx, id); err != nil {
		return nil, internal("delete suggestion", err)
	}
	e.rendered.forget(id)

	name, err := e.surface.MemberName(ctx, s.AuthorID)
	if err != nil || name == "" {
		log.WithError(err).Debug("suggestions: author name unavailable")
		name = "an unknown member"
	}

	log.Info("suggestions: deleted")
	return &Deleted{ID: id, Title: s.Title, AuthorName: name}, nil
}

// Entry is one line of a listing.
type Entry struct {
	ID    uint64
	Title string
	Link  string
}

// Group is the listing of one status.
type Group struct {
	Status  Status
	Entries []Entry
}

// List returns the Open, Considered and Approved suggestions grouped by status
// in store order.
func (e *Engine) List(ctx context.Context) ([]Group, error) {
	rows, err := e.store.ListByStatus(ctx, listed...)
	if err != nil {
		return nil, internal("list suggestions", err)
	}

	groups := make([]Group, len(listed))
	index := make(map[Status]int, len(listed))
	for i, status := range listed {
		groups[i] = Group{Status: status}
		index[status] = i
	}
	for _, s := range rows {
		i, ok := index[s.Status]
		if !ok {
			continue
		}
		entry := Entry{ID: s.ID, Title: s.Title}
		if ref := s.MessageRef(); ref != "" {
			entry.Link = e.surface.Link(ref)
		}
		groups[i].Entries = append(groups[i].Entries, entry)
	}
	return groups, nil
}

// Get loads suggestion id.
func (e *Engine) Get(ctx context.Context, id uint64) (*Suggestion, error) {
	s, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, internal("load suggestion", err)
	}
	return s, nil
}

// Link returns the display link of s, or "" before it was rendered.
func (e *Engine) Link(s *Suggestion) string {
	if ref := s.MessageRef(); ref != "" {
		return e.surface.Link(ref)
	}
	return ""
}

type renderGuard struct {
	mu       sync.Mutex
	versions map[uint64]uint64
}

// advance reports whether version is at least the newest version seen for
// id, recording it when so.
func (g *renderGuard) advance(id, version uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if last, ok := g.versions[id]; ok && version < last {
		return false
	}
	g.versions[id] = version
	return true
}

// current reports whether version is still the newest version seen for id.
func (g *renderGuard) current(id, version uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.versions[id]
	return !ok || version >= last
}

func (g *renderGuard) forget(id uint64) {
	g.mu.Lock()
	delete(g.versions, id)
	g.mu.Unlock()
}
