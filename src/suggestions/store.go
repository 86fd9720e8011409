package suggestions

import (
	"context"

	"github.com/go-faster/errors"
	"gorm.io/gorm"
)

// DefaultVoteAttempts bounds the optimistic retry loop of ApplyVote.
const DefaultVoteAttempts = 100

// Migrate creates or updates the suggestions table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Suggestion{})
}

// Store is the persistence layer for suggestion records.
type Store struct {
	db          *gorm.DB
	maxAttempts int
}

// NewStore wraps db. maxAttempts <= 0 selects DefaultVoteAttempts.
func NewStore(db *gorm.DB, maxAttempts int) *Store {
	if maxAttempts <= 0 {
		maxAttempts = DefaultVoteAttempts
	}
	return &Store{db: db, maxAttempts: maxAttempts}
}

// DB exposes the underlying handle for health checks.
func (st *Store) DB() *gorm.DB {
	return st.db
}

// Create inserts s and assigns its id.
func (st *Store) Create(ctx context.Context, s *Suggestion) error {
	if s.VoteLedger == nil {
		s.VoteLedger = Ledger{}
	}
	if err := st.db.WithContext(ctx).Create(s).Error; err != nil {
		return errors.Wrap(err, "create suggestion")
	}
	return nil
}

// AttachMessage stores the display reference of a created suggestion.
func (st *Store) AttachMessage(ctx context.Context, id uint64, ref string) error {
	res := st.db.WithContext(ctx).
		Model(&Suggestion{}).
		Where("id = ?", id).
		Update("message_id", ref)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "attach message to suggestion %d", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads a suggestion by id.
func (st *Store) Get(ctx context.Context, id uint64) (*Suggestion, error) {
	var s Suggestion
	if err := st.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "load suggestion %d", id)
	}
	return &s, nil
}

// GetByMessage resolves a display reference back to its suggestion.
func (st *Store) GetByMessage(ctx context.Context, ref string) (*Suggestion, error) {
	if ref == "" {
		return nil, ErrNotFound
	}
	var s Suggestion
	if err := st.db.WithContext(ctx).Where("message_id = ?", ref).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "load suggestion by message %s", ref)
	}
	return &s, nil
}

// ListByStatus returns suggestions having one of the given statuses in id order.
func (st *Store) ListByStatus(ctx context.Context, statuses ...Status) ([]Suggestion, error) {
	var out []Suggestion
	q := st.db.WithContext(ctx).Order("id ASC")
	if len(statuses) > 0 {
		values := make([]int, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, int(status))
		}
		q = q.Where("status IN ?", values)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list suggestions")
	}
	return out, nil
}

// VoteResult reports the outcome of ApplyVote.
type VoteResult struct {
	// Suggestion is the record as committed, or as read when nothing changed.
	Suggestion *Suggestion
	Changed    bool
	Attempts   int
}

// Tally returns the counters after the vote.
func (r VoteResult) Tally() Tally {
	if r.Suggestion == nil {
		return Tally{}
	}
	return r.Suggestion.Tally()
}

// ApplyVote records voter's desire on suggestion id. The ledger entry and
// both counters are written in one conditional update keyed on the row
// version; a concurrent writer makes the update miss and the vote is
// recomputed from a fresh read.
func (st *Store) ApplyVote(ctx context.Context, id uint64, voter string, d Desire) (VoteResult, error) {
	for attempt := 1; attempt <= st.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return VoteResult{Attempts: attempt - 1}, err
		}

		s, err := st.Get(ctx, id)
		if err != nil {
			return VoteResult{Attempts: attempt}, err
		}

		if !transition(s, voter, d) {
			return VoteResult{Suggestion: s, Attempts: attempt}, nil
		}

		res := st.db.WithContext(ctx).
			Model(&Suggestion{}).
			Where("id = ? AND version = ?", s.ID, s.Version).
			Updates(map[string]any{
				"votes_for":     s.VotesFor,
				"votes_against": s.VotesAgainst,
				"vote_ledger":   s.VoteLedger,
				"version":       s.Version + 1,
			})
		if res.Error != nil {
			return VoteResult{Attempts: attempt}, errors.Wrapf(res.Error, "apply vote to suggestion %d", id)
		}
		if res.RowsAffected == 1 {
			s.Version++
			return VoteResult{Suggestion: s, Changed: true, Attempts: attempt}, nil
		}
	}
	return VoteResult{Attempts: st.maxAttempts}, errors.Wrapf(ErrConflict, "suggestion %d after %d attempts", id, st.maxAttempts)
}

// SetStatus overwrites the status and reason of suggestion id and returns the
// record as committed.
func (st *Store) SetStatus(ctx context.Context, id uint64, status Status, reason string) (*Suggestion, error) {
	var out Suggestion
	err := st.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Suggestion{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":        int(status),
				"status_reason": reason,
				"version":       gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).First(&out).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "set status of suggestion %d", id)
	}
	return &out, nil
}

// Delete removes suggestion id.
func (st *Store) Delete(ctx context.Context, id uint64) error {
	res := st.db.WithContext(ctx).Where("id = ?", id).Delete(&Suggestion{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete suggestion %d", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
