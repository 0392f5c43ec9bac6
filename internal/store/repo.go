// Package store is the boundary to the shared relational backend. Every
// record is written with upsert-by-key semantics: the last writer fully
// replaces the row, and readers tolerate staleness by design.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// resultChunkSize caps the size of IN(...) key lists per query.
const resultChunkSize = 20

// Notifier receives change callbacks after successful writes. The websocket
// hub implements it; a nil notifier disables push.
type Notifier interface {
	StateChanged(GlobalState)
	ResultChanged(MatchResult)
}

type Repo struct {
	db       *gorm.DB
	notifier Notifier
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// SetNotifier attaches a change-notification sink. Must be called before
// the engine starts writing.
func (r *Repo) SetNotifier(n Notifier) { r.notifier = n }

// LoadState fetches the singleton state row, creating it with defaults on
// first boot.
func (r *Repo) LoadState(ctx context.Context) (GlobalState, error) {
	var s GlobalState
	err := r.db.WithContext(ctx).First(&s, "id = ?", GlobalStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = DefaultState()
		s.UpdatedAt = time.Now().UTC()
		if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
			return GlobalState{}, err
		}
		return s, nil
	}
	if err != nil {
		return GlobalState{}, err
	}
	return s, nil
}

// SaveState replaces the singleton state row.
func (r *Repo) SaveState(ctx context.Context, s GlobalState) error {
	s.ID = GlobalStateID
	if err := r.db.WithContext(ctx).Save(&s).Error; err != nil {
		return err
	}
	if r.notifier != nil {
		r.notifier.StateChanged(s)
	}
	return nil
}

// UpsertResult inserts or fully replaces a result row keyed by match id.
func (r *Repo) UpsertResult(ctx context.Context, m MatchResult) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "match_id"}},
		UpdateAll: true,
	}).Create(&m).Error
	if err != nil {
		return err
	}
	if r.notifier != nil {
		r.notifier.ResultChanged(m)
	}
	return nil
}

// GetResult returns the row for one match id, or nil when absent.
func (r *Repo) GetResult(ctx context.Context, matchID string) (*MatchResult, error) {
	var m MatchResult
	err := r.db.WithContext(ctx).First(&m, "match_id = ?", matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetResults fetches rows for a key list, chunked to respect backend
// limits on IN(...) length. Missing ids are simply absent from the output.
func (r *Repo) GetResults(ctx context.Context, matchIDs []string) ([]MatchResult, error) {
	out := make([]MatchResult, 0, len(matchIDs))
	for start := 0; start < len(matchIDs); start += resultChunkSize {
		end := start + resultChunkSize
		if end > len(matchIDs) {
			end = len(matchIDs)
		}
		var chunk []MatchResult
		if err := r.db.WithContext(ctx).Where("match_id IN ?", matchIDs[start:end]).Find(&chunk).Error; err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// DeleteResult removes a result row by key.
func (r *Repo) DeleteResult(ctx context.Context, matchID string) error {
	return r.db.WithContext(ctx).Delete(&MatchResult{}, "match_id = ?", matchID).Error
}

// ServerTime returns the backend's clock, used to calibrate the schedule
// clock's server offset.
func (r *Repo) ServerTime(ctx context.Context) (time.Time, error) {
	var raw string
	if err := r.db.WithContext(ctx).Raw("SELECT strftime('%Y-%m-%dT%H:%M:%fZ','now')").Scan(&raw).Error; err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse("2006-01-02T15:04:05.999Z", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
