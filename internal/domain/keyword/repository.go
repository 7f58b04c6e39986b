package keyword

import (
	"context"
	"time"

	"github.com/rankscope/rankscope/pkg/types/common"
	kw "github.com/rankscope/rankscope/pkg/types/keyword"
)

// Snapshot is one domain's normalized keyword inventory captured at a point
// in time.  Snapshots are immutable once stored; a fresh collection always
// produces a new snapshot rather than mutating an old one.
type Snapshot struct {
	ID          common.ID   `json:"id"`
	Domain      string      `json:"domain"`
	Provider    string      `json:"provider"`
	CollectedAt time.Time   `json:"collected_at"`
	Records     []kw.Record `json:"records"`

	// DroppedRecords counts raw provider records rejected during
	// normalization, kept for collection diagnostics.
	DroppedRecords int `json:"dropped_records"`
}

// NewSnapshot builds a snapshot from a normalization result.  CollectedAt is
// supplied by the caller so storage round-trips stay reproducible.
func NewSnapshot(res Result, provider string, collectedAt time.Time) *Snapshot {
	s := &Snapshot{
		ID:             common.NewID(),
		Provider:       provider,
		CollectedAt:    collectedAt,
		DroppedRecords: res.Dropped,
	}
	if res.Set != nil {
		s.Domain = res.Set.Domain
		for _, k := range res.Set.Keywords() {
			rec, _ := res.Set.Get(k)
			s.Records = append(s.Records, rec)
		}
	}
	return s
}

// DomainSet rebuilds the canonical lookup structure from stored records.
func (s *Snapshot) DomainSet() *kw.DomainSet {
	set := kw.NewDomainSet(s.Domain)
	for _, rec := range s.Records {
		set.Add(rec)
	}
	return set
}

// SnapshotRepository persists and retrieves keyword snapshots.
type SnapshotRepository interface {
	// Save stores a snapshot.  Saving an existing ID is a conflict.
	Save(ctx context.Context, snapshot *Snapshot) error

	// GetByID returns the snapshot with the given ID, or a not-found error.
	GetByID(ctx context.Context, id common.ID) (*Snapshot, error)

	// GetLatest returns the most recently collected snapshot for a domain,
	// or a not-found error when the domain has never been collected.
	GetLatest(ctx context.Context, domain string) (*Snapshot, error)

	// ListByDomain returns snapshots for a domain, newest first.
	ListByDomain(ctx context.Context, domain string, p common.Pagination) ([]*Snapshot, int64, error)

	// Delete removes a snapshot by ID.
	Delete(ctx context.Context, id common.ID) error
}
