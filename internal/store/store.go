// Package store persists memory entries as a whole-file JSON snapshot.
//
// Every mutation re-reads the snapshot, applies the change, backs up the
// previous file and commits via write-to-temp-then-rename. A killed writer
// can therefore never leave a truncated or unparsable snapshot behind: the
// previous valid file stays in place until the rename lands. Independent
// CLI invocations may write the same snapshot while a service holds it
// open, so every read-modify-write sequence also takes an advisory file
// lock next to the snapshot.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sys/unix"

	"github.com/AWolf81/memory-lane/internal/model"
)

// Snapshot is the full persisted store state.
type Snapshot struct {
	Revision    int64         `json:"revision"`
	CreatedAt   time.Time     `json:"created_at"`
	LastUpdated time.Time     `json:"last_updated"`
	Entries     []model.Entry `json:"entries"`
}

// Store owns the snapshot file. In-process callers are serialized through
// a mutex; cross-process writers are serialized through the advisory file
// lock so concurrent load-modify-rename sequences cannot drop each other's
// entries.
type Store struct {
	path      string
	backupDir string

	mu      sync.Mutex
	entropy *rand.Rand
}

// AddParams holds parameters for storing a new entry.
type AddParams struct {
	Category  string
	Content   string
	Source    string
	Relevance float64
}

// Open binds a store to its snapshot file, creating an empty snapshot when
// the file does not exist. A present-but-unreadable snapshot is an
// ErrStoreCorruption: the caller decides whether to restore from a backup,
// the store never silently starts fresh.
func Open(path, backupDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &Store{
		path:      path,
		backupDir: backupDir,
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		lock, err := s.lockFile()
		if err != nil {
			return nil, err
		}
		defer unlockFile(lock)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			now := time.Now().UTC()
			snap := &Snapshot{Revision: 0, CreatedAt: now, LastUpdated: now, Entries: []model.Entry{}}
			if err := s.commit(snap, false); err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// lockFile takes the advisory exclusive lock shared by every process that
// writes this snapshot. Callers hold it across the whole
// load-modify-backup-rename sequence.
func (s *Store) lockFile() (*os.File, error) {
	f, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open store lock: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock store: %w", err)
	}
	return f, nil
}

func unlockFile(f *os.File) {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	f.Close()
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// load reads and parses the snapshot file. Callers hold s.mu.
func (s *Store) load() (*Snapshot, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s is unreadable (%v); restore a backup from %s",
			model.ErrStoreCorruption, s.path, err, s.backupDir)
	}
	if snap.Entries == nil {
		snap.Entries = []model.Entry{}
	}
	return &snap, nil
}

// writeTemp serializes the snapshot to a uniquely named temp file next to
// the live one, so concurrent writers never clobber each other's temp.
// Split from the rename so tests can simulate a writer killed mid-flight.
func (s *Store) writeTemp(snap *Snapshot) (string, error) {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp snapshot: %w", err)
	}
	return f.Name(), nil
}

// commit bumps revision, optionally backs up the prior file, and atomically
// replaces the snapshot. Callers hold s.mu.
func (s *Store) commit(snap *Snapshot, backupPrior bool) error {
	snap.Revision++
	snap.LastUpdated = time.Now().UTC()

	if backupPrior {
		if _, err := s.backupLocked(); err != nil {
			return err
		}
	}
	tmp, err := s.writeTemp(snap)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Add validates, caps and persists a new entry, returning the stored copy.
func (s *Store) Add(p AddParams) (*model.Entry, error) {
	if !model.ValidCategory(p.Category) {
		return nil, fmt.Errorf("%w: %q (want one of %v)", model.ErrInvalidCategory, p.Category, model.Categories)
	}
	source := p.Source
	if source == "" {
		source = "manual"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lock, err := s.lockFile()
	if err != nil {
		return nil, err
	}
	defer unlockFile(lock)
	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	entry := model.Entry{
		ID:             s.newID(),
		Category:       p.Category,
		Content:        model.TruncateContent(p.Content),
		Source:         source,
		CreatedAt:      time.Now().UTC(),
		RelevanceScore: model.ClampRelevance(p.Relevance),
	}
	snap.Entries = append(snap.Entries, entry)

	if err := s.commit(snap, true); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns entries in insertion order, optionally filtered by category
// and optionally sorted by descending relevance.
func (s *Store) List(category string, byRelevance bool) ([]model.Entry, error) {
	if category != "" && !model.ValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidCategory, category)
	}

	s.mu.Lock()
	snap, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]model.Entry, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		if category == "" || e.Category == category {
			out = append(out, e)
		}
	}
	if byRelevance {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RelevanceScore > out[j].RelevanceScore
		})
	}
	return out, nil
}

// Touch records a recall hit: usage_count+1 and last_used_at=now.
func (s *Store) Touch(id string) (*model.Entry, error) {
	return s.addUsage(id, 1)
}

// FoldUsage merges a removed duplicate's usage count into its survivor.
func (s *Store) FoldUsage(id string, n int) (*model.Entry, error) {
	if n <= 0 {
		n = 1
	}
	return s.addUsage(id, n)
}

func (s *Store) addUsage(id string, n int) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, err := s.lockFile()
	if err != nil {
		return nil, err
	}
	defer unlockFile(lock)
	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	for i := range snap.Entries {
		if snap.Entries[i].ID != id {
			continue
		}
		now := time.Now().UTC()
		snap.Entries[i].UsageCount += n
		snap.Entries[i].LastUsedAt = &now
		if err := s.commit(snap, true); err != nil {
			return nil, err
		}
		e := snap.Entries[i]
		return &e, nil
	}
	return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
}

// Prune drops entries below minRelevance, then trims the lowest-relevance
// remainder until at or under maxSize. Ties break toward the entry with the
// oldest last_used_at; never-used entries are treated as oldest.
func (s *Store) Prune(maxSize int, minRelevance float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, err := s.lockFile()
	if err != nil {
		return 0, err
	}
	defer unlockFile(lock)
	snap, err := s.load()
	if err != nil {
		return 0, err
	}

	kept := snap.Entries[:0:0]
	for _, e := range snap.Entries {
		if e.RelevanceScore >= minRelevance {
			kept = append(kept, e)
		}
	}

	if maxSize > 0 && len(kept) > maxSize {
		// Remove lowest relevance first, oldest-used among equals.
		order := make([]model.Entry, len(kept))
		copy(order, kept)
		sort.SliceStable(order, func(i, j int) bool {
			if order[i].RelevanceScore != order[j].RelevanceScore {
				return order[i].RelevanceScore < order[j].RelevanceScore
			}
			return lastUsed(order[i]).Before(lastUsed(order[j]))
		})
		drop := make(map[string]bool, len(kept)-maxSize)
		for _, e := range order[:len(kept)-maxSize] {
			drop[e.ID] = true
		}
		trimmed := kept[:0:0]
		for _, e := range kept {
			if !drop[e.ID] {
				trimmed = append(trimmed, e)
			}
		}
		kept = trimmed
	}

	removed := len(snap.Entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	snap.Entries = kept
	if err := s.commit(snap, true); err != nil {
		return 0, err
	}
	return removed, nil
}

func lastUsed(e model.Entry) time.Time {
	if e.LastUsedAt == nil {
		return time.Time{}
	}
	return *e.LastUsedAt
}

// Remove deletes entries by id (used by deduplication merges).
func (s *Store) Remove(ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lock, err := s.lockFile()
	if err != nil {
		return 0, err
	}
	defer unlockFile(lock)
	snap, err := s.load()
	if err != nil {
		return 0, err
	}
	kept := snap.Entries[:0:0]
	for _, e := range snap.Entries {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	removed := len(snap.Entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	snap.Entries = kept
	if err := s.commit(snap, true); err != nil {
		return 0, err
	}
	return removed, nil
}

// Reset wipes the store back to an empty snapshot, backing up first.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, err := s.lockFile()
	if err != nil {
		return err
	}
	defer unlockFile(lock)
	snap, err := s.load()
	if err != nil && !errors.Is(err, model.ErrStoreCorruption) {
		return err
	}
	if snap == nil {
		now := time.Now().UTC()
		snap = &Snapshot{CreatedAt: now, Entries: []model.Entry{}}
	} else {
		snap.Entries = []model.Entry{}
	}
	return s.commit(snap, true)
}

// Revision returns the current snapshot revision.
func (s *Store) Revision() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.load()
	if err != nil {
		return 0, err
	}
	return snap.Revision, nil
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }
