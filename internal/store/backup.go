package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/AWolf81/memory-lane/internal/model"
)

func nowUTC() time.Time { return time.Now().UTC() }

const backupTimeFormat = "20060102_150405.000000000"

// Backup copies the current snapshot into the backups directory and
// returns the backup file path.
func (s *Store) Backup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, err := s.lockFile()
	if err != nil {
		return "", err
	}
	defer unlockFile(lock)
	return s.backupLocked()
}

func (s *Store) backupLocked() (string, error) {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil // nothing persisted yet
	}
	if err != nil {
		return "", fmt.Errorf("read snapshot for backup: %w", err)
	}
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	var snap Snapshot
	stamp := nowUTC().Format(backupTimeFormat)
	if err := json.Unmarshal(b, &snap); err == nil {
		// Use the snapshot's own revision so backups sort and dedupe naturally.
		stamp = fmt.Sprintf("%s.r%d", stamp, snap.Revision)
	}

	dst := filepath.Join(s.backupDir, fmt.Sprintf("memories.%s.json", stamp))
	if err := os.WriteFile(dst, b, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dst, nil
}

// Backups lists available backup files, newest first.
func (s *Store) Backups() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.backupDir, "memories.*.json"))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

// Restore replaces the live snapshot with the given backup file. The backup
// must parse as a valid snapshot; the current state is backed up first.
func (s *Store) Restore(backupPath string) error {
	b, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return fmt.Errorf("%w: backup %s is unreadable (%v)", model.ErrStoreCorruption, backupPath, err)
	}
	if snap.Entries == nil {
		snap.Entries = []model.Entry{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lock, err := s.lockFile()
	if err != nil {
		return err
	}
	defer unlockFile(lock)
	return s.commit(&snap, true)
}
