// Package journal keeps an append-only history of completed runs. It stores
// run summaries only, never assets, so no result data survives across runs.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/agentgap/agentgap/types"
)

var bucketRuns = []byte("runs")

// Entry is one completed run.
type Entry struct {
	Sequence   uint64              `json:"sequence"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Platform   string              `json:"platform"`
	Cloud      types.CloudProvider `json:"cloud"`
	Summary    types.RunSummary    `json:"summary"`
}

// Journal is the on-disk run history.
type Journal struct {
	db *bbolt.DB
}

// Open creates or opens the journal under dir.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, "agentgap.db"), 0o600, &bbolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Close releases the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one entry. The sequence number is assigned here.
func (j *Journal) Record(entry Entry) (uint64, error) {
	var seq uint64
	err := j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRuns)

		var err error
		seq, err = bucket.NextSequence()
		if err != nil {
			return err
		}
		entry.Sequence = seq

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bucket.Put(key, data)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return seq, nil
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(n int) ([]Entry, error) {
	var entries []Entry
	err := j.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketRuns).Cursor()
		for k, v := cursor.Last(); k != nil && len(entries) < n; k, v = cursor.Prev() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("corrupt journal entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
