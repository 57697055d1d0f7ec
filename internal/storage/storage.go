// Package storage persists prediction history for the dashboard. It uses
// BoltDB as the storage engine to archive individual prediction records and
// batch run summaries, with time-ordered keys for efficient recent-first
// queries.
package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"exoscan/internal/ensemble"
)

const (
	predictionsBucket = "predictions"
	batchesBucket     = "batches"
)

// PredictionRecord is one archived prediction with the inputs that produced
// it.
type PredictionRecord struct {
	Ts          time.Time            `json:"ts"`
	Source      string               `json:"source"` // "api", "batch", "cli"
	Observation ensemble.Observation `json:"observation"`
	Result      ensemble.Prediction  `json:"result"`
}

// BatchRecord summarizes one batch run.
type BatchRecord struct {
	Ts       time.Time             `json:"ts"`
	Source   string                `json:"source"`
	Duration time.Duration         `json:"duration"`
	Summary  ensemble.BatchSummary `json:"summary"`
}

// Store provides persistent archival of prediction activity.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the archive at dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "exoscan-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(batchesBucket)); err != nil {
			return fmt.Errorf("create batches bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StorePrediction archives one prediction record.
func (s *Store) StorePrediction(rec PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction: %w", err)
		}
		return b.Put(tsKey(rec.Ts), data)
	})
}

// StoreBatch archives a batch run summary.
func (s *Store) StoreBatch(rec BatchRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(batchesBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal batch record: %w", err)
		}
		return b.Put(tsKey(rec.Ts), data)
	})
}

// RecentPredictions returns up to limit archived predictions, newest first.
func (s *Store) RecentPredictions(limit int) ([]PredictionRecord, error) {
	var out []PredictionRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // skip unreadable rows rather than failing the query
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// PredictionsSince returns records at or after the cutoff, oldest first.
func (s *Store) PredictionsSince(cutoff time.Time) ([]PredictionRecord, error) {
	var out []PredictionRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		for k, v := c.Seek(tsKey(cutoff)); k != nil; k, v = c.Next() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// RecentBatches returns up to limit batch summaries, newest first.
func (s *Store) RecentBatches(limit int) ([]BatchRecord, error) {
	var out []BatchRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(batchesBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var rec BatchRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// tsKey builds a lexicographically sortable key from a timestamp.
func tsKey(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%020d", ts.UnixNano()))
}
