// Package history keeps a persistent ledger of pipeline runs so scores from
// successive shuffle/train iterations can be compared. It uses BoltDB as the
// underlying storage engine; each run is stored as a JSON record keyed by
// operation and timestamp.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const runsBucket = "runs"

// Record describes one completed train or eval run.
type Record struct {
	Op          string    `json:"op"` // "train" or "eval"
	Timestamp   time.Time `json:"timestamp"`
	Score       float64   `json:"score,omitempty"`
	NEstimators int       `json:"n_estimators,omitempty"`
	RandomState int64     `json:"random_state,omitempty"`
	IQRFactor   float64   `json:"iqr_factor"`
	NumReps     int       `json:"num_reps"`
	DataDir     string    `json:"data_dir"`
	Filename    string    `json:"filename"`
	ModelName   string    `json:"model_name,omitempty"`
}

// Ledger provides persistent storage for run records.
type Ledger struct {
	db *bbolt.DB
}

// Open opens (or creates) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(runsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs bucket: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Append stores a run record. Keys are "op_unixnano" so a cursor scan walks
// records grouped by operation in time order.
func (l *Ledger) Append(rec Record) error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal run record: %w", err)
		}
		key := fmt.Sprintf("%s_%d", rec.Op, rec.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// List returns every stored run record.
func (l *Ledger) List() ([]Record, error) {
	var records []Record
	err := l.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt run record %s: %w", k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}
