// Package storage records dashboard history to disk. It uses BoltDB as the
// storage engine and keeps one bucket per record type, keyed by
// "<kind>_<unixnano>" so that time-range queries are a single cursor scan.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"market-dashboard/internal/engine"

	"go.etcd.io/bbolt"
)

// FileName is the database file created under the data path.
const FileName = "dashboard-history.db"

const (
	summariesBucket  = "summaries"  // market summaries, key prefix "market"
	valuationsBucket = "valuations" // portfolio valuations, key prefix "portfolio"
)

// SummaryRecord is a market summary at a point in time.
type SummaryRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Summary   engine.Summary `json:"summary"`
}

// ValuationRecord is a portfolio valuation at a point in time.
type ValuationRecord struct {
	Timestamp time.Time        `json:"timestamp"`
	Valuation engine.Valuation `json:"valuation"`
}

// Store provides persistent storage for dashboard history using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the history database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, FileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(summariesBucket)); err != nil {
			return fmt.Errorf("create summaries bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(valuationsBucket)); err != nil {
			return fmt.Errorf("create valuations bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is harmless.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreSummary records a market summary.
func (s *Store) StoreSummary(at time.Time, summary engine.Summary) error {
	return s.put(summariesBucket, "market", at, SummaryRecord{Timestamp: at, Summary: summary})
}

// StoreValuation records a portfolio valuation.
func (s *Store) StoreValuation(at time.Time, val engine.Valuation) error {
	return s.put(valuationsBucket, "portfolio", at, ValuationRecord{Timestamp: at, Valuation: val})
}

// GetSummaries returns summaries recorded in [start, end], oldest first.
func (s *Store) GetSummaries(start, end time.Time) ([]SummaryRecord, error) {
	var out []SummaryRecord
	err := s.scan(summariesBucket, "market", start, end, func(data []byte) error {
		var rec SummaryRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// GetValuations returns valuations recorded in [start, end], oldest first.
func (s *Store) GetValuations(start, end time.Time) ([]ValuationRecord, error) {
	var out []ValuationRecord
	err := s.scan(valuationsBucket, "portfolio", start, end, func(data []byte) error {
		var rec ValuationRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

func (s *Store) put(bucket, kind string, at time.Time, record any) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create %s bucket: %w", bucket, err)
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal %s record: %w", kind, err)
		}

		return b.Put(recordKey(kind, at), data)
	})
}

// scan walks the keys of one kind between start and end inclusive.
// Malformed records are skipped.
func (s *Store) scan(bucket, kind string, start, end time.Time, fn func([]byte) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()

		prefix := []byte(kind + "_")
		endKey := recordKey(kind, end)

		for k, v := c.Seek(recordKey(kind, start)); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			if !bytes.HasPrefix(k, prefix) {
				continue
			}
			_ = fn(v)
		}
		return nil
	})
}

// recordKey zero-pads the timestamp so that byte order matches time order.
func recordKey(kind string, at time.Time) []byte {
	return []byte(fmt.Sprintf("%s_%020d", kind, at.UnixNano()))
}
