// Package ledger records the HTML artifacts each build produced.
//
// Versioned artifacts accumulate in the output directory across releases.
// The ledger keeps one record per widget and release tag so that old
// versions can be listed and pruned without guessing from file names:
//
//  1. Records are keyed "widget/tag"; rebuilding a tag overwrites its record
//  2. Metadata is stored as JSON in BoltDB under the ledger directory
//  3. Pruning deletes versioned HTML files only, never the stable file
package ledger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.etcd.io/bbolt"
)

// bucketName is the BoltDB bucket name for build records
const bucketName = "builds"

// Ledger stores build records in BoltDB
type Ledger struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the ledger in dir
func Open(dir string) (*Ledger, error) {
	if dir == "" {
		return nil, errors.New("ledger directory not specified")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create ledger directory")
	}

	dbPath := filepath.Join(dir, "ledger.db")
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ledger database")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create ledger bucket")
	}

	return &Ledger{db: db}, nil
}

// Close closes the ledger database
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}

	return nil
}

func key(widget, tag string) []byte {
	return []byte(widget + "/" + tag)
}

// Record stores r, replacing any record for the same widget and tag
func (l *Ledger) Record(r Record) error {
	if r.Widget == "" || r.Tag == "" {
		return errors.New("record needs a widget and a tag")
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	err = l.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put(key(r.Widget, r.Tag), data)
	})
	if err != nil {
		return errors.Wrap(err, "failed to store build record")
	}

	return nil
}

// Get returns the record for widget and tag, or nil if there is none
func (l *Ledger) Get(widget, tag string) (*Record, error) {
	var rec *Record

	err := l.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get(key(widget, tag))
		if data == nil {
			return nil
		}

		rec = &Record{}
		return json.Unmarshal(data, rec)
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// List returns the records for widget, or for every widget when widget is
// empty, ordered by widget then newest first
func (l *Ledger) List(widget string) ([]Record, error) {
	var records []Record

	err := l.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketName)).Cursor()

		var prefix []byte
		if widget != "" {
			prefix = []byte(widget + "/")
		}

		var k, v []byte
		if prefix == nil {
			k, v = c.First()
		} else {
			k, v = c.Seek(prefix)
		}

		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return errors.Wrapf(err, "corrupt record %s", k)
			}

			records = append(records, r)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Widget != records[j].Widget {
			return records[i].Widget < records[j].Widget
		}

		return records[i].BuiltAt.After(records[j].BuiltAt)
	})

	return records, nil
}

// Delete removes the record for widget and tag
func (l *Ledger) Delete(widget, tag string) error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete(key(widget, tag))
	})
}

// Prune keeps the keep most recent records of every widget and deletes the
// versioned HTML file and record of the rest. Stable files are never touched.
func (l *Ledger) Prune(fs afero.Fs, keep int) ([]Record, error) {
	if keep < 1 {
		return nil, errors.Errorf("keep must be at least 1, got %d", keep)
	}

	records, err := l.List("")
	if err != nil {
		return nil, err
	}

	var pruned []Record
	seen := make(map[string]int)

	for _, r := range records {
		seen[r.Widget]++
		if seen[r.Widget] <= keep {
			continue
		}

		if err := fs.Remove(r.VersionedFile); err != nil && !os.IsNotExist(err) {
			return pruned, errors.Wrapf(err, "failed to remove %s", r.VersionedFile)
		}

		if err := l.Delete(r.Widget, r.Tag); err != nil {
			return pruned, errors.Wrapf(err, "failed to delete record %s/%s", r.Widget, r.Tag)
		}

		pruned = append(pruned, r)
	}

	return pruned, nil
}

// Purge deletes the versioned HTML file of every record and empties the
// ledger. Stable files are never touched.
func (l *Ledger) Purge(fs afero.Fs) ([]Record, error) {
	records, err := l.List("")
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if err := fs.Remove(r.VersionedFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to remove %s", r.VersionedFile)
		}
	}

	if err := l.Clear(); err != nil {
		return nil, errors.Wrap(err, "failed to clear ledger")
	}

	return records, nil
}

// Clear removes all records
func (l *Ledger) Clear() error {
	err := l.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket([]byte(bucketName))
	})
	if err != nil {
		return err
	}

	return l.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Stats returns the number of records
func (l *Ledger) Stats() (int, error) {
	var count int

	err := l.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket([]byte(bucketName)).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}
