package history

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var bucketRoleHistory = []byte("role_history")

// BoltStore persists role history to a single BoltDB file under a
// history directory, one key per (hostname, roleID) pair, JSON-encoded
// values — the same bucket-per-entity, json.Marshal-into-Put shape the
// rest of this codebase's storage layer uses.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if necessary) a role-history database
// under historyDir.
func NewBoltStore(historyDir string) (*BoltStore, error) {
	dbPath := filepath.Join(historyDir, "role_history.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open role history database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRoleHistory)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create role history bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) SaveNode(n NodeInstance) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRoleHistory)
		data, err := json.Marshal(n)
		if err != nil {
			return err
		}
		return b.Put([]byte(key(n.Hostname, n.RoleID)), data)
	})
}

func (s *BoltStore) DeleteNode(hostname string, roleID int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRoleHistory)
		return b.Delete([]byte(key(hostname, roleID)))
	})
}

func (s *BoltStore) Load() ([]NodeInstance, error) {
	var out []NodeInstance
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRoleHistory)
		return b.ForEach(func(k, v []byte) error {
			var n NodeInstance
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			out = append(out, n)
			return nil
		})
	})
	return out, err
}
