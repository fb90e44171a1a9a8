package store

import (
	"encoding/json"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"murmur/internal/domain"
)

var (
	bucketSenderKeys = []byte("senderkeys")
	bucketGroups     = []byte("groups")
	bucketContacts   = []byte("contacts")
)

// BoltStore keeps sender-key ratchet state, group membership and contacts
// in a single bbolt file, one bucket per record kind, JSON values.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the state database under dir.
func OpenBolt(dir string) (*BoltStore, error) {
	db, err := bolt.Open(filepath.Join(dir, "state.db"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketSenderKeys, bucketGroups, bucketContacts} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// senderKeyID keys a ratchet state by group and sender.
func senderKeyID(groupID string, sender domain.X25519Public) []byte {
	return []byte(groupID + "|" + sender.Hex())
}

// SaveSenderKey writes the ratchet state for (state.GroupID, state.SenderKey).
func (s *BoltStore) SaveSenderKey(state domain.SenderKeyState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSenderKeys).Put(senderKeyID(state.GroupID, state.SenderKey), data)
	})
}

// LoadSenderKey retrieves the ratchet state for (groupID, sender).
func (s *BoltStore) LoadSenderKey(groupID string, sender domain.X25519Public) (domain.SenderKeyState, bool, error) {
	var st domain.SenderKeyState
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSenderKeys).Get(senderKeyID(groupID, sender))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &st)
	})
	return st, ok, err
}

// DeleteSenderKey removes the ratchet state for (groupID, sender).
func (s *BoltStore) DeleteSenderKey(groupID string, sender domain.X25519Public) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSenderKeys).Delete(senderKeyID(groupID, sender))
	})
}

// SaveGroup writes a group membership record.
func (s *BoltStore) SaveGroup(g domain.Group) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGroups).Put([]byte(g.ID), data)
	})
}

// LoadGroup retrieves a group by ID.
func (s *BoltStore) LoadGroup(id string) (domain.Group, bool, error) {
	var g domain.Group
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketGroups).Get([]byte(id))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &g)
	})
	return g, ok, err
}

// ListGroups returns every stored group.
func (s *BoltStore) ListGroups() ([]domain.Group, error) {
	var out []domain.Group
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGroups).ForEach(func(_, v []byte) error {
			var g domain.Group
			if err := json.Unmarshal(v, &g); err != nil {
				return err
			}
			out = append(out, g)
			return nil
		})
	})
	return out, err
}

// SaveContact writes a contact keyed by name.
func (s *BoltStore) SaveContact(c domain.Contact) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketContacts).Put([]byte(c.Name), data)
	})
}

// LoadContact retrieves a contact by name.
func (s *BoltStore) LoadContact(name string) (domain.Contact, bool, error) {
	var c domain.Contact
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketContacts).Get([]byte(name))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &c)
	})
	return c, ok, err
}

// ListContacts returns every stored contact.
func (s *BoltStore) ListContacts() ([]domain.Contact, error) {
	var out []domain.Contact
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketContacts).ForEach(func(_, v []byte) error {
			var c domain.Contact
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	})
	return out, err
}

// Compile-time assertions for the store interfaces BoltStore backs.
var (
	_ domain.SenderKeyStore = (*BoltStore)(nil)
	_ domain.GroupStore     = (*BoltStore)(nil)
	_ domain.ContactStore   = (*BoltStore)(nil)
)
