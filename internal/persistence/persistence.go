package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvfand/nvfand/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketProfiles = "profiles"
)

// ProfileState is the persisted snapshot of one control loop, used to seed
// the hysteresis baseline across daemon restarts. A single record per
// profile, overwritten in place.
type ProfileState struct {
	LastAppliedSpeed int       `json:"lastAppliedSpeed"`
	LastTemperature  int       `json:"lastTemperature"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Persistence interface {
	Init() error

	LoadProfileState(profileId string) (*ProfileState, error)
	SaveProfileState(profileId string, state ProfileState) error
	DeleteProfileState(profileId string) error
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0o755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (p persistence) SaveProfileState(profileId string, state ProfileState) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketProfiles))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		return b.Put([]byte(profileId), data)
	})
}

func (p persistence) LoadProfileState(profileId string) (*ProfileState, error) {
	db, err := p.openPersistence()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var state ProfileState
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketProfiles))
		if b == nil {
			return os.ErrNotExist
		}
		data := b.Get([]byte(profileId))
		if data == nil {
			return os.ErrNotExist
		}
		return json.Unmarshal(data, &state)
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (p persistence) DeleteProfileState(profileId string) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketProfiles))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(profileId))
	})
}
