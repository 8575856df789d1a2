// Package creds reads portal login credentials from a local JSON file,
// keyed by portal:
//
//	{"dasspiel": {"username": "...", "password": "..."},
//	 "postsv":   {"username": "...", "password": "..."}}
//
// Missing file or missing entry is not an error; the adapters and executors
// treat absent credentials as an expected soft condition.
package creds

import (
	"encoding/json"
	"os"

	"github.com/example/court-scheduler/internal/booking"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// Store is a read-only view of the credentials file. Each lookup re-reads the
// file so edits take effect without a restart.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

var fileKeys = map[booking.VenueKind]string{
	booking.VenueArsenal: "dasspiel",
	booking.VenuePostSV:  "postsv",
}

// Get returns the credentials for a venue. ok is false when the file, the
// entry, or either field is missing.
func (s *Store) Get(venue booking.VenueKind) (Credentials, bool) {
	key, found := fileKeys[venue]
	if !found {
		return Credentials{}, false
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		return Credentials{}, false
	}
	var all map[string]Credentials
	if err := json.Unmarshal(b, &all); err != nil {
		return Credentials{}, false
	}
	c, found := all[key]
	if !found || c.Empty() {
		return Credentials{}, false
	}
	return c, true
}
