package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads a single read-only profile from IMGURDL_CLIENT_ID
// and IMGURDL_CLIENT_SECRET
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(profile *Profile) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment profile under any requested name
func (e *EnvironmentStore) Retrieve(name string) (*Profile, error) {
	clientID := os.Getenv("IMGURDL_CLIENT_ID")
	clientSecret := os.Getenv("IMGURDL_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = "env"
	}
	return &Profile{
		Name:         name,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		LastModified: time.Time{},
	}, nil
}

// List returns the environment profile if it is set
func (e *EnvironmentStore) List() ([]*Profile, error) {
	profile, err := e.Retrieve("")
	if err != nil {
		return []*Profile{}, nil
	}
	return []*Profile{profile}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("IMGURDL_CLIENT_ID") != "" && os.Getenv("IMGURDL_CLIENT_SECRET") != ""
}
