package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// This is the right backend for CI runs and containers.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(email string) (*Account, error) {
	envEmail := os.Getenv("LISCRAPER_EMAIL")
	envPassword := os.Getenv("LISCRAPER_PASSWORD")

	if envEmail == "" || envPassword == "" {
		return nil, ErrCredentialsNotFound
	}

	// A specific account was requested and the environment holds a
	// different one.
	if email != "" && email != envEmail {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Email:        envEmail,
		Password:     envPassword,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(email string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(email string) bool {
	account, err := e.Retrieve(email)
	return err == nil && account != nil
}
