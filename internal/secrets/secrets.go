// Package secrets adapts the OS credential store (macOS Keychain,
// Secret Service, Windows Credential Manager) to the one thing this
// system needs from it: load, save, and delete a provider's API key.
package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/ownai/ownai-core/internal/errs"
)

// serviceName scopes every secret this process stores under one keyring
// service, the same way the account name scopes it to one provider tag.
const serviceName = "ownai"

// ErrNotSet is returned by Load when no key has been stored for a
// provider tag yet.
var ErrNotSet = errors.New("secret not set")

// Store is a thin wrapper over the OS keyring scoped to provider API keys.
type Store struct{}

// New returns a Store backed by the OS keyring.
func New() *Store {
	return &Store{}
}

// Load returns the stored API key for a provider tag (e.g. "anthropic",
// "openai"). Returns ErrNotSet, wrapped as a ConfigKind error, if nothing
// has been saved yet.
func (s *Store) Load(providerTag string) (string, error) {
	value, err := keyring.Get(serviceName, providerTag)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", errs.Wrap(errs.ConfigKind, "no API key stored for provider "+providerTag, ErrNotSet)
	}
	if err != nil {
		return "", errs.Wrap(errs.ConfigKind, "load API key for provider "+providerTag, err)
	}
	return value, nil
}

// Save stores or overwrites the API key for a provider tag.
func (s *Store) Save(providerTag, apiKey string) error {
	if err := keyring.Set(serviceName, providerTag, apiKey); err != nil {
		return errs.Wrap(errs.ConfigKind, "save API key for provider "+providerTag, err)
	}
	return nil
}

// Delete removes the stored API key for a provider tag. Deleting a key
// that was never set is not an error.
func (s *Store) Delete(providerTag string) error {
	err := keyring.Delete(serviceName, providerTag)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return errs.Wrap(errs.ConfigKind, "delete API key for provider "+providerTag, err)
	}
	return nil
}
