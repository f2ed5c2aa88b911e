package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// KeyStore is the persistence the keeper uses for anonymous users and
// for the auth token. The config file plays the role localStorage plays
// in the web client.
type KeyStore interface {
	AuthToken() string
	StoredAPIKey() string
	StoreAPIKey(key string) error
}

// KeyKeeper resolves the Gemini API key for requests. Logged-in users
// keep their key server-side; it is fetched once after a positive
// check and cached in memory. Anonymous users keep it in the local
// config file. The keeper implements CredentialSource for the clients
// and the controller.
type KeyKeeper struct {
	mu     sync.RWMutex
	store  KeyStore
	auth   *AuthClient
	cached string
}

// NewKeyKeeper wires the keeper to its persistence and the auth
// backend.
func NewKeyKeeper(store KeyStore, auth *AuthClient) *KeyKeeper {
	return &KeyKeeper{store: store, auth: auth}
}

// Credentials returns the current token and the best known API key.
func (k *KeyKeeper) Credentials() Credentials {
	k.mu.RLock()
	cached := k.cached
	k.mu.RUnlock()

	key := cached
	if key == "" {
		key = k.store.StoredAPIKey()
	}
	return Credentials{Token: k.store.AuthToken(), APIKey: key}
}

// Missing reports whether a key must be supplied before sending.
func (k *KeyKeeper) Missing() bool {
	return k.Credentials().APIKey == ""
}

// Refresh pulls the server-side key for a logged-in user. Anonymous
// users are a no-op.
func (k *KeyKeeper) Refresh(ctx context.Context) error {
	token := k.store.AuthToken()
	if token == "" {
		return nil
	}
	has, err := k.auth.CheckAPIKey(ctx, token)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}
	key, err := k.auth.GetAPIKey(ctx, token)
	if err != nil {
		return err
	}
	k.mu.Lock()
	k.cached = key
	k.mu.Unlock()
	return nil
}

// Save validates and stores a key: server-side when logged in, local
// config otherwise.
func (k *KeyKeeper) Save(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	token := k.store.AuthToken()
	if token != "" {
		if err := k.auth.SetAPIKey(ctx, token, key); err != nil {
			return err
		}
		k.mu.Lock()
		k.cached = key
		k.mu.Unlock()
		return nil
	}
	return k.store.StoreAPIKey(key)
}

// Clear drops the in-memory key and, for anonymous users, the locally
// persisted one. A server-side key is never deleted here; the user
// replaces it explicitly through settings.
func (k *KeyKeeper) Clear() error {
	k.mu.Lock()
	k.cached = ""
	k.mu.Unlock()
	if k.store.AuthToken() == "" {
		return k.store.StoreAPIKey("")
	}
	return nil
}

// ValidateKey checks the Gemini key shape before it is accepted, the
// same check the backend applies.
func ValidateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key is required")
	}
	if !strings.HasPrefix(key, "AIza") || len(key) < 30 {
		return fmt.Errorf("invalid Gemini API key format")
	}
	return nil
}
