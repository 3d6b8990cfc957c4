package store

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/brunoscheufler/inkwell/constants"
	"github.com/brunoscheufler/inkwell/kv"
	"golang.org/x/crypto/bcrypt"
)

// UserStore owns the registered accounts and the single active session.
// Accounts are persisted under the "users" key; the session is persisted
// separately under "currentUser" so it survives restarts.
type UserStore struct {
	storage kv.Storage
	config  storeConfig

	mu      sync.RWMutex
	records []accountRecord
	current *Account
	loading bool
	lastErr error

	state broadcaster[UserState]
}

func NewUserStore(storage kv.Storage, options ...Option) *UserStore {
	return &UserStore{
		storage: storage,
		config:  newStoreConfig(options),
	}
}

// Load restores accounts and the session from durable storage. Corrupt
// values are discarded and the store starts empty.
func (s *UserStore) Load(ctx context.Context) error {
	var records []accountRecord
	if _, err := loadJSON(ctx, s.storage, constants.UsersKey, &records, s.config.logger); err != nil {
		return err
	}

	var current *Account
	var saved Account
	ok, err := loadJSON(ctx, s.storage, constants.CurrentUserKey, &saved, s.config.logger)
	if err != nil {
		return err
	}
	if ok && saved.ID != "" {
		current = &saved
	}

	s.mu.Lock()
	s.records = records
	s.current = current
	s.mu.Unlock()

	s.config.logger.Debug("Loaded accounts", "count", len(records), "signedIn", current != nil)
	s.publish()
	return nil
}

// Register creates an account and signs it in.
func (s *UserStore) Register(ctx context.Context, name, email, secret string) (Account, error) {
	var account Account
	err := s.attempt("Register", true, func() error {
		hash, err := bcrypt.GenerateFromPassword(credentialDigest(secret), s.config.bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash credential: %w", err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.indexByEmail(email) >= 0 {
			return ErrDuplicateAccount
		}

		record := accountRecord{
			Account: Account{
				ID:        s.config.newID(),
				Email:     email,
				Name:      name,
				CreatedAt: s.config.now(),
			},
			PasswordHash: string(hash),
		}

		// users is written first so a session never points at a missing
		// account; a failed session write puts the previous users back.
		records := append(slices.Clone(s.records), record)
		if err := saveJSON(ctx, s.storage, constants.UsersKey, records); err != nil {
			return err
		}
		if err := s.setSessionLocked(ctx, record.Account); err != nil {
			if restoreErr := saveJSON(ctx, s.storage, constants.UsersKey, s.records); restoreErr != nil {
				s.config.logger.Error("Failed to roll back registration", "email", email, "error", restoreErr)
			}
			return err
		}
		s.records = records

		account = record.Account.clone()
		s.config.logger.Info("Registered account", "id", account.ID, "email", account.Email)
		return nil
	})
	return account, err
}

// Login signs in the account with exactly this email and secret.
func (s *UserStore) Login(ctx context.Context, email, secret string) (Account, error) {
	var account Account
	err := s.attempt("Login", true, func() error {
		s.mu.RLock()
		idx := s.indexByEmail(email)
		var record accountRecord
		if idx >= 0 {
			record = s.records[idx]
		}
		s.mu.RUnlock()

		if idx < 0 {
			return ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), credentialDigest(secret)); err != nil {
			return ErrInvalidCredentials
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.setSessionLocked(ctx, record.Account); err != nil {
			return err
		}

		account = record.Account.clone()
		s.config.logger.Info("Signed in", "id", account.ID)
		return nil
	})
	return account, err
}

// Logout clears the session. Calling it without a session is a no-op.
func (s *UserStore) Logout(ctx context.Context) error {
	return s.attempt("Logout", false, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if err := s.storage.Delete(ctx, constants.CurrentUserKey); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		if s.current != nil {
			s.config.logger.Info("Signed out", "id", s.current.ID)
		}
		s.current = nil
		return nil
	})
}

// UpdateUser merges update into the signed-in account and its stored
// record. The stored credential is never touched.
func (s *UserStore) UpdateUser(ctx context.Context, update AccountUpdate) (Account, error) {
	var account Account
	err := s.attempt("UpdateUser", false, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.current == nil {
			return ErrNoSession
		}

		updated := s.current.clone()
		update.apply(&updated)

		records := slices.Clone(s.records)
		for i := range records {
			if records[i].ID == updated.ID {
				merged := records[i].Account.clone()
				update.apply(&merged)
				records[i].Account = merged
			}
		}

		if err := saveJSON(ctx, s.storage, constants.UsersKey, records); err != nil {
			return err
		}
		s.records = records

		if err := s.setSessionLocked(ctx, updated); err != nil {
			return err
		}

		account = updated.clone()
		return nil
	})
	return account, err
}

// SetPremium switches the premium flag of the signed-in account.
func (s *UserStore) SetPremium(ctx context.Context, premium bool) (Account, error) {
	return s.UpdateUser(ctx, AccountUpdate{Premium: &premium})
}

// CurrentAccount returns a copy of the signed-in account.
func (s *UserStore) CurrentAccount() (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Account{}, false
	}
	return s.current.clone(), true
}

// LookupAccount returns the current profile of any account.
func (s *UserStore) LookupAccount(id string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.ID == id {
			return record.Account.clone(), true
		}
	}
	return Account{}, false
}

// Accounts lists every registered account in registration order.
func (s *UserStore) Accounts() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]Account, 0, len(s.records))
	for _, record := range s.records {
		accounts = append(accounts, record.Account.clone())
	}
	return accounts
}

func (s *UserStore) State() UserState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
func (s *UserStore) Subscribe(fn func(UserState)) func() {
	return s.state.subscribe(fn)
}

// attempt runs op as a user-visible attempt: LastError is cleared before
// and set after, and Loading is raised for the duration when loading is set.
func (s *UserStore) attempt(name string, loading bool, op func() error) (err error) {
	start := time.Now()
	defer func() { s.config.track("users", name, start, err) }()

	s.mu.Lock()
	hadError := s.lastErr != nil
	s.lastErr = nil
	s.loading = loading
	s.mu.Unlock()
	if loading || hadError {
		s.publish()
	}

	err = op()

	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()

	if err != nil && !errors.Is(err, ErrInvalidCredentials) && !errors.Is(err, ErrDuplicateAccount) && !errors.Is(err, ErrNoSession) {
		s.config.logger.Error("Account operation failed", "operation", name, "error", err)
	}

	s.publish()
	return err
}

func (s *UserStore) setSessionLocked(ctx context.Context, account Account) error {
	if err := saveJSON(ctx, s.storage, constants.CurrentUserKey, account); err != nil {
		return err
	}
	current := account.clone()
	s.current = &current
	return nil
}

// credentialDigest maps a secret of any length to a fixed 44-byte input.
// bcrypt rejects inputs over 72 bytes and ignores everything past them.
func credentialDigest(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	digest := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(digest, sum[:])
	return digest
}

func (s *UserStore) indexByEmail(email string) int {
	return slices.IndexFunc(s.records, func(r accountRecord) bool {
		return r.Email == email
	})
}

func (s *UserStore) stateLocked() UserState {
	state := UserState{Loading: s.loading, LastError: s.lastErr}
	if s.current != nil {
		current := s.current.clone()
		state.Current = &current
	}
	return state
}

func (s *UserStore) publish() {
	s.state.publish(s.State())
}
