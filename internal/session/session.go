package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	defaultSecretService = "rentdesk"
	defaultSecretUser    = "jwt_token"

	tokenEnvVar = "RENTDESK_TOKEN"
)

var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
)

var (
	// ErrNoToken is returned when no session token is stored.
	ErrNoToken = errors.New("no session token")
	// ErrExpired is returned when the stored token's exp claim has passed.
	// The token is cleared before the error is returned.
	ErrExpired = errors.New("session token expired")
)

// Session owns the session token. Every read, write and delete of the token
// goes through it; nothing else touches the keyring item.
//
// Order of precedence for reads:
// 1) RENTDESK_TOKEN environment variable, until ClearToken is called.
// 2) System keyring item referenced by service/account.
type Session struct {
	service string
	account string

	mu         sync.Mutex
	cached     string
	loaded     bool
	envRevoked bool
}

// New returns a Session bound to the given keyring item. Empty values fall
// back to RENTDESK_KEYCHAIN_SERVICE / RENTDESK_KEYCHAIN_ACCOUNT and then to
// the built-in defaults.
func New(service, account string) *Session {
	if strings.TrimSpace(service) == "" {
		service = envOrDefault("RENTDESK_KEYCHAIN_SERVICE", defaultSecretService)
	}
	if strings.TrimSpace(account) == "" {
		account = envOrDefault("RENTDESK_KEYCHAIN_ACCOUNT", defaultSecretUser)
	}
	return &Session{service: service, account: account}
}

// Token returns the stored token or ErrNoToken.
func (s *Session) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.envRevoked {
		if token := strings.TrimSpace(os.Getenv(tokenEnvVar)); token != "" {
			return token, nil
		}
	}
	if s.loaded {
		if s.cached == "" {
			return "", ErrNoToken
		}
		return s.cached, nil
	}

	secret, err := keyringGet(s.service, s.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			s.loaded = true
			s.cached = ""
			return "", ErrNoToken
		}
		return "", fmt.Errorf(
			"failed to read keyring item service=%q account=%q: %w",
			s.service,
			s.account,
			err,
		)
	}

	s.loaded = true
	s.cached = strings.TrimSpace(secret)
	if s.cached == "" {
		return "", ErrNoToken
	}
	return s.cached, nil
}

// HasToken reports whether a token is available. Keyring read failures
// count as "no token".
func (s *Session) HasToken() bool {
	token, err := s.Token()
	return err == nil && token != ""
}

// SetToken stores the token in the system credential store.
func (s *Session) SetToken(token string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return errors.New("session token cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := keyringSet(s.service, s.account, trimmed); err != nil {
		return fmt.Errorf(
			"failed to store keyring item service=%q account=%q: %w",
			s.service,
			s.account,
			err,
		)
	}
	s.cached = trimmed
	s.loaded = true
	s.envRevoked = false
	return nil
}

// ClearToken removes the token. Clearing an absent token is not an error.
func (s *Session) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = ""
	s.loaded = true
	s.envRevoked = true

	if err := keyringDelete(s.service, s.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf(
			"failed to delete keyring item service=%q account=%q: %w",
			s.service,
			s.account,
			err,
		)
	}
	return nil
}

// Active returns a usable token. An expired token is cleared and reported
// as ErrExpired; a missing one as ErrNoToken.
func (s *Session) Active() (string, error) {
	token, err := s.Token()
	if err != nil {
		return "", err
	}
	if Expired(token, now()) {
		if err := s.ClearToken(); err != nil {
			return "", err
		}
		return "", ErrExpired
	}
	return token, nil
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
