package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const dbKeyAccount = "db_key"

// ErrNoDBKey is returned when no local database key is stored.
var ErrNoDBKey = errors.New("no database key")

// LoadDBKey reads the key of the encrypted local cache. It lives next to
// the session token under the same keyring service.
func (s *Session) LoadDBKey() (string, error) {
	key, err := keyringGet(s.service, dbKeyAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoDBKey
		}
		return "", fmt.Errorf("failed to read keyring item service=%q account=%q: %w", s.service, dbKeyAccount, err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrNoDBKey
	}
	return key, nil
}

func (s *Session) SaveDBKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("database key cannot be empty")
	}
	if err := keyringSet(s.service, dbKeyAccount, key); err != nil {
		return fmt.Errorf("failed to store keyring item service=%q account=%q: %w", s.service, dbKeyAccount, err)
	}
	return nil
}
