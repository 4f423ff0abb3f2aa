package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zalando/go-keyring"
)

func stubKeyring(t *testing.T) map[string]string {
	t.Helper()

	origGet, origSet, origDelete := keyringGet, keyringSet, keyringDelete
	t.Cleanup(func() {
		keyringGet, keyringSet, keyringDelete = origGet, origSet, origDelete
	})

	store := map[string]string{}
	keyringGet = func(service, user string) (string, error) {
		v, ok := store[service+"/"+user]
		if !ok {
			return "", keyring.ErrNotFound
		}
		return v, nil
	}
	keyringSet = func(service, user, secret string) error {
		store[service+"/"+user] = secret
		return nil
	}
	keyringDelete = func(service, user string) error {
		if _, ok := store[service+"/"+user]; !ok {
			return keyring.ErrNotFound
		}
		delete(store, service+"/"+user)
		return nil
	}
	return store
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := Claims{
		UserID:   7,
		Username: "simple",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestTokenUsesEnvVarFirst(t *testing.T) {
	t.Setenv("RENTDESK_TOKEN", "  env-token  ")
	stubKeyring(t)

	called := false
	keyringGet = func(service, user string) (string, error) {
		called = true
		return "keyring-token", nil
	}

	got, err := New("svc", "acct").Token()
	if err != nil {
		t.Fatalf("Token() unexpected error: %v", err)
	}
	if got != "env-token" {
		t.Fatalf("Token() = %q, want %q", got, "env-token")
	}
	if called {
		t.Fatal("Token() called keyringGet even though RENTDESK_TOKEN was set")
	}
}

func TestTokenFallsBackToKeyring(t *testing.T) {
	t.Setenv("RENTDESK_TOKEN", "")
	t.Setenv("RENTDESK_KEYCHAIN_SERVICE", "svc")
	t.Setenv("RENTDESK_KEYCHAIN_ACCOUNT", "acct")
	store := stubKeyring(t)
	store["svc/acct"] = "  keyring-token  "

	got, err := New("", "").Token()
	if err != nil {
		t.Fatalf("Token() unexpected error: %v", err)
	}
	if got != "keyring-token" {
		t.Fatalf("Token() = %q, want %q", got, "keyring-token")
	}
}

func TestTokenMissingReturnsErrNoToken(t *testing.T) {
	t.Setenv("RENTDESK_TOKEN", "")
	stubKeyring(t)

	s := New("svc", "acct")
	if _, err := s.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token() error = %v, want ErrNoToken", err)
	}
	if s.HasToken() {
		t.Fatal("HasToken() = true, want false")
	}
}

func TestTokenReturnsErrorWhenKeyringFails(t *testing.T) {
	t.Setenv("RENTDESK_TOKEN", "")
	stubKeyring(t)
	keyringGet = func(service, user string) (string, error) {
		return "", errors.New("boom")
	}

	_, err := New("svc", "acct").Token()
	if err == nil {
		t.Fatal("Token() error = nil, want non-nil")
	}
	if !strings.Contains(err.Error(), "failed to read keyring item") {
		t.Fatalf("Token() error = %q, expected keyring read context", err.Error())
	}
}

func TestSetTokenStoresTrimmedToken(t *testing.T) {
	t.Setenv("RENTDESK_TOKEN", "")
	store := stubKeyring(t)

	s := New("svc", "acct")
	if err := s.SetToken("  my-token  "); err != nil {
		t.Fatalf("SetToken() unexpected error: %v", err)
	}
	if store["svc/acct"] != "my-token" {
		t.Fatalf("stored secret = %q, want %q", store["svc/acct"], "my-token")
	}
	got, err := s.Token()
	if err != nil || got != "my-token" {
		t.Fatalf("Token() = (%q, %v), want (%q, nil)", got, err, "my-token")
	}
}

func TestSetTokenRejectsEmptyToken(t *testing.T) {
	store := stubKeyring(t)

	err := New("svc", "acct").SetToken("   ")
	if err == nil {
		t.Fatal("SetToken() error = nil, want non-nil")
	}
	if len(store) != 0 {
		t.Fatal("SetToken() wrote to the keyring for an empty token")
	}
}

func TestClearTokenRemovesStoredToken(t *testing.T) {
	t.Setenv("RENTDESK_TOKEN", "")
	store := stubKeyring(t)
	store["svc/acct"] = "token"

	s := New("svc", "acct")
	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken() unexpected error: %v", err)
	}
	if _, ok := store["svc/acct"]; ok {
		t.Fatal("ClearToken() left the keyring item in place")
	}
	if _, err := s.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token() after clear error = %v, want ErrNoToken", err)
	}
}

func TestClearTokenMissingIsNotAnError(t *testing.T) {
	stubKeyring(t)

	if err := New("svc", "acct").ClearToken(); err != nil {
		t.Fatalf("ClearToken() unexpected error: %v", err)
	}
}

func TestClearTokenRevokesEnvToken(t *testing.T) {
	t.Setenv("RENTDESK_TOKEN", "env-token")
	stubKeyring(t)

	s := New("svc", "acct")
	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken() unexpected error: %v", err)
	}
	if _, err := s.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token() error = %v, want ErrNoToken", err)
	}
}

func TestActiveClearsExpiredToken(t *testing.T) {
	t.Setenv("RENTDESK_TOKEN", "")
	store := stubKeyring(t)
	store["svc/acct"] = signedToken(t, time.Now().Add(-time.Minute))

	s := New("svc", "acct")
	if _, err := s.Active(); !errors.Is(err, ErrExpired) {
		t.Fatalf("Active() error = %v, want ErrExpired", err)
	}
	if _, ok := store["svc/acct"]; ok {
		t.Fatal("Active() did not clear the expired token")
	}
}

func TestActiveKeepsLiveToken(t *testing.T) {
	t.Setenv("RENTDESK_TOKEN", "")
	store := stubKeyring(t)
	live := signedToken(t, time.Now().Add(time.Hour))
	store["svc/acct"] = live

	got, err := New("svc", "acct").Active()
	if err != nil {
		t.Fatalf("Active() unexpected error: %v", err)
	}
	if got != live {
		t.Fatal("Active() returned a different token")
	}
}

func TestInspectOpaqueToken(t *testing.T) {
	if _, ok := Inspect("not-a-jwt"); ok {
		t.Fatal("Inspect() ok = true for opaque token")
	}
	if Expired("not-a-jwt", time.Now()) {
		t.Fatal("Expired() = true for opaque token")
	}
}

func TestInspectReadsUsername(t *testing.T) {
	claims, ok := Inspect(signedToken(t, time.Now().Add(time.Hour)))
	if !ok {
		t.Fatal("Inspect() ok = false")
	}
	if claims.Username != "simple" || claims.UserID != 7 {
		t.Fatalf("claims = %+v, want username simple, user_id 7", claims)
	}
}

func TestDBKeyRoundTrip(t *testing.T) {
	store := stubKeyring(t)
	s := New("svc", "acct")

	if _, err := s.LoadDBKey(); !errors.Is(err, ErrNoDBKey) {
		t.Fatalf("LoadDBKey() error = %v, want ErrNoDBKey", err)
	}
	if err := s.SaveDBKey("k3y"); err != nil {
		t.Fatalf("SaveDBKey() unexpected error: %v", err)
	}
	if store["svc/db_key"] != "k3y" {
		t.Fatalf("keyring = %v", store)
	}
	got, err := s.LoadDBKey()
	if err != nil || got != "k3y" {
		t.Fatalf("LoadDBKey() = (%q, %v)", got, err)
	}
	if err := s.SaveDBKey(" "); err == nil {
		t.Fatal("SaveDBKey() accepted an empty key")
	}
}
