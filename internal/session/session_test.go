package session

import (
	"errors"
	"testing"
	"time"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	m, err := NewManager("test-secret-0123456789", time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, err := m.Issue(42, "admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	id, claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
	if claims.Username != "admin" {
		t.Errorf("Username = %q, want admin", claims.Username)
	}
}

func TestVerify_Expired(t *testing.T) {
	m, _ := NewManager("test-secret-0123456789", time.Minute)
	issuedAt := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issuedAt }
	token, err := m.Issue(1, "admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.now = time.Now
	if _, _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify expired token: err = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	a, _ := NewManager("secret-a-0123456789", time.Hour)
	b, _ := NewManager("secret-b-0123456789", time.Hour)

	token, _ := a.Issue(1, "admin")
	if _, _, err := b.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	m, _ := NewManager("", time.Hour)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		if _, _, err := m.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) err = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestNewManager_RandomSecretWhenEmpty(t *testing.T) {
	a, _ := NewManager("", time.Hour)
	b, _ := NewManager("", time.Hour)
	token, _ := a.Issue(7, "x")
	if _, _, err := b.Verify(token); err == nil {
		t.Fatal("tokens from one random-secret manager must not verify on another")
	}
}
