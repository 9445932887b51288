package auth

import (
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Save("agent@example.com", "tok-123"); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if creds.User != "agent@example.com" || creds.Token != "tok-123" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
	if creds.Timestamp == 0 {
		t.Fatal("expected timestamp to be set")
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if creds != nil {
		t.Fatalf("expected nil credentials, got %+v", creds)
	}
}

func TestStoreClear(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Save("agent@example.com", "tok-123"); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear must be idempotent: %v", err)
	}

	creds, err := store.Load()
	if err != nil || creds != nil {
		t.Fatalf("expected cleared store, got %+v, %v", creds, err)
	}
}

func TestTokenProvider(t *testing.T) {
	store := NewStore(t.TempDir())
	provider := store.TokenProvider()

	if _, ok := provider(); ok {
		t.Fatal("empty store must report anonymous")
	}

	if err := store.Save("agent@example.com", "tok-123"); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	token, ok := provider()
	if !ok || token != "tok-123" {
		t.Fatalf("unexpected token: %q, %v", token, ok)
	}
}
