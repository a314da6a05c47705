package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	if _, err := s.Get("openai_api_key"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() on empty store error = %v, want ErrNotFound", err)
	}

	if err := s.Set("openai_api_key", "sk-one"); err != nil {
		t.Fatalf("Set() returned error: %v", err)
	}
	if err := s.Set("openai_api_key", "sk-two"); err != nil {
		t.Fatalf("Set() overwrite returned error: %v", err)
	}

	got, err := s.Get("openai_api_key")
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if got != "sk-two" {
		t.Errorf("Get() = %q, want %q", got, "sk-two")
	}

	if err := s.Delete("openai_api_key"); err != nil {
		t.Fatalf("Delete() returned error: %v", err)
	}
	if err := s.Delete("openai_api_key"); err != nil {
		t.Errorf("second Delete() returned error: %v", err)
	}
	if _, err := s.Get("openai_api_key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "storage.json")))
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	exerciseStore(t, NewKeyringStore(KeyringService))
}

func TestKeyringStore_BackendError(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))
	defer keyring.MockInit()

	s := NewKeyringStore(KeyringService)
	if _, err := s.Get("k"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want backend error", err)
	}
	if err := s.Set("k", "v"); err == nil {
		t.Error("Set() should surface backend error")
	}
}

func TestFileStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")

	if err := NewFileStore(path).Set("openai_api_key", "sk-test"); err != nil {
		t.Fatalf("Set() returned error: %v", err)
	}

	// A fresh instance reads what the previous one wrote
	got, err := NewFileStore(path).Get("openai_api_key")
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if got != "sk-test" {
		t.Errorf("Get() = %q, want %q", got, "sk-test")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat storage file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("File permissions = %o, want 600", perm)
	}
}

func TestFileStore_KeepsOtherKeys(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "storage.json"))

	_ = s.Set("a", "1")
	_ = s.Set("b", "2")
	_ = s.Delete("a")

	if v, err := s.Get("b"); err != nil || v != "2" {
		t.Errorf("Get(b) = %q, %v; want 2, nil", v, err)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	s := NewFileStore(path)
	_, err := s.Get("openai_api_key")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on corrupt file error = %v, want parse error", err)
	}
	if err := s.Set("openai_api_key", "x"); err == nil {
		t.Error("Set() on corrupt file should not silently discard contents")
	}
}

func TestFileStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := NewFileStore(path).Get("k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on empty file error = %v, want ErrNotFound", err)
	}
}

func TestOpen(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{"file", "*store.FileStore", false},
		{"", "*store.FileStore", false},
		{"keyring", "*store.KeyringStore", false},
		{"memory", "*store.MemoryStore", false},
		{"etcd", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(tt.backend)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() returned error: %v", err)
			}
			var got string
			switch s.(type) {
			case *FileStore:
				got = "*store.FileStore"
			case *KeyringStore:
				got = "*store.KeyringStore"
			case *MemoryStore:
				got = "*store.MemoryStore"
			}
			if got != tt.want {
				t.Errorf("Open(%q) = %s, want %s", tt.backend, got, tt.want)
			}
		})
	}
}
