package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenStorage(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")

	storage, err := NewTokenStorage(tokenPath)
	if err != nil {
		t.Fatalf("NewTokenStorage() error = %v", err)
	}

	if storage.Exists() {
		t.Error("Exists() = true, want false for new storage")
	}

	token, err := storage.Load()
	if err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if token != nil {
		t.Error("Load() should return nil for non-existent token")
	}

	expiry := time.Now().Add(time.Hour).Round(time.Second)
	testToken := &oauth2.Token{
		AccessToken:  "access_123",
		TokenType:    "Bearer",
		RefreshToken: "refresh_456",
		Expiry:       expiry,
	}
	if err := storage.Save(testToken); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !storage.Exists() {
		t.Error("Exists() = false after save, want true")
	}

	loaded, err := storage.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AccessToken != testToken.AccessToken {
		t.Errorf("AccessToken = %q, want %q", loaded.AccessToken, testToken.AccessToken)
	}
	if loaded.RefreshToken != testToken.RefreshToken {
		t.Errorf("RefreshToken = %q, want %q", loaded.RefreshToken, testToken.RefreshToken)
	}
	if !loaded.Expiry.Equal(expiry) {
		t.Errorf("Expiry = %v, want %v", loaded.Expiry, expiry)
	}

	info, err := os.Stat(tokenPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("File permissions = %o, want 0600", mode)
	}

	if err := storage.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if storage.Exists() {
		t.Error("Exists() = true after delete, want false")
	}
}

func TestTokenStorageNestedDirectory(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "nested", "dir", "token.json")

	storage, err := NewTokenStorage(tokenPath)
	if err != nil {
		t.Fatalf("NewTokenStorage() error = %v", err)
	}

	if err := storage.Save(&oauth2.Token{AccessToken: "test"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !storage.Exists() {
		t.Error("Token file not created in nested directory")
	}
}

func TestTokenStorageCorrupt(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(tokenPath, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	storage, _ := NewTokenStorage(tokenPath)
	if _, err := storage.Load(); err == nil {
		t.Error("Load() of a corrupt file should fail")
	}
}

func TestTokenStorageDeleteNonExistent(t *testing.T) {
	storage, err := NewTokenStorage(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("NewTokenStorage() error = %v", err)
	}
	if err := storage.Delete(); err != nil {
		t.Errorf("Delete() on non-existent file error = %v", err)
	}
}

func TestTokenStoragePath(t *testing.T) {
	path := "/custom/path/token.json"
	storage, err := NewTokenStorage(path)
	if err != nil {
		t.Fatalf("NewTokenStorage() error = %v", err)
	}
	if storage.Path() != path {
		t.Errorf("Path() = %q, want %q", storage.Path(), path)
	}
}
