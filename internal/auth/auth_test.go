package auth

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestGetAPIKeyFromEnv(t *testing.T) {
	const testKey = "test-fal-key-12345"

	t.Setenv("FAL_KEY", testKey)
	t.Setenv("FAL_API_KEY", "alias-should-lose")

	key, err := GetAPIKey(FAL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != testKey {
		t.Errorf("expected key %q, got %q", testKey, key)
	}
}

func TestGetAPIKeyAlias(t *testing.T) {
	t.Setenv("FAL_KEY", "")
	t.Setenv("FAL_API_KEY", "alias-key")

	key, err := GetAPIKey(FAL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "alias-key" {
		t.Errorf("expected alias key, got %q", key)
	}
}

func TestGetAPIKeyNoSource(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	_, err := GetAPIKey(Gemini)
	if !errors.Is(err, ErrNoKey) {
		t.Errorf("expected ErrNoKey, got %v", err)
	}
}

func TestGetCredentialPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := getCredentialPath(FAL.CredentialFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := filepath.Join(home, ".ui-restyler", "fal-credentials.gpg")
	if path != expected {
		t.Errorf("expected path %q, got %q", expected, path)
	}
}

func TestGetFromGPGFileNotFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := getFromGPG(Gemini.CredentialFile); err == nil {
		t.Error("expected error when credentials file does not exist")
	}
}
