package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	// Use mock manager for reliable testing
	manager, mockStore := NewMockManager()

	// Test storing credentials
	account := &Account{
		Email:        "testuser@example.com",
		Password:     "test_password_12345",
		LastModified: time.Now(),
	}

	err := manager.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	// Test retrieving credentials
	retrieved, err := manager.Retrieve("testuser@example.com")
	if err != nil {
		t.Errorf("Failed to retrieve account: %v", err)
	}

	if retrieved.Email != account.Email {
		t.Errorf("Email mismatch: got %s, want %s", retrieved.Email, account.Email)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch: got %s, want %s", retrieved.Password, account.Password)
	}

	// Test listing accounts
	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	// Test sanitization
	sanitized := SanitizeAccount(account)
	if sanitized.Password == account.Password {
		t.Error("Password should be masked")
	}
	if sanitized.Email != account.Email {
		t.Error("Email should not be masked")
	}

	// Test deletion
	err = manager.Delete("testuser@example.com")
	if err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	// Verify deletion
	_, err = manager.Retrieve("testuser@example.com")
	if err == nil {
		t.Error("Expected error retrieving deleted account")
	}

	// Verify mock store state
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Account{Password: "pw"}); err == nil {
		t.Error("Expected error storing account without email")
	}
	if err := manager.Store(&Account{Email: "a@b.com"}); err == nil {
		t.Error("Expected error storing account without password")
	}
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	manager := NewMockManagerWithStores(older, newer)

	if err := older.Store(&Account{
		Email:        "dup@example.com",
		Password:     "stale_password",
		LastModified: time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatal(err)
	}
	if err := newer.Store(&Account{
		Email:        "dup@example.com",
		Password:     "fresh_password",
		LastModified: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("Expected 1 merged account, got %d", len(accounts))
	}
	if accounts[0].Password != "fresh_password" {
		t.Errorf("Expected the most recently modified copy, got %s", accounts[0].Password)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	// Set test passphrase
	t.Setenv("LISCRAPER_PASSPHRASE", "test_passphrase_123")

	// Create store
	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	// Test operations
	account := &Account{
		Email:    "encrypted_user@example.com",
		Password: "encrypted_password",
	}

	// Store
	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	// Retrieve
	retrieved, err := store.Retrieve("encrypted_user@example.com")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch after encryption/decryption")
	}

	// Verify file is actually encrypted
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	// File should not contain plaintext credentials
	if contains(fileContent, []byte("encrypted_password")) {
		t.Error("File contains plaintext password")
	}
	if contains(fileContent, []byte("encrypted_user@example.com")) {
		t.Error("File contains plaintext email")
	}
}

func TestEncryptedFileStoreDeleteRemovesFile(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "creds.enc")
	t.Setenv("LISCRAPER_PASSPHRASE", "test_passphrase_delete")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Store(&Account{Email: "only@example.com", Password: "pw"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("only@example.com"); err != nil {
		t.Fatalf("Failed to delete account: %v", err)
	}

	// The file goes away with the last account.
	if _, err := os.Stat(tempFile); !os.IsNotExist(err) {
		t.Error("Expected credentials file to be removed")
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("LISCRAPER_EMAIL", "env_user@example.com")
	t.Setenv("LISCRAPER_PASSWORD", "env_password")

	store := NewEnvironmentStore()

	// Test retrieve
	account, err := store.Retrieve("")
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if account.Email != "env_user@example.com" {
		t.Errorf("Email mismatch: got %s, want env_user@example.com", account.Email)
	}
	if account.Password != "env_password" {
		t.Errorf("Password mismatch: got %s, want env_password", account.Password)
	}

	// A request for a different account must not return the env account
	if _, err := store.Retrieve("someone_else@example.com"); err != ErrCredentialsNotFound {
		t.Error("Expected ErrCredentialsNotFound for a mismatched email")
	}

	// Test that store is not supported
	err = store.Store(&Account{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	// Set passphrase for testing
	t.Setenv("LISCRAPER_PASSPHRASE", "test_passphrase_real_manager")

	// Create manager with only encrypted file store (most reliable for testing)
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	// Test storing credentials
	account := &Account{
		Email:        "realuser@example.com",
		Password:     "real_password",
		LastModified: time.Now(),
	}

	err = manager.Store(account)
	if err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	// Test listing accounts
	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account in list, got %d", len(accounts))
	}

	// Test retrieving credentials
	retrieved, err := manager.Retrieve("realuser@example.com")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Email != account.Email {
		t.Errorf("Email mismatch: got %s, want %s", retrieved.Email, account.Email)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch: got %s, want %s", retrieved.Password, account.Password)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	// Test empty store
	accounts, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("Expected 0 accounts, got %d", len(accounts))
	}

	// Test storing and retrieving
	account := &Account{
		Email:    "mockuser@example.com",
		Password: "mock_password",
	}

	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	// Verify count
	if store.Count() != 1 {
		t.Errorf("Expected 1 account, got %d", store.Count())
	}

	// Test exists
	if !store.Exists("mockuser@example.com") {
		t.Error("Account should exist")
	}

	// Test error injection
	store.ListError = fmt.Errorf("injected error")
	_, err = store.List()
	if err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}

func TestMaskString(t *testing.T) {
	if got := maskString("hunter2secret"); got != "hu******" {
		t.Errorf("maskString long: got %s", got)
	}
	if got := maskString("pw"); got != "********" {
		t.Errorf("maskString short: got %s", got)
	}
}

func contains(data []byte, substr []byte) bool {
	for i := 0; i <= len(data)-len(substr); i++ {
		if string(data[i:i+len(substr)]) == string(substr) {
			return true
		}
	}
	return false
}
