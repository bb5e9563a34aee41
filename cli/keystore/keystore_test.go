package keystore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// testKDF keeps Argon2id cheap in tests.
var testKDF = kdf{time: 1, memory: 1024, threads: 1}

func newTestKeystore(t *testing.T, path string, master string) *FileKeystore {
	t.Helper()
	ks, err := NewFileKeystore(path, StaticMasterKey(master))
	if err != nil {
		t.Fatalf("NewFileKeystore() error = %v", err)
	}
	ks.kdf = testKDF
	return ks
}

func TestFileKeystoreSetAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")
	ks := newTestKeystore(t, path, "master")

	if err := ks.Set("anthropic", "sk-ant-12345"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err := ks.Get("anthropic")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "sk-ant-12345" {
		t.Errorf("Get() = %q, want sk-ant-12345", value)
	}

	// A second instance with the same master key reads the same file.
	again := newTestKeystore(t, path, "master")
	if value, err := again.Get("anthropic"); err != nil || value != "sk-ant-12345" {
		t.Errorf("reopened Get() = %q, %v", value, err)
	}
}

func TestFileKeystoreGetNotFound(t *testing.T) {
	ks := newTestKeystore(t, filepath.Join(t.TempDir(), "keys.enc"), "master")

	_, err := ks.Get("nonexistent")
	if !IsNotFound(err) {
		t.Errorf("Get() error = %v, want *ErrKeyNotFound", err)
	}
}

func TestFileKeystoreDelete(t *testing.T) {
	ks := newTestKeystore(t, filepath.Join(t.TempDir(), "keys.enc"), "master")

	if err := ks.Set("anthropic", "sk-ant-test"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := ks.Delete("anthropic"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := ks.Get("anthropic"); !IsNotFound(err) {
		t.Error("Get() should return ErrKeyNotFound after Delete()")
	}
	if err := ks.Delete("anthropic"); !IsNotFound(err) {
		t.Errorf("second Delete() error = %v, want ErrKeyNotFound", err)
	}
}

func TestFileKeystoreList(t *testing.T) {
	ks := newTestKeystore(t, filepath.Join(t.TempDir(), "keys.enc"), "master")

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() on empty store = %v", names)
	}

	for _, name := range []string{"work", "anthropic", "personal"} {
		if err := ks.Set(name, "sk-"+name); err != nil {
			t.Fatalf("Set(%q) error = %v", name, err)
		}
	}

	names, err = ks.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"anthropic", "personal", "work"}
	if len(names) != len(want) {
		t.Fatalf("List() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFileKeystoreFileIsEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")
	ks := newTestKeystore(t, path, "master")
	if err := ks.Set("anthropic", "sk-plaintext-marker"); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw[:len(magicHeader)]) != magicHeader {
		t.Errorf("file does not start with %q", magicHeader)
	}
	if bytes.Contains(raw, []byte("sk-plaintext-marker")) {
		t.Error("file contains the key in plaintext")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("perm = %o, want 600", perm)
		}
	}
}

func TestFileKeystoreWrongMasterKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")
	if err := newTestKeystore(t, path, "right").Set("anthropic", "sk"); err != nil {
		t.Fatal(err)
	}

	_, err := newTestKeystore(t, path, "wrong").Get("anthropic")
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Get() error = %v, want ErrCorrupt", err)
	}
}

func TestFileKeystoreTamperedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.enc")
	ks := newTestKeystore(t, path, "master")
	if err := ks.Set("anthropic", "sk"); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)-1] ^= 0xff
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := ks.Get("anthropic"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Get() error = %v, want ErrCorrupt", err)
	}

	if err := os.WriteFile(path, []byte("not a keystore"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ks.Get("anthropic"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Get() on garbage error = %v, want ErrCorrupt", err)
	}
}

func TestMasterKeySources(t *testing.T) {
	if _, err := StaticMasterKey(nil).MasterKey(); err == nil {
		t.Error("empty StaticMasterKey should fail")
	}

	t.Setenv(PassphraseEnvVar, "from-env")
	key, err := DefaultMasterKey{}.MasterKey()
	if err != nil {
		t.Fatal(err)
	}
	if string(key) != "from-env" {
		t.Errorf("MasterKey() = %q, want passphrase from env", key)
	}

	t.Setenv(PassphraseEnvVar, "")
	key, err = DefaultMasterKey{}.MasterKey()
	if err != nil {
		t.Fatal(err)
	}
	if len(key) != 32 {
		t.Errorf("machine key length = %d, want 32", len(key))
	}
}

func TestDefaultKeystorePath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	if runtime.GOOS == "windows" {
		t.Skip("home comes from USERPROFILE on windows")
	}
	if got := DefaultKeystorePath(); got != filepath.Join("/home/tester", ".aide", "keys.enc") {
		t.Errorf("DefaultKeystorePath() = %q", got)
	}
}
