package password

import (
	"strings"
	"testing"
)

func cheapConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h, err := NewHasher(cheapConfig())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	hash, err := h.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := h.Verify("correct-horse-battery", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = h.Verify("wrong-password-x", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashSaltsDiffer(t *testing.T) {
	h, err := NewHasher(cheapConfig())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	a, err := h.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of one password must differ")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	h, err := NewHasher(cheapConfig())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	if _, err := h.Hash("too-short"); err == nil {
		t.Fatal("expected error for password below 10 bytes")
	}
}

func TestVerifyRejectsTamperedHash(t *testing.T) {
	h, err := NewHasher(cheapConfig())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	cases := []string{
		"",
		"not-a-phc-string",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	}
	for _, bad := range cases {
		if _, err := h.Verify("whatever-password", bad); err == nil {
			t.Fatalf("expected parse error for %q", bad)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, err := NewHasher(cheapConfig())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	hash, err := weak.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	strongCfg := cheapConfig()
	strongCfg.Time = 3
	strong, err := NewHasher(strongCfg)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	needs, err := strong.NeedsRehash(hash)
	if err != nil {
		t.Fatalf("NeedsRehash failed: %v", err)
	}
	if !needs {
		t.Fatal("hash below current parameters should need rehash")
	}

	needs, err = weak.NeedsRehash(hash)
	if err != nil {
		t.Fatalf("NeedsRehash failed: %v", err)
	}
	if needs {
		t.Fatal("hash at current parameters should not need rehash")
	}
}

func TestDummyVerifyDoesNotPanic(t *testing.T) {
	h, err := NewHasher(cheapConfig())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	h.DummyVerify("any-password-at-all")
}

func TestNewHasherValidatesConfig(t *testing.T) {
	cases := map[string]Config{
		"low memory":     {Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		"zero time":      {Memory: 8 * 1024, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		"no parallelism": {Memory: 8 * 1024, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 16},
		"short salt":     {Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16},
		"short key":      {Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8},
	}

	for name, cfg := range cases {
		if _, err := NewHasher(cfg); err == nil {
			t.Fatalf("%s: expected config rejection", name)
		}
	}
}
