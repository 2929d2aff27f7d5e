package security

import (
	"strings"
	"testing"

	"github.com/mamacare/engine/pkg/config"
)

func testHasher() *ArgonHasher {
	// Low-cost parameters keep the test fast; production values come from
	// config defaults.
	return NewArgonHasher(config.PasswordConfig{
		ArgonMemoryKiB:   8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLength:  16,
		ArgonKeyLength:   32,
	})
}

func TestHashAndVerify(t *testing.T) {
	hasher := testHasher()
	encoded, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected hash format %q", encoded)
	}

	ok, err := hasher.Verify("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = hasher.Verify("wrong password", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("expected mismatched password to fail")
	}
}

func TestHashesAreSalted(t *testing.T) {
	hasher := testHasher()
	first, err := hasher.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := hasher.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same input should differ")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	hasher := testHasher()
	if _, err := hasher.Verify("anything", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	second, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if first == second {
		t.Fatal("tokens should be unique")
	}
	if len(first) < 32 {
		t.Fatalf("token too short: %d", len(first))
	}
}
