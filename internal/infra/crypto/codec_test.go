package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testCodec() *Codec {
	c := NewCodec(nil)
	c.Iterations = 1000
	return c
}

func TestSalt(t *testing.T) {
	if got := Salt("abc"); got != "abc0000000000000" {
		t.Fatalf("short salt = %q", got)
	}
	if got := Salt("0123456789abcdefXYZ"); got != "0123456789abcdef" {
		t.Fatalf("long salt = %q", got)
	}
	if got := Salt(""); got != strings.Repeat("0", 16) {
		t.Fatalf("empty salt = %q", got)
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	c := testCodec()
	k1, err := c.DeriveKey("user-123")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	k2, err := c.DeriveKey("user-123")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	env, err := k1.Seal("Who sold the most?")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	got, err := k2.Open(env)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got != "Who sold the most?" {
		t.Fatalf("round trip = %q", got)
	}

	raw, err := base64.StdEncoding.DecodeString(env)
	if err != nil {
		t.Fatalf("envelope is not base64: %v", err)
	}
	if len(raw) != ivLen+len("Who sold the most?")+16 {
		t.Fatalf("envelope length = %d", len(raw))
	}
}

func TestSealUsesFreshIV(t *testing.T) {
	k, _ := testCodec().DeriveKey("owner")
	a, _ := k.Seal("same")
	b, _ := k.Seal("same")
	if a == b {
		t.Fatalf("two seals of the same text must differ")
	}
}

func TestDecryptFailsOpen(t *testing.T) {
	c := testCodec()
	for _, in := range []string{"plain legacy text", "", "AAAA", "not base64 !!"} {
		if got := c.Decrypt("owner", in); got != in {
			t.Fatalf("Decrypt(%q) = %q", in, got)
		}
	}
}

func TestOpenWithWrongOwner(t *testing.T) {
	c := testCodec()
	env := c.Encrypt("alice", "secret")
	if env == "secret" {
		t.Fatalf("encrypt returned plaintext")
	}
	if got := c.Decrypt("bob", env); got != env {
		t.Fatalf("wrong owner should get the envelope back, got %q", got)
	}
	if got := c.Decrypt("alice", env); got != "secret" {
		t.Fatalf("decrypt = %q", got)
	}
}

func TestOpenMalformed(t *testing.T) {
	k, _ := testCodec().DeriveKey("owner")
	if _, err := k.Open("%%%"); !errors.Is(err, ErrEnvelope) {
		t.Fatalf("expected ErrEnvelope, got %v", err)
	}
	short := base64.StdEncoding.EncodeToString([]byte("tiny"))
	if _, err := k.Open(short); !errors.Is(err, ErrEnvelope) {
		t.Fatalf("expected ErrEnvelope for short input, got %v", err)
	}
}
