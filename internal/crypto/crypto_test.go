package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, KeySize))
}

func TestSealOpen(t *testing.T) {
	c, err := NewCipher(testKey())
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	const card = `{"type":"card","brand":"visa","last4":"4242"}`

	sealed, err := c.Seal(card)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if sealed == card {
		t.Fatalf("expected ciphertext to differ from plaintext")
	}
	again, _ := c.Seal(card)
	if again == sealed {
		t.Fatalf("expected a fresh nonce per seal")
	}

	opened, err := c.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened != card {
		t.Fatalf("got %q, want %q", opened, card)
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	c, _ := NewCipher(testKey())
	sealed, _ := c.Seal("4242")
	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff

	if _, err := c.Open(base64.StdEncoding.EncodeToString(raw)); !errors.Is(err, ErrMalformedCiphertext) {
		t.Fatalf("expected ErrMalformedCiphertext, got %v", err)
	}
	if _, err := c.Open("%%%"); !errors.Is(err, ErrMalformedCiphertext) {
		t.Fatalf("expected ErrMalformedCiphertext for bad base64, got %v", err)
	}
	if _, err := c.Open("AAAA"); !errors.Is(err, ErrMalformedCiphertext) {
		t.Fatalf("expected ErrMalformedCiphertext for short input, got %v", err)
	}
}

func TestNewCipherKeyValidation(t *testing.T) {
	if _, err := NewCipher(""); err == nil {
		t.Fatalf("expected an error for an empty key")
	}
	if _, err := NewCipher("not base64!"); err == nil {
		t.Fatalf("expected an error for invalid base64")
	}
	short := base64.StdEncoding.EncodeToString([]byte("too-short"))
	if _, err := NewCipher(short); err == nil {
		t.Fatalf("expected an error for a short key")
	}
}
