package security

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	os.Setenv("CSRF_SECRET", "test-secret-for-csrf")
	os.Exit(m.Run())
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if !ValidateToken(token) {
		t.Fatalf("expected freshly generated token to validate")
	}
	if parts := strings.Split(token, ":"); len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}
}

func TestValidateTokenExpiry(t *testing.T) {
	// Craft a token issued just over an hour ago with the same secret.
	issuedAt := time.Now().Add(-TokenTTL - time.Minute).UnixMilli()
	payload := fmt.Sprintf("%d:%s", issuedAt, strings.Repeat("ab", nonceSize))
	token := payload + ":" + sign(payload)

	if ValidateToken(token) {
		t.Fatalf("expected expired token to fail validation")
	}

	// A token just inside the window still validates.
	issuedAt = time.Now().Add(-TokenTTL + time.Minute).UnixMilli()
	payload = fmt.Sprintf("%d:%s", issuedAt, strings.Repeat("ab", nonceSize))
	if !ValidateToken(payload + ":" + sign(payload)) {
		t.Fatalf("expected unexpired token to validate")
	}
}

func TestValidateTokenTamperDetection(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	// Flip one character in the signature segment.
	flipped := []byte(token)
	last := len(flipped) - 1
	if flipped[last] == 'a' {
		flipped[last] = 'b'
	} else {
		flipped[last] = 'a'
	}
	if ValidateToken(string(flipped)) {
		t.Fatalf("expected tampered signature to fail validation")
	}
}

func TestValidateTokenMalformedInput(t *testing.T) {
	tests := []string{
		"",
		"a:b",
		"not-a-token",
		"1:2:3:4",
		"notanumber:deadbeef:cafe",
	}

	for _, token := range tests {
		if ValidateToken(token) {
			t.Fatalf("expected %q to be invalid", token)
		}
	}
}

func TestVerifyRequestHeaderCookieBinding(t *testing.T) {
	sessionToken, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	foreignToken, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if !VerifyRequest(sessionToken, sessionToken) {
		t.Fatalf("expected matching header and cookie to verify")
	}
	// A validly signed token from another session must be rejected.
	if VerifyRequest(foreignToken, sessionToken) {
		t.Fatalf("expected foreign header token to fail cookie binding")
	}
	if VerifyRequest("", sessionToken) {
		t.Fatalf("expected missing header token to fail")
	}
	if VerifyRequest(sessionToken, "") {
		t.Fatalf("expected missing cookie token to fail")
	}
}
