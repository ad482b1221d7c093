package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/clubstack/clubstack/internal/pkg/env"
)

// The CSRF token is a stateless, HMAC-signed, time-boxed value issued to the
// browser in a readable cookie and echoed back in a request header. Validity
// requires the signature to verify, the token to be younger than TokenTTL,
// and the header value to equal the session's own cookie value.
const (
	CookieName = "csrf_token"
	HeaderName = "x-csrf-token"
	TokenTTL   = time.Hour

	nonceSize = 16
)

var (
	secretOnce sync.Once
	secret     []byte
)

// csrfSecret resolves the process-wide signing secret once. Outside dev the
// secret must be configured; in dev a missing secret falls back to an
// ephemeral random value, which invalidates all tokens on restart.
func csrfSecret() []byte {
	secretOnce.Do(func() {
		s := env.GetEnv("CSRF_SECRET", "")
		if s == "" {
			if !env.IsDev() {
				panic("CSRF_SECRET must be configured outside dev")
			}
			buf := make([]byte, 32)
			if _, err := rand.Read(buf); err != nil {
				panic(err)
			}
			s = hex.EncodeToString(buf)
			log.Printf("Warning: CSRF_SECRET not set, using ephemeral secret; tokens will not survive a restart")
		}
		secret = []byte(s)
	})
	return secret
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, csrfSecret())
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateToken produces "{issuedAtMillis}:{nonce}:{signature}" where nonce is
// 16 random bytes hex-encoded and signature is HMAC-SHA256 over the first two
// segments.
func GenerateToken() (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	payload := fmt.Sprintf("%d:%s", time.Now().UnixMilli(), hex.EncodeToString(nonce))
	return payload + ":" + sign(payload), nil
}

// ValidateToken checks signature and age. Malformed input is simply invalid;
// this never panics.
func ValidateToken(token string) bool {
	if token == "" {
		return false
	}
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return false
	}
	expected := sign(parts[0] + ":" + parts[1])
	// Length must match before the constant-time compare, otherwise fail closed.
	if len(expected) != len(parts[2]) {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[2])) != 1 {
		return false
	}
	issuedAt, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return false
	}
	return time.Now().UnixMilli()-issuedAt <= TokenTTL.Milliseconds()
}

// VerifyRequest binds the header token to the session's cookie token. A
// validly signed token generated for a different session fails here because
// it cannot equal this session's cookie value.
func VerifyRequest(headerToken, cookieToken string) bool {
	if headerToken == "" || cookieToken == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookieToken)) != 1 {
		return false
	}
	return ValidateToken(headerToken)
}

// SetCookie issues a fresh token, stores it in the site-wide CSRF cookie and
// returns it so the caller can also hand it to the client directly. The
// cookie is readable by client script on purpose: the client must echo the
// value in the x-csrf-token header.
func SetCookie(c *fiber.Ctx) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL.Seconds()),
		Secure:   !env.IsDev(),
		HTTPOnly: false,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return token, nil
}
