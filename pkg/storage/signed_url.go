package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signer mints and checks HMAC download tokens so export files can be fetched
// without an Authorization header after creation.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner constructs a signer with the provided secret and token TTL.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// Generate returns a signed token binding a draw to a stored file path.
func (s *Signer) Generate(drawID, relPath string) (string, time.Time, error) {
	if drawID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("draw id and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	signature := s.sign(drawID, strconv.FormatInt(expiresAt.Unix(), 10), encodedPath)
	token := strings.Join([]string{drawID, strconv.FormatInt(expiresAt.Unix(), 10), encodedPath, signature}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the draw ID and file path it binds.
func (s *Signer) Parse(token string) (drawID, relPath string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", fmt.Errorf("invalid token format")
	}
	drawID, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", fmt.Errorf("decode path: %w", err)
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("invalid timestamp")
	}

	expected := s.sign(drawID, ts, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", fmt.Errorf("invalid token signature")
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return "", "", fmt.Errorf("token expired")
	}
	return drawID, string(rawPath), nil
}

func (s *Signer) sign(drawID, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s", drawID, ts, encodedPath)
	return hex.EncodeToString(mac.Sum(nil))
}
