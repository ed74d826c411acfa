package kilnlog

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	// MaxSignedURLTTL caps how far in the future a signed URL may expire.
	MaxSignedURLTTL = 7 * 24 * time.Hour

	signatureParam = "sig"
	expiresParam   = "expires"
)

// URLSigner issues and verifies time-limited read URLs for blob paths. A URL
// carries the blob path, a unix expiry timestamp, and an HMAC-SHA256 signature
// over both; nothing is persisted per URL.
type URLSigner struct {
	secret []byte
}

// NewURLSigner creates a signer with the given shared secret.
func NewURLSigner(secret []byte) (*URLSigner, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("new url signer: secret cannot be empty")
	}
	return &URLSigner{secret: secret}, nil
}

// Sign returns the query string ("expires=...&sig=...") authorizing a read of
// blobPath until now+ttl. The TTL is clamped to MaxSignedURLTTL.
func (s *URLSigner) Sign(blobPath string, ttl time.Duration) (string, error) {
	if blobPath == "" {
		return "", fmt.Errorf("sign url: blob path cannot be empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("sign url: ttl must be positive")
	}
	if ttl > MaxSignedURLTTL {
		ttl = MaxSignedURLTTL
	}

	expires := time.Now().Add(ttl).Unix()
	sig := s.compute(blobPath, expires)

	q := url.Values{}
	q.Set(expiresParam, strconv.FormatInt(expires, 10))
	q.Set(signatureParam, sig)
	return q.Encode(), nil
}

// Verify checks the expiry and signature query parameters for a read of
// blobPath. It returns ErrUnauthorized (wrapped) for missing, expired, or
// mismatched signatures.
func (s *URLSigner) Verify(blobPath string, query url.Values) error {
	expiresStr := query.Get(expiresParam)
	sig := query.Get(signatureParam)
	if expiresStr == "" || sig == "" {
		return fmt.Errorf("missing signature parameters: %w", ErrUnauthorized)
	}

	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expiry: %w", ErrUnauthorized)
	}

	if time.Now().After(time.Unix(expires, 0)) {
		return fmt.Errorf("url expired: %w", ErrUnauthorized)
	}

	expected := s.compute(blobPath, expires)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return nil
}

func (s *URLSigner) compute(blobPath string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(blobPath))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
