package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrLinkInvalid reports a malformed or forged download token.
	ErrLinkInvalid = errors.New("invalid download link")
	// ErrLinkExpired reports a genuine token past its expiry.
	ErrLinkExpired = errors.New("download link expired")
)

// Link is what a download token grants: one stored file of one export until
// ExpiresAt.
type Link struct {
	Token     string    `json:"-"`
	ExportID  int64     `json:"e"`
	Path      string    `json:"p"`
	ExpiresAt time.Time `json:"-"`
	Expires   int64     `json:"x"`
}

// LinkSigner issues and verifies HMAC-SHA256 signed download tokens.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkSigner builds a signer. A non-positive ttl means one day.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign issues a token for path within exportID.
func (s *LinkSigner) Sign(exportID int64, path string) (Link, error) {
	if len(s.secret) == 0 {
		return Link{}, fmt.Errorf("signing secret missing")
	}
	if exportID <= 0 || path == "" {
		return Link{}, fmt.Errorf("export id and path required")
	}
	link := Link{ExportID: exportID, Path: path}
	link.ExpiresAt = s.now().Add(s.ttl).Truncate(time.Second)
	link.Expires = link.ExpiresAt.Unix()

	payload, err := json.Marshal(link)
	if err != nil {
		return Link{}, fmt.Errorf("encode link: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	link.Token = body + "." + base64.RawURLEncoding.EncodeToString(s.mac(body))
	return link, nil
}

// Verify checks the signature and expiry of token.
func (s *LinkSigner) Verify(token string) (Link, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return Link{}, ErrLinkInvalid
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(got, s.mac(body)) {
		return Link{}, ErrLinkInvalid
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return Link{}, ErrLinkInvalid
	}
	var link Link
	if err := json.Unmarshal(payload, &link); err != nil || link.ExportID <= 0 || link.Path == "" {
		return Link{}, ErrLinkInvalid
	}
	link.Token = token
	link.ExpiresAt = time.Unix(link.Expires, 0)
	if !s.now().Before(link.ExpiresAt) {
		return link, ErrLinkExpired
	}
	return link, nil
}

func (s *LinkSigner) mac(body string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(body)) //nolint:errcheck
	return h.Sum(nil)
}
