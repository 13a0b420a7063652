// Package auth signs Kalshi REST requests and streaming handshakes with an RSA-PSS API key.
package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/coachpo/kalshi-gateway/errs"
)

// Header names carried on every authenticated request and on the streaming handshake.
const (
	HeaderKey       = "KALSHI-ACCESS-KEY"
	HeaderTimestamp = "KALSHI-ACCESS-TIMESTAMP"
	HeaderSignature = "KALSHI-ACCESS-SIGNATURE"
)

// SignedHeaders is the per-request authentication triple. It is derived fresh for every request.
type SignedHeaders struct {
	Key         string
	TimestampMS string
	Signature   string
}

// Apply writes the triple onto h.
func (s SignedHeaders) Apply(h http.Header) {
	h.Set(HeaderKey, s.Key)
	h.Set(HeaderTimestamp, s.TimestampMS)
	h.Set(HeaderSignature, s.Signature)
}

// HTTPHeader returns the triple as a fresh header set.
func (s SignedHeaders) HTTPHeader() http.Header {
	h := make(http.Header, 3)
	s.Apply(h)
	return h
}

// Signer holds an API key id and its RSA private key. It is immutable after construction
// and safe for concurrent use.
type Signer struct {
	keyID string
	key   *rsa.PrivateKey
	now   func() time.Time
	rand  io.Reader
}

// Option customises a Signer.
type Option func(*Signer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandom overrides the entropy source used for PSS salts.
func WithRandom(r io.Reader) Option {
	return func(s *Signer) {
		if r != nil {
			s.rand = r
		}
	}
}

// NewSigner wraps an already parsed key.
func NewSigner(keyID string, key *rsa.PrivateKey, opts ...Option) (*Signer, error) {
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return nil, errs.Kalshi(errs.CodeConfig, errs.WithMessage("api key id required"))
	}
	if key == nil {
		return nil, errs.Kalshi(errs.CodeConfig, errs.WithMessage("rsa private key required"))
	}
	s := &Signer{keyID: keyID, key: key, now: time.Now, rand: rand.Reader}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// LoadPEM parses a PKCS#8 or PKCS#1 PEM-encoded RSA private key.
func LoadPEM(keyID, pemText string, opts ...Option) (*Signer, error) {
	key, err := parsePrivateKey([]byte(pemText))
	if err != nil {
		return nil, err
	}
	return NewSigner(keyID, key, opts...)
}

// LoadPEMFile reads and parses a PEM key file.
func LoadPEMFile(keyID, path string, opts ...Option) (*Signer, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is operator controlled.
	if err != nil {
		return nil, errs.Kalshi(errs.CodeConfig,
			errs.WithMessage("read private key file"),
			errs.WithVenueField("path", path),
			errs.WithCause(err))
	}
	return LoadPEM(keyID, string(data), opts...)
}

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errs.Kalshi(errs.CodeConfig, errs.WithMessage("private key is not PEM encoded"))
	}
	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, errs.Kalshi(errs.CodeConfig, errs.WithMessage(fmt.Sprintf("private key type %T is not RSA", parsed)))
		}
		return key, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, errs.Kalshi(errs.CodeConfig,
			errs.WithMessage("parse rsa private key (tried PKCS#8 and PKCS#1)"),
			errs.WithCause(err))
	}
	return key, nil
}

// KeyID returns the API key identifier.
func (s *Signer) KeyID() string { return s.keyID }

// PublicKey returns the public half of the signing key.
func (s *Signer) PublicKey() *rsa.PublicKey { return &s.key.PublicKey }

// SigningMessage builds timestamp + METHOD + path, dropping any query string.
func SigningMessage(timestampMS, method, path string) string {
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	return timestampMS + strings.ToUpper(method) + path
}

// Sign returns the base64 RSA-PSS/SHA-256 signature over SigningMessage. Two calls with the same
// input produce different, equally valid signatures.
func (s *Signer) Sign(timestampMS, method, path string) (string, error) {
	digest := sha256.Sum256([]byte(SigningMessage(timestampMS, method, path)))
	sig, err := rsa.SignPSS(s.rand, s.key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		return "", errs.Kalshi(errs.CodeAuth, errs.WithMessage("sign request"), errs.WithCause(err))
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Headers signs method and path at the current time.
func (s *Signer) Headers(method, path string) (SignedHeaders, error) {
	ts := strconv.FormatInt(s.now().UnixMilli(), 10)
	sig, err := s.Sign(ts, method, path)
	if err != nil {
		return SignedHeaders{}, err
	}
	return SignedHeaders{Key: s.keyID, TimestampMS: ts, Signature: sig}, nil
}

// Verify checks a base64 signature against the signer's public key.
func Verify(pub *rsa.PublicKey, timestampMS, method, path, signature string) error {
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	digest := sha256.Sum256([]byte(SigningMessage(timestampMS, method, path)))
	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], raw, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
}
