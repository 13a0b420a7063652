// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/auth"
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
	keyErr  error
)

// RSAKey returns a process-wide 2048-bit test key.
func RSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		testKey, keyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if keyErr != nil {
		t.Fatalf("generate rsa key: %v", keyErr)
	}
	return testKey
}

// PKCS8PEM encodes the test key as a PKCS#8 PEM block.
func PKCS8PEM(t testing.TB) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(RSAKey(t))
	if err != nil {
		t.Fatalf("marshal pkcs8: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

// PKCS1PEM encodes the test key as a PKCS#1 PEM block.
func PKCS1PEM(t testing.TB) string {
	t.Helper()
	der := x509.MarshalPKCS1PrivateKey(RSAKey(t))
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}))
}

// Signer returns a signer over the test key.
func Signer(t testing.TB, opts ...auth.Option) *auth.Signer {
	t.Helper()
	signer, err := auth.NewSigner("test-key-id", RSAKey(t), opts...)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return signer
}
