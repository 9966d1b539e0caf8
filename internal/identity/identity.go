// Package identity is the seam to the external identity provider. The
// provider is a black box that turns a bearer credential into a stable
// subject id plus profile hints; everything past this package treats the
// subject as opaque.
package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

// Identity is what the provider asserts about a request.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

var ErrInvalidToken = errors.New("invalid identity token")

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Verifier validates a bearer credential and returns the asserted identity.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// HMACVerifier validates tokens of the form
// base64(subject|email|name) + "." + base64(hmac-sha256(payload, secret)),
// minted by the identity provider with a shared secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(token string) (Identity, error) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	want, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(payload))
	if !hmac.Equal(mac.Sum(nil), want) {
		return Identity{}, ErrInvalidToken
	}

	parts := strings.SplitN(string(raw), "|", 3)
	if len(parts) != 3 || parts[0] == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Subject: parts[0], Email: parts[1], Name: parts[2]}, nil
}

// Sign mints a token the verifier accepts. Used by tests and by the agent
// when it shares the server's secret.
func (v *HMACVerifier) Sign(id Identity) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(id.Subject + "|" + id.Email + "|" + id.Name))
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(payload))
	return payload + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// StaticVerifier maps fixed tokens to identities. Test double.
type StaticVerifier map[string]Identity

func (v StaticVerifier) Verify(token string) (Identity, error) {
	id, ok := v[token]
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}
