package identity

import (
	"errors"
	"strings"
	"testing"
)

func TestHMACSignVerifyRoundTrip(t *testing.T) {
	v := NewHMACVerifier("test-secret")

	want := Identity{Subject: "sub-dana", Email: "dana@example.com", Name: "Dana"}
	token := v.Sign(want)

	got, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != want {
		t.Errorf("identity = %+v, want %+v", got, want)
	}
}

func TestHMACRejectsWrongSecret(t *testing.T) {
	token := NewHMACVerifier("secret-a").Sign(Identity{Subject: "sub-dana"})

	if _, err := NewHMACVerifier("secret-b").Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestHMACRejectsTamperedPayload(t *testing.T) {
	v := NewHMACVerifier("test-secret")
	token := v.Sign(Identity{Subject: "sub-dana", Email: "dana@example.com", Name: "Dana"})

	other := v.Sign(Identity{Subject: "sub-mallory", Email: "m@example.com", Name: "Mallory"})
	forged := strings.Split(other, ".")[0] + "." + strings.Split(token, ".")[1]

	if _, err := v.Verify(forged); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestHMACRejectsMalformedTokens(t *testing.T) {
	v := NewHMACVerifier("test-secret")

	for _, token := range []string{"", "nodot", "bad base64!.sig", "cGF5bG9hZA.bad sig!"} {
		if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) err = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestHMACRejectsEmptySubject(t *testing.T) {
	v := NewHMACVerifier("test-secret")
	token := v.Sign(Identity{Subject: "", Email: "dana@example.com", Name: "Dana"})

	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestStaticVerifier(t *testing.T) {
	v := StaticVerifier{"tok-1": {Subject: "sub-dana"}}

	got, err := v.Verify("tok-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Subject != "sub-dana" {
		t.Errorf("subject = %q, want sub-dana", got.Subject)
	}

	if _, err := v.Verify("tok-2"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
