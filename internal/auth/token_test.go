package auth

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub:   "usr_1",
		Email: "avery@example.com",
		Name:  "Avery",
		Role:  "client",
		JTI:   "jti-1",
		Exp:   time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	claims, err := ParseToken(secret, issued)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Sub != "usr_1" || claims.Email != "avery@example.com" || claims.Role != "client" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub:  "usr_1",
		Name: "Avery",
		Role: "client",
		JTI:  "jti-1",
		Exp:  time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	_, err = ParseToken(secret, issued)
	if err == nil {
		t.Fatal("expected ParseToken() to fail for expired token")
	}
}

func TestParseTokenRejectsTamperedPayload(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub:  "usr_1",
		Role: "client",
		JTI:  "jti-1",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	forged, err := IssueToken([]byte("other-secret"), Claims{
		Sub:  "usr_1",
		Role: "admin",
		JTI:  "jti-1",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := ParseToken(secret, forged); err == nil {
		t.Fatal("expected ParseToken() to reject token signed with a different secret")
	}
	if _, err := ParseToken(secret, issued); err != nil {
		t.Fatalf("expected original token to remain valid: %v", err)
	}
}

func TestFromTrustedHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/projects", nil)
	r.Header.Set(HeaderIdentityName, `{"id":"usr_1","email":"avery@example.com","name":"Avery","role":"client"}`)
	identity := FromTrustedHeader(r)
	if identity == nil {
		t.Fatal("expected identity")
	}
	if identity.ID != "usr_1" || identity.Role != "client" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestFromTrustedHeaderMalformed(t *testing.T) {
	cases := []string{"", "{", `{"email":"no-id@example.com"}`, "not json"}
	for _, raw := range cases {
		r := httptest.NewRequest("GET", "/api/projects", nil)
		if raw != "" {
			r.Header.Set(HeaderIdentityName, raw)
		}
		if identity := FromTrustedHeader(r); identity != nil {
			t.Fatalf("expected nil identity for %q, got %+v", raw, identity)
		}
	}
}
