package auth

import (
	"bytes"
	"testing"

	"github.com/go-webauthn/webauthn/webauthn"
)

func testCredential(id byte) *webauthn.Credential {
	return &webauthn.Credential{
		ID:        []byte{id, 0xbe, 0xef},
		PublicKey: []byte("public-key"),
	}
}

func TestPasskeySaveAndList(t *testing.T) {
	s := NewPasskeyStore(testDB(t))

	if err := s.Save("Bob@Example.com", "laptop", testCredential(1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save("bob@example.com", "phone", testCredential(2)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save("carol@example.com", "laptop", testCredential(3)); err != nil {
		t.Fatalf("save: %v", err)
	}

	keys, err := s.List("bob@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d passkeys, want 2", len(keys))
	}
	if keys[0].ID != "01beef" || keys[0].Name != "laptop" {
		t.Errorf("first passkey = %+v", keys[0])
	}
	if !bytes.Equal(keys[1].Credential.PublicKey, []byte("public-key")) {
		t.Error("credential should round-trip through storage")
	}
	if keys[0].LastUsedAt != nil {
		t.Error("new passkey should not have been used")
	}

	user, err := s.User("bob@example.com")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if len(user.WebAuthnCredentials()) != 2 {
		t.Errorf("user has %d credentials", len(user.WebAuthnCredentials()))
	}
}

func TestPasskeyDuplicateCredential(t *testing.T) {
	s := NewPasskeyStore(testDB(t))
	if err := s.Save("bob@example.com", "laptop", testCredential(1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save("bob@example.com", "again", testCredential(1)); err == nil {
		t.Error("expected error saving the same credential twice")
	}
}

func TestPasskeyUserHandle(t *testing.T) {
	u := NewMemberPasskeyUser("Bob@Example.com", nil)
	if !bytes.Equal(u.WebAuthnID(), UserHandle("bob@example.com")) {
		t.Error("user handle should ignore email case")
	}
	if bytes.Equal(UserHandle("bob@example.com"), UserHandle("carol@example.com")) {
		t.Error("different members must get different handles")
	}
	if len(u.WebAuthnID()) != 32 {
		t.Errorf("handle length = %d, want 32", len(u.WebAuthnID()))
	}
	if u.WebAuthnName() != "bob@example.com" || u.WebAuthnDisplayName() != "bob@example.com" {
		t.Errorf("names = %q, %q", u.WebAuthnName(), u.WebAuthnDisplayName())
	}
}

func TestPasskeyEmailForHandle(t *testing.T) {
	s := NewPasskeyStore(testDB(t))
	if err := s.Save("bob@example.com", "laptop", testCredential(1)); err != nil {
		t.Fatalf("save: %v", err)
	}

	email, err := s.EmailForHandle(UserHandle("bob@example.com"))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if email != "bob@example.com" {
		t.Errorf("email = %q", email)
	}

	email, err = s.EmailForHandle(UserHandle("nobody@example.com"))
	if err != nil || email != "" {
		t.Errorf("unknown handle = %q, %v", email, err)
	}
}

func TestPasskeyMarkUsed(t *testing.T) {
	s := NewPasskeyStore(testDB(t))
	cred := testCredential(1)
	if err := s.Save("bob@example.com", "laptop", cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	cred.Authenticator.SignCount = 7
	if err := s.MarkUsed(cred); err != nil {
		t.Fatalf("mark used: %v", err)
	}

	keys, err := s.List("bob@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if keys[0].LastUsedAt == nil {
		t.Error("expected last_used_at to be set")
	}
	if keys[0].Credential.Authenticator.SignCount != 7 {
		t.Errorf("sign count = %d, want 7", keys[0].Credential.Authenticator.SignCount)
	}
}

func TestPasskeyDelete(t *testing.T) {
	s := NewPasskeyStore(testDB(t))
	if err := s.Save("bob@example.com", "laptop", testCredential(1)); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := s.Delete("01beef", "carol@example.com"); err == nil {
		t.Error("another member should not delete bob's passkey")
	}
	if err := s.Delete("01beef", "bob@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete("01beef", "bob@example.com"); err == nil {
		t.Error("expected error deleting twice")
	}

	keys, err := s.List("bob@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("got %d passkeys after delete", len(keys))
	}
}
