package auth

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/evcraddock/rentshed/internal/db"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})
	return d
}

func testMemberStore(t *testing.T) *MemberStore {
	t.Helper()
	return NewMemberStore(testDB(t), "admin@example.com")
}

func TestIsAuthorizedAdmin(t *testing.T) {
	s := testMemberStore(t)

	if !s.IsAuthorized("admin@example.com") {
		t.Error("admin should be authorized")
	}
	if !s.IsAuthorized("Admin@Example.COM") {
		t.Error("admin check should be case-insensitive")
	}
}

func TestIsAuthorizedUnknown(t *testing.T) {
	s := testMemberStore(t)

	if s.IsAuthorized("nobody@example.com") {
		t.Error("unknown email should not be authorized")
	}
	if s.IsAuthorized("") {
		t.Error("empty email should not be authorized")
	}
}

func TestAddAndIsAuthorized(t *testing.T) {
	s := testMemberStore(t)

	m, err := s.Add(" Bob@Example.com ", "Bob", "mapo")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if m.Email != "bob@example.com" {
		t.Errorf("email = %q", m.Email)
	}
	if m.Name != "Bob" || m.Location != "mapo" {
		t.Errorf("member = %+v", m)
	}
	if m.ID == "" {
		t.Error("expected generated ID")
	}

	if !s.IsAuthorized("bob@example.com") {
		t.Error("added member should be authorized")
	}
}

func TestAddDuplicate(t *testing.T) {
	s := testMemberStore(t)

	if _, err := s.Add("bob@example.com", "Bob", ""); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := s.Add("BOB@example.com", "Bob again", "")
	if !errors.Is(err, ErrMemberExists) {
		t.Errorf("err = %v, want ErrMemberExists", err)
	}
}

func TestAddEmptyEmail(t *testing.T) {
	s := testMemberStore(t)

	if _, err := s.Add("  ", "Nobody", ""); err == nil {
		t.Fatal("expected error for empty email")
	}
}

func TestListMembers(t *testing.T) {
	s := testMemberStore(t)

	for _, email := range []string{"carol@example.com", "alice@example.com"} {
		if _, err := s.Add(email, "", ""); err != nil {
			t.Fatalf("add %s: %v", email, err)
		}
	}

	members, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("got %d members, want 2", len(members))
	}
	if members[0].Email != "alice@example.com" {
		t.Errorf("first = %q, want alice (sorted)", members[0].Email)
	}
}

func TestDeleteMember(t *testing.T) {
	s := testMemberStore(t)

	if _, err := s.Add("dave@example.com", "Dave", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Delete("dave@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.IsAuthorized("dave@example.com") {
		t.Error("deleted member should not be authorized")
	}
	if err := s.Delete("dave@example.com"); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("second delete err = %v, want ErrMemberNotFound", err)
	}
	if _, err := s.GetByEmail("dave@example.com"); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("get err = %v, want ErrMemberNotFound", err)
	}
}

func TestIsAdmin(t *testing.T) {
	s := testMemberStore(t)

	if !s.IsAdmin("ADMIN@example.com") {
		t.Error("expected admin")
	}
	if s.IsAdmin("bob@example.com") {
		t.Error("bob is not admin")
	}

	noAdmin := NewMemberStore(testDB(t), "")
	if noAdmin.IsAdmin("") {
		t.Error("empty admin email must not match empty input")
	}
}
