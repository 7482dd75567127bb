package store

import (
	"context"
	"errors"
	"testing"

	"github.com/signgate/signgate/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetMember(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := &model.Member{
		LoginID:        "alice@example.com",
		CredentialHash: "$2a$10$fakehash",
		Name:           "Alice",
		Role:           model.RoleMember,
	}
	if err := s.CreateMember(ctx, m); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	if m.ID == 0 {
		t.Error("expected ID to be populated after insert")
	}
	if m.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be populated after insert")
	}

	got, err := s.GetMemberByLoginID(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetMemberByLoginID: %v", err)
	}
	if got.Name != "Alice" {
		t.Errorf("Name: got %q, want %q", got.Name, "Alice")
	}
	if got.Role != model.RoleMember {
		t.Errorf("Role: got %q, want %q", got.Role, model.RoleMember)
	}
}

func TestCreateMemberDuplicateLoginID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &model.Member{LoginID: "bob", CredentialHash: "h", Role: model.RoleMember}
	if err := s.CreateMember(ctx, first); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	dup := &model.Member{LoginID: "bob", CredentialHash: "h2", Role: model.RoleMember}
	err := s.CreateMember(ctx, dup)
	if !errors.Is(err, ErrDuplicateLoginID) {
		t.Fatalf("expected ErrDuplicateLoginID, got %v", err)
	}
}

func TestGetMemberNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetMemberByLoginID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListMembersOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"charlie", "alice", "bob"} {
		m := &model.Member{LoginID: id, CredentialHash: "h", Role: model.RoleMember}
		if err := s.CreateMember(ctx, m); err != nil {
			t.Fatalf("CreateMember %q: %v", id, err)
		}
	}

	members, err := s.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	want := []string{"alice", "bob", "charlie"}
	for i, m := range members {
		if m.LoginID != want[i] {
			t.Errorf("member[%d]: got %q, want %q", i, m.LoginID, want[i])
		}
	}

	n, err := s.CountMembers(ctx)
	if err != nil {
		t.Fatalf("CountMembers: %v", err)
	}
	if n != 3 {
		t.Errorf("CountMembers: got %d, want 3", n)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetSetting(ctx, "sync.members"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unset key, got %v", err)
	}

	if err := s.SetSetting(ctx, "sync.members", "false"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	val, err := s.GetSetting(ctx, "sync.members")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if val != "false" {
		t.Errorf("value: got %q, want %q", val, "false")
	}

	// Upsert replaces the value.
	if err := s.SetSetting(ctx, "sync.members", "true"); err != nil {
		t.Fatalf("SetSetting upsert: %v", err)
	}
	all, err := s.ListSettings(ctx)
	if err != nil {
		t.Fatalf("ListSettings: %v", err)
	}
	if all["sync.members"] != "true" {
		t.Errorf("upserted value: got %q, want %q", all["sync.members"], "true")
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("oracle", ""); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
