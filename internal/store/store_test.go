package store_test

import (
	"testing"

	"murmur/internal/domain"
	"murmur/internal/store"
)

func TestIdentity_SaveLoad_OK(t *testing.T) {
	home := t.TempDir()
	pass := "correct horse"

	var ids domain.IdentityStore = store.NewIdentityFileStore(home)

	id := domain.Identity{
		XPub:   domain.X25519Public{1},
		XPriv:  domain.X25519Private{2},
		EdPub:  domain.Ed25519Public{3},
		EdPriv: domain.Ed25519Private{4},
	}
	if err := ids.SaveIdentity(pass, id); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	got, err := ids.LoadIdentity(pass)
	if err != nil {
		t.Fatalf("load identity: %v", err)
	}
	if got != id {
		t.Fatal("mismatch after load")
	}
}

func TestIdentity_WrongPassphrase_Fails(t *testing.T) {
	home := t.TempDir()
	var ids domain.IdentityStore = store.NewIdentityFileStore(home)

	id := domain.Identity{XPub: domain.X25519Public{1}, XPriv: domain.X25519Private{2}}
	if err := ids.SaveIdentity("correct", id); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	if _, err := ids.LoadIdentity("wrong"); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}
}

func openBolt(t *testing.T) *store.BoltStore {
	t.Helper()
	s, err := store.OpenBolt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBolt_SenderKey_SaveLoadDelete(t *testing.T) {
	s := openBolt(t)

	st := domain.SenderKeyState{
		GroupID:    "g1",
		SenderKey:  domain.X25519Public{7},
		ChainKey:   domain.ChainKey{8},
		Index:      5,
		SigningPub: domain.Ed25519Public{9},
	}
	if err := s.SaveSenderKey(st); err != nil {
		t.Fatalf("SaveSenderKey: %v", err)
	}

	got, ok, err := s.LoadSenderKey("g1", st.SenderKey)
	if err != nil || !ok {
		t.Fatalf("LoadSenderKey: ok=%v err=%v", ok, err)
	}
	if got != st {
		t.Fatal("state mismatch after round trip")
	}

	// Same sender in another group is a distinct record.
	if _, ok, err := s.LoadSenderKey("g2", st.SenderKey); err != nil || ok {
		t.Fatalf("cross-group lookup: ok=%v err=%v", ok, err)
	}

	if err := s.DeleteSenderKey("g1", st.SenderKey); err != nil {
		t.Fatalf("DeleteSenderKey: %v", err)
	}
	if _, ok, _ := s.LoadSenderKey("g1", st.SenderKey); ok {
		t.Fatal("state survived delete")
	}
}

func TestBolt_Groups_RoundTrip(t *testing.T) {
	s := openBolt(t)

	g := domain.Group{
		ID:      "gid",
		Name:    "team",
		Creator: domain.X25519Public{1},
		Members: []domain.X25519Public{{1}, {2}},
	}
	if err := s.SaveGroup(g); err != nil {
		t.Fatalf("SaveGroup: %v", err)
	}
	got, ok, err := s.LoadGroup("gid")
	if err != nil || !ok {
		t.Fatalf("LoadGroup: ok=%v err=%v", ok, err)
	}
	if got.Name != "team" || len(got.Members) != 2 {
		t.Fatalf("group mismatch: %+v", got)
	}

	all, err := s.ListGroups()
	if err != nil || len(all) != 1 {
		t.Fatalf("ListGroups: %d, %v", len(all), err)
	}
}

func TestBolt_Contacts_RoundTrip(t *testing.T) {
	s := openBolt(t)

	c := domain.Contact{Name: "bob", Pub: domain.X25519Public{3}}
	if err := s.SaveContact(c); err != nil {
		t.Fatalf("SaveContact: %v", err)
	}
	got, ok, err := s.LoadContact("bob")
	if err != nil || !ok {
		t.Fatalf("LoadContact: ok=%v err=%v", ok, err)
	}
	if got != c {
		t.Fatal("contact mismatch")
	}
	if _, ok, _ := s.LoadContact("eve"); ok {
		t.Fatal("phantom contact")
	}
}
