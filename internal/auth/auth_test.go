package auth

import "testing"

func TestDefaultUserHasNoPasswords(t *testing.T) {
	tbl := NewTable()
	if !tbl.Exists(DefaultUser) {
		t.Fatalf("expected default user to exist")
	}
	if hashes := tbl.HashesHex(DefaultUser); len(hashes) != 0 {
		t.Fatalf("expected default user to start with no passwords, got %v", hashes)
	}
}

func TestSetUserThenVerify(t *testing.T) {
	tbl := NewTable()
	tbl.SetUser("alice", "hunter2")
	if !tbl.Exists("alice") {
		t.Fatalf("expected alice to exist after SetUser")
	}
	if !tbl.Verify("alice", "hunter2") {
		t.Fatalf("expected correct password to verify")
	}
	if tbl.Verify("alice", "wrong") {
		t.Fatalf("expected wrong password to fail verification")
	}
}

func TestSetUserReplacesPriorCredentials(t *testing.T) {
	tbl := NewTable()
	tbl.SetUser("bob", "first")
	tbl.SetUser("bob", "second")
	if tbl.Verify("bob", "first") {
		t.Fatalf("expected old password to no longer verify")
	}
	if !tbl.Verify("bob", "second") {
		t.Fatalf("expected new password to verify")
	}
}

func TestVerifyUnknownUser(t *testing.T) {
	tbl := NewTable()
	if tbl.Verify("ghost", "anything") {
		t.Fatalf("expected unknown user to fail verification")
	}
}

func TestHashPasswordDeterministic(t *testing.T) {
	a := HashPassword("secret")
	b := HashPassword("secret")
	if a != b {
		t.Fatalf("expected HashPassword to be deterministic")
	}
}
