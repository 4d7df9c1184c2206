package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	if PairKey(3, 11) != PairKey(11, 3) {
		t.Fatal("pair key must not depend on argument order")
	}
	if got := PairKey(11, 3); got != "3:11" {
		t.Errorf("PairKey = %q, want 3:11", got)
	}
}

func TestUserJSONOmitsPasswordHash(t *testing.T) {
	u := User{ID: 1, Username: "alice", Email: "a@x.com", PasswordHash: "$2a$10$secret"}
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") || strings.Contains(string(data), "password") {
		t.Errorf("user JSON leaks the password hash: %s", data)
	}
}

func TestFriendshipOther(t *testing.T) {
	alice := &User{ID: 1, Username: "alice"}
	bob := &User{ID: 2, Username: "bob"}
	f := Friendship{RequesterID: 1, ReceiverID: 2, Requester: alice, Receiver: bob}

	if f.Other(1) != bob {
		t.Error("Other(requester) should be the receiver")
	}
	if f.Other(2) != alice {
		t.Error("Other(receiver) should be the requester")
	}
}

func TestValidationErrorUnwraps(t *testing.T) {
	err := NewValidationError(map[string]string{"b": "required", "a": "required"})
	if !errors.Is(err, ErrValidation) {
		t.Fatal("validation error should unwrap to ErrValidation")
	}
	if got := err.Error(); got != "validation failed: a: required, b: required" {
		t.Errorf("Error() = %q", got)
	}
}

func TestChatViewNeverReturnsNilMessages(t *testing.T) {
	c := Chat{ID: 4, Participants: []User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}}
	v := c.View(nil)
	if v.Messages == nil {
		t.Fatal("Messages should be an empty slice")
	}
	if len(v.Participants) != 2 || v.Participants[1].Username != "bob" {
		t.Errorf("Participants = %+v", v.Participants)
	}
}
