package model

import (
	"fmt"
	"time"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
	FriendshipDeclined FriendshipStatus = "DECLINED"
)

// Terminal reports whether no further transition is allowed from s.
func (s FriendshipStatus) Terminal() bool {
	return s == FriendshipAccepted || s == FriendshipDeclined
}

type Friendship struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RequesterID uint             `gorm:"not null;index" json:"requesterId"`
	ReceiverID  uint             `gorm:"not null;index" json:"receiverId"`
	Status      FriendshipStatus `gorm:"size:16;not null;default:PENDING;index" json:"status"`
	PairKey     string           `gorm:"size:64;not null;uniqueIndex" json:"-"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`

	Requester *User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Receiver  *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

// Other returns the participant that is not userID.
func (f *Friendship) Other(userID uint) *User {
	if f.RequesterID == userID {
		return f.Receiver
	}
	return f.Requester
}

// FriendSummary is an accepted friendship resolved to the other participant.
type FriendSummary struct {
	UserSummary
	FriendshipID uint `json:"friendshipId"`
}

// PairKey is the order-normalized identity of an unordered user pair.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
