package model

import "time"

type Chat struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PairKey      string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	Participants []User    `gorm:"many2many:chat_participants;" json:"participants"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
}

// HasParticipant reports whether userID is one of the chat's loaded participants.
func (c *Chat) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// ChatView is what the API returns for a chat: participants and messages
// reduced to public summaries.
type ChatView struct {
	ID           uint          `json:"id"`
	Participants []UserSummary `json:"participants"`
	Messages     []MessageView `json:"messages"`
	CreatedAt    time.Time     `json:"createdAt"`
}

func (c *Chat) View(messages []MessageView) ChatView {
	v := ChatView{
		ID:           c.ID,
		Participants: make([]UserSummary, 0, len(c.Participants)),
		Messages:     messages,
		CreatedAt:    c.CreatedAt,
	}
	for i := range c.Participants {
		v.Participants = append(v.Participants, c.Participants[i].Summary())
	}
	if v.Messages == nil {
		v.Messages = []MessageView{}
	}
	return v
}
