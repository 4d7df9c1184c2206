package model

import "time"

const MaxMessageLength = 4000

type Message struct {
	ID        uint      `gorm:"primaryKey"`
	ChatID    uint      `gorm:"not null;index:idx_messages_chat_created,priority:1"`
	AuthorID  uint      `gorm:"not null;index"`
	Author    User      `gorm:"foreignKey:AuthorID"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_messages_chat_created,priority:2"`
}

// MessageView is a message expanded with its author summary.
type MessageView struct {
	ID        uint        `json:"id"`
	ChatID    uint        `json:"chatId"`
	AuthorID  uint        `json:"authorId"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
	Author    UserSummary `json:"author"`
}

func (m *Message) View() MessageView {
	return MessageView{
		ID:        m.ID,
		ChatID:    m.ChatID,
		AuthorID:  m.AuthorID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Author:    m.Author.Summary(),
	}
}

func MessageViews(messages []Message) []MessageView {
	out := make([]MessageView, 0, len(messages))
	for i := range messages {
		out = append(out, messages[i].View())
	}
	return out
}
