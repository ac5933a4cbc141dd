package model

import "time"

// User is a Telegram account that has talked to the bot. Its chat is one
// storage origin and the target of periodic reports.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex;not null"`
	ChatID     int64
	FirstName  string `gorm:"size:255"`
	LastName   string `gorm:"size:255"`
	Username   string `gorm:"size:255"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReportChatID is the chat reports go to. Private chats share the user's
// id, so it stands in for a chat that was never recorded.
func (u User) ReportChatID() int64 {
	if u.ChatID != 0 {
		return u.ChatID
	}
	return u.TelegramID
}
