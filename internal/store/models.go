package store

import "time"

const (
	ChatPrivate = "private"
	ChatGroup   = "group"
	ChatChannel = "channel"
)

const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusSeen      = "seen"
)

type User struct {
	Id           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar"`
	Online       bool      `json:"online"`
	LastSeen     time.Time `json:"lastSeen,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Chat struct {
	Id           int64     `json:"id"`
	Kind         string    `json:"type"`
	Name         string    `json:"name,omitempty"`
	Participants []int64   `json:"participants"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasParticipant reports whether userId is a member of the chat.
func (c Chat) HasParticipant(userId int64) bool {
	for _, id := range c.Participants {
		if id == userId {
			return true
		}
	}
	return false
}

type Attachment struct {
	Kind     string  `json:"type"`
	Data     string  `json:"data"`
	Name     string  `json:"name,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

type Message struct {
	Id            int64             `json:"id"`
	ChatId        int64             `json:"chatId"`
	SenderId      int64             `json:"senderId"`
	Text          string            `json:"text"`
	Attachment    *Attachment       `json:"attachment"`
	ReplyTo       int64             `json:"replyTo,omitempty"`
	ForwardedFrom int64             `json:"forwardedFrom,omitempty"`
	ScheduledFor  *time.Time        `json:"scheduledFor,omitempty"`
	Status        string            `json:"status"`
	Pinned        bool              `json:"pinned,omitempty"`
	Reactions     map[string][]int64 `json:"reactions,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// MarkSeen advances the delivery status to seen. Transitions are
// monotonic: once seen, the status never regresses.
func (m *Message) MarkSeen() bool {
	if m.Status == StatusSeen {
		return false
	}
	m.Status = StatusSeen
	return true
}

// ToggleReaction adds userId to the reaction set for emoji, or removes it
// if already present. Empty sets are dropped so the map stays minimal.
func (m *Message) ToggleReaction(emoji string, userId int64) {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]int64)
	}

	for i, id := range m.Reactions[emoji] {
		if id == userId {
			set := append(m.Reactions[emoji][:i], m.Reactions[emoji][i+1:]...)
			if len(set) == 0 {
				delete(m.Reactions, emoji)
			} else {
				m.Reactions[emoji] = set
			}
			return
		}
	}

	m.Reactions[emoji] = append(m.Reactions[emoji], userId)
}
