package types

import (
	"time"
)

type User struct {
	Id       int64     `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen,omitempty"`
}

type Chat struct {
	Id           int64     `json:"id"`
	Kind         string    `json:"type"`
	Name         string    `json:"name,omitempty"`
	Participants []int64   `json:"participants"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Attachment struct {
	Kind     string  `json:"type"`
	Data     string  `json:"data"`
	Name     string  `json:"name,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

type Message struct {
	Id            int64              `json:"id"`
	ChatId        int64              `json:"chatId"`
	SenderId      int64              `json:"senderId"`
	Text          string             `json:"text"`
	Attachment    *Attachment        `json:"attachment"`
	ReplyTo       int64              `json:"replyTo,omitempty"`
	ForwardedFrom int64              `json:"forwardedFrom,omitempty"`
	ScheduledFor  *time.Time         `json:"scheduledFor,omitempty"`
	Status        string             `json:"status"`
	Pinned        bool               `json:"pinned,omitempty"`
	Reactions     map[string][]int64 `json:"reactions,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
}

// UserSession is the register/login/me response envelope. Token mirrors
// the session cookie for clients that prefer a bearer header.
type UserSession struct {
	User  User   `json:"user"`
	Token string `json:"token,omitempty"`
}

type Ack struct {
	Success bool `json:"success"`
}
