package models

import (
	"strconv"
	"strings"
	"time"
)

// Update is the inbound webhook envelope (Telegram Bot API shape).
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	EditedMessage *Message       `json:"edited_message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

type Message struct {
	MessageID      int64    `json:"message_id"`
	Date           int64    `json:"date"`
	Text           string   `json:"text,omitempty"`
	Chat           Chat     `json:"chat"`
	From           *User    `json:"from,omitempty"`
	ReplyToMessage *Message `json:"reply_to_message,omitempty"`
}

// Time returns the message timestamp.
func (m *Message) Time() time.Time {
	return time.Unix(m.Date, 0)
}

// Command returns the bot command ("/start" -> "start"), ignoring any @botname suffix.
func (m *Message) Command() (string, bool) {
	text := strings.TrimSpace(m.Text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.Fields(text)[0][1:]
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), cmd != ""
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// IsCallback reports whether the update is a button press.
func (u *Update) IsCallback() bool {
	return u.CallbackQuery != nil
}

// ChatID returns the conversation the update belongs to, or 0 when none can be determined.
func (u *Update) ChatID() int64 {
	switch {
	case u.Message != nil:
		return u.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return u.CallbackQuery.Message.Chat.ID
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From.ID
	case u.EditedMessage != nil:
		return u.EditedMessage.Chat.ID
	}
	return 0
}

// SessionID keys conversation state by chat.
func (u *Update) SessionID() string {
	return strconv.FormatInt(u.ChatID(), 10)
}

// Kind labels the update for logs and metrics.
func (u *Update) Kind() string {
	switch {
	case u.CallbackQuery != nil:
		return "callback"
	case u.Message != nil:
		return "message"
	case u.EditedMessage != nil:
		return "edited_message"
	}
	return "other"
}
