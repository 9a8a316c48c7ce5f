package models

import "time"

// SessionMode is the router-visible state of a conversation.
type SessionMode string

const (
	ModeIdle    SessionMode = "idle"
	ModeEditing SessionMode = "editing"
)

// ConversationState is the per-chat state carried between messages.
type ConversationState struct {
	SessionID       string       `json:"sessionId"`
	EditingField    string       `json:"editingField,omitempty"`
	EditingIndex    int          `json:"editingIndex"`
	PendingDeals    []DealRecord `json:"pendingDeals,omitempty"`
	ReviewIndex     int          `json:"reviewIndex"`
	ReviewMessageID int64        `json:"reviewMessageId,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// NewConversationState returns an idle state for sessionID.
func NewConversationState(sessionID string, now time.Time) *ConversationState {
	return &ConversationState{SessionID: sessionID, CreatedAt: now, UpdatedAt: now}
}

func (s *ConversationState) Mode() SessionMode {
	if s == nil || s.EditingField == "" {
		return ModeIdle
	}
	return ModeEditing
}

// StartEditing puts the session into editing mode for one field of one pending deal.
func (s *ConversationState) StartEditing(index int, field string) {
	s.EditingIndex = index
	s.EditingField = field
}

func (s *ConversationState) StopEditing() {
	s.EditingField = ""
	s.EditingIndex = 0
}

// HasPending reports whether a free-text review is in progress.
func (s *ConversationState) HasPending() bool {
	return s != nil && len(s.PendingDeals) > 0
}

// Reset discards every in-progress interaction but keeps the session identity.
func (s *ConversationState) Reset() {
	s.StopEditing()
	s.PendingDeals = nil
	s.ReviewIndex = 0
	s.ReviewMessageID = 0
}

func (s *ConversationState) Touch(now time.Time) {
	s.UpdatedAt = now
}

// Expired reports whether the session has been inactive for longer than ttl.
func (s *ConversationState) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) > ttl
}
