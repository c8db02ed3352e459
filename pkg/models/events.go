package models

import (
	"time"
)

// EventType represents the type of usage event
type EventType string

const (
	EventTypeQuestionReceived EventType = "question.received"
	EventTypeAnswerDelivered  EventType = "answer.delivered"
	EventTypeAnswerFailed     EventType = "answer.failed"
)

// UsageEvent represents a single bot interaction milestone published
// to the optional analytics topic.
type UsageEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	ChatID      int64     `json:"chat_id"`
	Question    string    `json:"question,omitempty"`
	UsedFiles   []string  `json:"used_files,omitempty"`
	AnswerChars int       `json:"answer_chars,omitempty"`
	Error       string    `json:"error,omitempty"`
}
