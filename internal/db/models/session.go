package models

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SessionStatus string

const (
	SessionStatusFailed    SessionStatus = "FAILED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

type Session struct {
	bun.BaseModel `bun:"table:sessions"`

	ID           uuid.UUID     `bun:",pk"`
	RoomType     string        `bun:",notnull"`
	StagingStyle string        `bun:",notnull"`
	Prompt       string        `bun:",nullzero"`
	TeamID       string        `bun:",nullzero"`
	ProjectID    string        `bun:",nullzero"`
	Status       SessionStatus `bun:",notnull"`
	ErrorCode    string        `bun:",nullzero"`
	ErrorMessage string        `bun:",nullzero"`
	CreatedAt    bun.NullTime  `bun:",nullzero,notnull,default:current_timestamp"`
}
