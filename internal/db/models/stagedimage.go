package models

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type StagedImage struct {
	bun.BaseModel `bun:"table:staged_images"`

	ID        uuid.UUID    `bun:",pk"`
	SessionID uuid.UUID    `bun:",notnull"`
	StagedID  string       `bun:",notnull"`
	Url       string       `bun:",notnull"`
	LocalPath string       `bun:",nullzero"`
	IsDemo    bool         `bun:",notnull,default:false"`
	CreatedAt bun.NullTime `bun:",nullzero,notnull,default:current_timestamp"`
}
