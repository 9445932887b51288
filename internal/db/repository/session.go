package repository

import (
	"context"
	"fmt"

	"github.com/homestage-ai/staging-client/internal/db/models"
	"github.com/uptrace/bun"
)

type ISessionRepository interface {
	Repository[models.Session]
	ListRecent(ctx context.Context, limit int) ([]models.Session, error)
}

type SessionRepository struct {
	db *bun.DB
}

func NewSessionRepository(db *bun.DB) ISessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	if session == nil {
		return nil, fmt.Errorf("session model is nil")
	}

	if _, err := r.db.NewInsert().Model(session).Exec(ctx); err != nil {
		return nil, err
	}

	return session, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := r.db.NewSelect().Model(&session).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *SessionRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model(&models.Session{}).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *SessionRepository) ListRecent(ctx context.Context, limit int) ([]models.Session, error) {
	var sessions []models.Session
	if err := r.db.NewSelect().
		Model(&sessions).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, err
	}

	return sessions, nil
}
