package repository

import (
	"context"
	"fmt"

	"github.com/homestage-ai/staging-client/internal/db/models"
	"github.com/uptrace/bun"
)

type IStagedImageRepository interface {
	Repository[models.StagedImage]
	ListBySessionID(ctx context.Context, sessionID string) ([]models.StagedImage, error)
	GetByStagedID(ctx context.Context, stagedID string) (*models.StagedImage, error)
}

type StagedImageRepository struct {
	db *bun.DB
}

func NewStagedImageRepository(db *bun.DB) IStagedImageRepository {
	return &StagedImageRepository{db: db}
}

func (r *StagedImageRepository) Create(ctx context.Context, image *models.StagedImage) (*models.StagedImage, error) {
	if image == nil {
		return nil, fmt.Errorf("staged image model is nil")
	}

	if _, err := r.db.NewInsert().Model(image).Exec(ctx); err != nil {
		return nil, err
	}

	return image, nil
}

func (r *StagedImageRepository) GetByID(ctx context.Context, id string) (*models.StagedImage, error) {
	var image models.StagedImage
	if err := r.db.NewSelect().Model(&image).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}

	return &image, nil
}

func (r *StagedImageRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model(&models.StagedImage{}).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *StagedImageRepository) ListBySessionID(ctx context.Context, sessionID string) ([]models.StagedImage, error) {
	var images []models.StagedImage
	if err := r.db.NewSelect().
		Model(&images).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Scan(ctx); err != nil {
		return nil, err
	}

	return images, nil
}

func (r *StagedImageRepository) GetByStagedID(ctx context.Context, stagedID string) (*models.StagedImage, error) {
	var image models.StagedImage
	if err := r.db.NewSelect().Model(&image).Where("staged_id = ?", stagedID).Scan(ctx); err != nil {
		return nil, err
	}

	return &image, nil
}
