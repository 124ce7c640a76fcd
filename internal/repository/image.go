package repository

import (
	"context"

	"propadmin/internal/apperr"
	"propadmin/internal/logger"
	"propadmin/internal/models"

	"go.uber.org/zap"
)

type ImageRepository struct {
	db Querier
}

func NewImageRepository(db Querier) *ImageRepository {
	return &ImageRepository{db: db}
}

// Ping проверяет, что таблица изображений доступна, до начала загрузки пачки.
func (r *ImageRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRow(ctx, `SELECT 1 FROM images LIMIT 1`).Scan(&one); err != nil && !isNoRows(err) {
		logger.Log.Error("База изображений недоступна (repo)", zap.Error(err))
		return apperr.Storage("ping images", err)
	}
	return nil
}

// Insert пишет одну запись. Каждая строка коммитится отдельно.
func (r *ImageRepository) Insert(ctx context.Context, img *models.Image) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO images (property_id, url, last_updated) VALUES ($1, $2, $3) RETURNING id`,
		img.PropertyID, img.URL, img.LastUpdated,
	).Scan(&img.ID)
	if err != nil {
		logger.Log.Error("Ошибка записи изображения (repo)",
			zap.Int64("property_id", img.PropertyID), zap.String("url", img.URL), zap.Error(err))
		return apperr.Storage("insert image", err)
	}
	return nil
}

func (r *ImageRepository) ListByProperty(ctx context.Context, propertyID int64) ([]models.Image, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, property_id, url, last_updated FROM images WHERE property_id = $1 ORDER BY id`, propertyID)
	if err != nil {
		return nil, apperr.Storage("list images", err)
	}
	defer rows.Close()

	var out []models.Image
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.PropertyID, &img.URL, &img.LastUpdated); err != nil {
			return nil, apperr.Storage("scan image", err)
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list images", err)
	}
	return out, nil
}
