package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourplaces/api/internal/domain/entity"
	"github.com/yourplaces/api/internal/domain/repository"
)

type PlaceRepository struct {
	q Querier
}

func NewPlaceRepository(pool *pgxpool.Pool) *PlaceRepository {
	return &PlaceRepository{q: pool}
}

func (r *PlaceRepository) Create(ctx context.Context, p *entity.Place) error {
	row := r.q.QueryRow(ctx, `
		INSERT INTO places (title, description, address, lat, lng, image_url, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, p.Title, p.Description, p.Address, p.Lat, p.Lng, p.ImageURL, p.CreatorID)

	return row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*entity.Place, error) {
	p := &entity.Place{}
	row := r.q.QueryRow(ctx, `
		SELECT id, title, description, address, lat, lng, image_url, creator_id, created_at, updated_at
		FROM places
		WHERE id = $1
	`, id)

	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Address, &p.Lat, &p.Lng,
		&p.ImageURL, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PlaceRepository) ListByCreator(ctx context.Context, creatorID string) ([]*entity.Place, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, title, description, address, lat, lng, image_url, creator_id, created_at, updated_at
		FROM places
		WHERE creator_id = $1
		ORDER BY created_at
	`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	places := make([]*entity.Place, 0)
	for rows.Next() {
		p := &entity.Place{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Address, &p.Lat, &p.Lng,
			&p.ImageURL, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// Update persists title and description only; the remaining columns are
// immutable after creation.
func (r *PlaceRepository) Update(ctx context.Context, p *entity.Place) error {
	p.UpdatedAt = time.Now()

	res, err := r.q.Exec(ctx, `
		UPDATE places
		SET title = $1, description = $2, updated_at = $3
		WHERE id = $4
	`, p.Title, p.Description, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.PlaceRepository = (*PlaceRepository)(nil)
