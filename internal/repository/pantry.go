package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"kitchen_sync/internal/domain"
	apperrors "kitchen_sync/pkg/errors"
	"kitchen_sync/pkg/logger"
)

type PantryRepository interface {
	GetSnapshot(ctx context.Context, subjectID string) (*domain.PantrySnapshot, error)
	UpsertItem(ctx context.Context, item *domain.PantryItem) error
	RemoveItem(ctx context.Context, subjectID, itemID string) error
	UpdateQuantity(ctx context.Context, subjectID, itemID string, quantity float64) (*domain.PantryItem, error)
	ListExpiringItems(ctx context.Context, subjectID string, within time.Duration) ([]domain.ExpirationAlert, error)
}

type pantryRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewPantryRepository(db *pgxpool.Pool, log logger.Logger) PantryRepository {
	return &pantryRepository{db: db, log: log}
}

func (r *pantryRepository) GetSnapshot(ctx context.Context, subjectID string) (*domain.PantrySnapshot, error) {
	query := `
		SELECT id, name, quantity, unit, category, expires_at, updated_at
		FROM pantry_items
		WHERE subject_id = $1
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query, subjectID)
	if err != nil {
		r.log.Error("Failed to load pantry snapshot", "subject_id", subjectID, "error", err)
		return nil, err
	}
	defer rows.Close()

	snapshot := &domain.PantrySnapshot{
		SubjectID: subjectID,
		Items:     []domain.PantryItem{},
		FetchedAt: time.Now(),
	}

	for rows.Next() {
		item := domain.PantryItem{SubjectID: subjectID}
		var unit, category sql.NullString
		var expiresAt sql.NullTime
		err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &unit, &category, &expiresAt, &item.UpdatedAt)
		if err != nil {
			r.log.Error("Failed to scan pantry item", "error", err)
			return nil, err
		}
		if unit.Valid {
			item.Unit = unit.String
		}
		if category.Valid {
			item.Category = category.String
		}
		if expiresAt.Valid {
			item.ExpiresAt = &expiresAt.Time
		}
		snapshot.Items = append(snapshot.Items, item)
	}

	return snapshot, rows.Err()
}

func (r *pantryRepository) UpsertItem(ctx context.Context, item *domain.PantryItem) error {
	query := `
		INSERT INTO pantry_items (id, subject_id, name, quantity, unit, category, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			quantity = EXCLUDED.quantity,
			unit = EXCLUDED.unit,
			category = EXCLUDED.category,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	item.UpdatedAt = time.Now()
	_, err := r.db.Exec(ctx, query,
		item.ID, item.SubjectID, item.Name, item.Quantity,
		item.Unit, item.Category, item.ExpiresAt, item.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to upsert pantry item", "item_id", item.ID, "error", err)
		return err
	}

	return nil
}

func (r *pantryRepository) RemoveItem(ctx context.Context, subjectID, itemID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pantry_items WHERE id = $1 AND subject_id = $2`, itemID, subjectID)
	if err != nil {
		r.log.Error("Failed to remove pantry item", "item_id", itemID, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrItemNotFound
	}

	return nil
}

func (r *pantryRepository) UpdateQuantity(ctx context.Context, subjectID, itemID string, quantity float64) (*domain.PantryItem, error) {
	query := `
		UPDATE pantry_items
		SET quantity = $3, updated_at = NOW()
		WHERE id = $1 AND subject_id = $2
		RETURNING id, name, quantity, COALESCE(unit, ''), COALESCE(category, ''), expires_at, updated_at
	`

	item := &domain.PantryItem{SubjectID: subjectID}
	var expiresAt sql.NullTime
	err := r.db.QueryRow(ctx, query, itemID, subjectID, quantity).Scan(
		&item.ID, &item.Name, &item.Quantity, &item.Unit, &item.Category, &expiresAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrItemNotFound
		}
		r.log.Error("Failed to update quantity", "item_id", itemID, "error", err)
		return nil, err
	}
	if expiresAt.Valid {
		item.ExpiresAt = &expiresAt.Time
	}

	return item, nil
}

func (r *pantryRepository) ListExpiringItems(ctx context.Context, subjectID string, within time.Duration) ([]domain.ExpirationAlert, error) {
	query := `
		SELECT id, name, quantity, COALESCE(unit, ''), COALESCE(category, ''), expires_at, updated_at
		FROM pantry_items
		WHERE subject_id = $1 AND expires_at IS NOT NULL AND expires_at <= $2
		ORDER BY expires_at
	`

	deadline := time.Now().Add(within)
	rows, err := r.db.Query(ctx, query, subjectID, deadline)
	if err != nil {
		r.log.Error("Failed to list expiring items", "subject_id", subjectID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var alerts []domain.ExpirationAlert
	now := time.Now()
	for rows.Next() {
		item := domain.PantryItem{SubjectID: subjectID}
		var expiresAt time.Time
		err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.Unit, &item.Category, &expiresAt, &item.UpdatedAt)
		if err != nil {
			r.log.Error("Failed to scan expiring item", "error", err)
			return nil, err
		}
		item.ExpiresAt = &expiresAt
		alerts = append(alerts, domain.ExpirationAlert{
			Item:      item,
			ExpiresAt: expiresAt,
			DaysLeft:  int(expiresAt.Sub(now).Hours() / 24),
		})
	}

	return alerts, rows.Err()
}
