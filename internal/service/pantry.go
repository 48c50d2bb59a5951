package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"kitchen_sync/internal/domain"
	"kitchen_sync/internal/repository"
	apperrors "kitchen_sync/pkg/errors"
	"kitchen_sync/pkg/logger"
)

const expirationAlertWindow = 3 * 24 * time.Hour

type PantryService interface {
	GetSnapshot(ctx context.Context, subjectID string) (*domain.PantrySnapshot, error)
	ListExpiringAlerts(ctx context.Context, subjectID string) ([]domain.ExpirationAlert, error)
	ApplyItemUpdate(ctx context.Context, subjectID string, payload domain.ItemUpdatePayload) (*domain.PantryItem, error)
	UpdateQuantity(ctx context.Context, subjectID string, payload domain.QuantityUpdatePayload) (*domain.PantryItem, error)
}

type pantryService struct {
	pantryRepo repository.PantryRepository
	log        logger.Logger
}

func NewPantryService(pantryRepo repository.PantryRepository, log logger.Logger) PantryService {
	return &pantryService{
		pantryRepo: pantryRepo,
		log:        log,
	}
}

func (s *pantryService) GetSnapshot(ctx context.Context, subjectID string) (*domain.PantrySnapshot, error) {
	return s.pantryRepo.GetSnapshot(ctx, subjectID)
}

func (s *pantryService) ListExpiringAlerts(ctx context.Context, subjectID string) ([]domain.ExpirationAlert, error) {
	return s.pantryRepo.ListExpiringItems(ctx, subjectID, expirationAlertWindow)
}

func (s *pantryService) ApplyItemUpdate(ctx context.Context, subjectID string, payload domain.ItemUpdatePayload) (*domain.PantryItem, error) {
	if len(payload.Item) == 0 {
		return nil, fmt.Errorf("%w: item is required", apperrors.ErrBadRequest)
	}

	var item domain.PantryItem
	if err := json.Unmarshal(payload.Item, &item); err != nil {
		return nil, fmt.Errorf("%w: malformed item", apperrors.ErrBadRequest)
	}
	item.SubjectID = subjectID

	switch payload.Action {
	case domain.ItemActionAdd:
		if item.Name == "" {
			return nil, fmt.Errorf("%w: item name is required", apperrors.ErrBadRequest)
		}
		if item.Quantity < 0 {
			return nil, apperrors.ErrInvalidQuantity
		}
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if err := s.pantryRepo.UpsertItem(ctx, &item); err != nil {
			return nil, err
		}
		return &item, nil

	case domain.ItemActionRemove:
		if item.ID == "" {
			return nil, fmt.Errorf("%w: item id is required", apperrors.ErrBadRequest)
		}
		if err := s.pantryRepo.RemoveItem(ctx, subjectID, item.ID); err != nil {
			return nil, err
		}
		return &item, nil

	default:
		return nil, fmt.Errorf("%w: unknown action %q", apperrors.ErrBadRequest, payload.Action)
	}
}

func (s *pantryService) UpdateQuantity(ctx context.Context, subjectID string, payload domain.QuantityUpdatePayload) (*domain.PantryItem, error) {
	if payload.ItemID == "" {
		return nil, fmt.Errorf("%w: itemId is required", apperrors.ErrBadRequest)
	}
	if payload.Quantity < 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	return s.pantryRepo.UpdateQuantity(ctx, subjectID, payload.ItemID, payload.Quantity)
}
