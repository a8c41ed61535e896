package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-pos-orders/internal/metrics"
	"go-pos-orders/internal/model"
	"go-pos-orders/internal/repository"
	"go-pos-orders/pkg/validator"

	"gorm.io/gorm"
)

// InventoryLedger is the part of the inventory used inside a sale's unit of work.
// Both methods must be given the caller's transaction.
type InventoryLedger interface {
	// Reserve decrements stock by exactly qty or fails without mutating anything
	Reserve(tx *gorm.DB, code string, qty int, actor Actor) (*model.InventoryRecord, error)
	// Release puts qty back, used when a sale is reversed
	Release(tx *gorm.DB, code string, qty int, actor Actor) (*model.InventoryRecord, error)
}

type InventoryService interface {
	InventoryLedger
	CreateRecord(ctx context.Context, req *model.InventoryRecord, actor Actor) error
	GetAllRecords(ctx context.Context) ([]model.InventoryRecord, error)
	GetRecord(ctx context.Context, code string) (*model.InventoryRecord, error)
	Restock(ctx context.Context, code string, qty int, actor Actor) (*model.InventoryRecord, error)
	SetDisabled(ctx context.Context, code string, disabled bool, actor Actor) (*model.InventoryRecord, error)
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	db            *gorm.DB
	effects       sideEffects
}

func NewInventoryService(iRepo repository.InventoryRepository, db *gorm.DB, hub EventPublisher, m *metrics.Metrics) InventoryService {
	return &inventoryService{
		inventoryRepo: iRepo,
		db:            db,
		effects:       sideEffects{hub: hub, metrics: m},
	}
}

func (s *inventoryService) Reserve(tx *gorm.DB, code string, qty int, actor Actor) (*model.InventoryRecord, error) {
	if qty <= 0 {
		return nil, &OpError{Kind: ErrValidation, Code: CodeInvalidQuantity, SKU: code, Detail: "quantity must be positive"}
	}

	affected, err := s.inventoryRepo.DecrementIfAvailable(tx, code, qty, actor.ID)
	if err != nil {
		return nil, err
	}

	// Re-read inside tx: on success this is the post-decrement row, on failure it tells why
	record, err := s.inventoryRepo.FindByCodeTx(tx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &OpError{Kind: ErrNotFound, Code: CodeSKUNotFound, SKU: code, Detail: "sku not found"}
		}
		return nil, err
	}
	if affected > 0 {
		return record, nil
	}
	if record.Disabled {
		return nil, &OpError{Kind: ErrInsufficientStock, Code: CodeSKUDisabled, SKU: code, Detail: "sku is disabled"}
	}
	return nil, newInsufficientStockError(code, record.Stock, qty)
}

func (s *inventoryService) Release(tx *gorm.DB, code string, qty int, actor Actor) (*model.InventoryRecord, error) {
	if qty <= 0 {
		return nil, &OpError{Kind: ErrValidation, Code: CodeInvalidQuantity, SKU: code, Detail: "quantity must be positive"}
	}
	affected, err := s.inventoryRepo.Increment(tx, code, qty, actor.ID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &OpError{Kind: ErrNotFound, Code: CodeSKUNotFound, SKU: code, Detail: "sku not found"}
	}
	return s.inventoryRepo.FindByCodeTx(tx, code)
}

func (s *inventoryService) CreateRecord(ctx context.Context, req *model.InventoryRecord, actor Actor) error {
	req.Code = strings.TrimSpace(req.Code)
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return newValidationError("invalid_inventory_record", errs[0].Error())
	}

	existing, err := s.inventoryRepo.FindByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return classifyStoreError(err)
	}
	if existing != nil {
		return &OpError{Kind: ErrConflict, Code: CodeDuplicateSKU, SKU: req.Code, Detail: "sku already exists"}
	}

	req.CreatedBy = actor.ID
	req.UpdatedBy = actor.ID

	defer s.effects.metrics.TrackDBOperation("inventory_create")(time.Now())
	if err := s.inventoryRepo.Create(ctx, req); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &OpError{Kind: ErrConflict, Code: CodeDuplicateSKU, SKU: req.Code, Detail: "sku or barcode already exists", Err: err}
		}
		return classifyStoreError(err)
	}

	s.effects.stockChanged(req, "sku_created", actor)
	return nil
}

func (s *inventoryService) GetAllRecords(ctx context.Context) ([]model.InventoryRecord, error) {
	records, err := s.inventoryRepo.FindAll(ctx)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return records, nil
}

func (s *inventoryService) GetRecord(ctx context.Context, code string) (*model.InventoryRecord, error) {
	record, err := s.inventoryRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &OpError{Kind: ErrNotFound, Code: CodeSKUNotFound, SKU: code, Detail: "sku not found"}
		}
		return nil, classifyStoreError(err)
	}
	return record, nil
}

func (s *inventoryService) Restock(ctx context.Context, code string, qty int, actor Actor) (*model.InventoryRecord, error) {
	var updated *model.InventoryRecord

	defer s.effects.metrics.TrackDBOperation("inventory_restock")(time.Now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.Release(tx, code, qty, actor)
		if err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, classifyStoreError(err)
	}

	s.effects.stockChanged(updated, "sku_restocked", actor)
	return updated, nil
}

func (s *inventoryService) SetDisabled(ctx context.Context, code string, disabled bool, actor Actor) (*model.InventoryRecord, error) {
	record, err := s.GetRecord(ctx, code)
	if err != nil {
		return nil, err
	}
	// MySQL reports zero affected rows for an unchanged flag, so existence is checked above
	if _, err := s.inventoryRepo.SetDisabled(ctx, code, disabled, actor.ID); err != nil {
		return nil, classifyStoreError(err)
	}
	record.Disabled = disabled
	record.UpdatedBy = actor.ID

	action := "sku_enabled"
	if disabled {
		action = "sku_disabled"
	}
	s.effects.stockChanged(record, action, actor)
	return record, nil
}
