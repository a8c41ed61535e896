package service

import (
	"context"

	"go-pos-orders/internal/model"
	"go-pos-orders/internal/repository"

	"github.com/google/uuid"
)

const maxOrderListLimit = 500

type OrderQueryService interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error)
	GetReport(ctx context.Context) (*repository.OrderReport, error)
}

type orderQueryService struct {
	orderRepo repository.OrderRepository
}

func NewOrderQueryService(oRepo repository.OrderRepository) OrderQueryService {
	return &orderQueryService{orderRepo: oRepo}
}

func (s *orderQueryService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, classifyStoreError(orderLookupError(err))
	}
	return order, nil
}

func (s *orderQueryService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, newValidationError(CodeUnknownStatus, "unknown status "+string(filter.Status))
	}
	if filter.Limit < 0 {
		return nil, newValidationError(CodeInvalidLimit, "limit cannot be negative")
	}
	if filter.Limit == 0 || filter.Limit > maxOrderListLimit {
		filter.Limit = maxOrderListLimit
	}
	orders, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return orders, nil
}

func (s *orderQueryService) GetReport(ctx context.Context) (*repository.OrderReport, error) {
	report, err := s.orderRepo.GetReport(ctx)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return report, nil
}
