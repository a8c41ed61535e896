package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-pos-orders/internal/metrics"
	"go-pos-orders/internal/model"
	"go-pos-orders/internal/notify"
	"go-pos-orders/internal/repository"
	"go-pos-orders/internal/ws"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatusChange describes the active set after a status operation committed
type StatusChange struct {
	OrderID     uuid.UUID           `json:"order_id"`
	Active      []model.OrderStatus `json:"active_statuses"`
	Primary     model.OrderStatus   `json:"primary_status"`
	Activated   []model.OrderStatus `json:"activated,omitempty"`
	Deactivated []model.OrderStatus `json:"deactivated,omitempty"`
}

func (c *StatusChange) activated(status model.OrderStatus) bool {
	for _, s := range c.Activated {
		if s == status {
			return true
		}
	}
	return false
}

type StatusService interface {
	SetActiveStatuses(ctx context.Context, orderID uuid.UUID, statuses []model.OrderStatus, actor Actor, note *string) (*StatusChange, error)
	AddStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus, actor Actor, note *string) (*StatusChange, error)
	RemoveStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus, actor Actor) (*StatusChange, error)
	History(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusRecord, error)
}

// statusEngine holds the in-transaction status logic shared by the status, sale and layaway services
type statusEngine struct {
	orderRepo  repository.OrderRepository
	statusRepo repository.StatusRepository
	metrics    *metrics.Metrics
}

func newStatusEngine(oRepo repository.OrderRepository, sRepo repository.StatusRepository, m *metrics.Metrics) *statusEngine {
	return &statusEngine{orderRepo: oRepo, statusRepo: sRepo, metrics: m}
}

func (e *statusEngine) activate(tx *gorm.DB, orderID uuid.UUID, statuses []model.OrderStatus, actor Actor, note *string) ([]model.OrderStatusRecord, error) {
	records := make([]model.OrderStatusRecord, 0, len(statuses))
	for _, st := range statuses {
		records = append(records, model.OrderStatusRecord{
			OrderID:   orderID,
			Status:    st,
			Active:    true,
			Note:      note,
			CreatedBy: actor.ID,
		})
	}
	if err := e.statusRepo.Insert(tx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (e *statusEngine) deactivate(tx *gorm.DB, records []model.OrderStatusRecord, actor Actor) error {
	ids := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return e.statusRepo.Deactivate(tx, ids, actor.ID, time.Now())
}

// refreshPrimary re-reads the active set and writes the derived primary status.
// An empty set at this point is an invariant violation and aborts tx.
func (e *statusEngine) refreshPrimary(tx *gorm.DB, change *StatusChange, actor Actor) error {
	records, err := e.statusRepo.FindActive(tx, change.OrderID)
	if err != nil {
		return err
	}
	active := make([]model.OrderStatus, 0, len(records))
	for _, r := range records {
		active = append(active, r.Status)
	}
	active = model.NormalizeStatuses(active)
	if len(active) == 0 {
		return newInvariantViolation(CodeEmptyActiveSet,
			fmt.Sprintf("order %s would have no active status", change.OrderID))
	}

	change.Active = active
	change.Primary = model.PrimaryStatus(active)
	return e.orderRepo.UpdatePrimaryStatus(tx, change.OrderID, change.Primary, actor.ID)
}

// replace makes exactly target active: every current record is closed and a fresh row is written per status
func (e *statusEngine) replace(tx *gorm.DB, orderID uuid.UUID, target []model.OrderStatus, actor Actor, note *string) (*StatusChange, error) {
	current, err := e.statusRepo.FindActive(tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := e.deactivate(tx, current, actor); err != nil {
		return nil, err
	}
	if _, err := e.activate(tx, orderID, target, actor, note); err != nil {
		return nil, err
	}

	change := &StatusChange{OrderID: orderID}
	before := statusSet(current)
	after := make(map[model.OrderStatus]bool, len(target))
	for _, st := range target {
		after[st] = true
		if !before[st] {
			change.Activated = append(change.Activated, st)
		}
	}
	for st := range before {
		if !after[st] {
			change.Deactivated = append(change.Deactivated, st)
		}
	}
	change.Deactivated = model.NormalizeStatuses(change.Deactivated)

	if err := e.refreshPrimary(tx, change, actor); err != nil {
		return nil, err
	}
	return change, nil
}

// add activates status unless it is already active, in which case only the primary is refreshed
func (e *statusEngine) add(tx *gorm.DB, orderID uuid.UUID, status model.OrderStatus, actor Actor, note *string) (*StatusChange, error) {
	current, err := e.statusRepo.FindActive(tx, orderID)
	if err != nil {
		return nil, err
	}
	change := &StatusChange{OrderID: orderID}
	if !statusSet(current)[status] {
		if _, err := e.activate(tx, orderID, []model.OrderStatus{status}, actor, note); err != nil {
			return nil, err
		}
		change.Activated = []model.OrderStatus{status}
	}
	if err := e.refreshPrimary(tx, change, actor); err != nil {
		return nil, err
	}
	return change, nil
}

// remove closes every active record of the given statuses. Statuses that are not active are skipped.
// When nothing would remain active, fallback is activated instead; without a fallback the removal
// is rejected.
func (e *statusEngine) remove(tx *gorm.DB, orderID uuid.UUID, statuses []model.OrderStatus, fallback model.OrderStatus, actor Actor) (*StatusChange, error) {
	current, err := e.statusRepo.FindActive(tx, orderID)
	if err != nil {
		return nil, err
	}

	drop := make(map[model.OrderStatus]bool, len(statuses))
	for _, st := range statuses {
		drop[st] = true
	}
	var closing []model.OrderStatusRecord
	remaining := make(map[model.OrderStatus]bool)
	for _, r := range current {
		if drop[r.Status] {
			closing = append(closing, r)
		} else {
			remaining[r.Status] = true
		}
	}

	change := &StatusChange{OrderID: orderID}
	if len(remaining) == 0 && len(closing) > 0 {
		if fallback == "" {
			return nil, newValidationError(CodeCannotRemoveLastStatus, "could not remove last status")
		}
		if _, err := e.activate(tx, orderID, []model.OrderStatus{fallback}, actor, nil); err != nil {
			return nil, err
		}
		change.Activated = []model.OrderStatus{fallback}
	}
	if err := e.deactivate(tx, closing, actor); err != nil {
		return nil, err
	}
	for st := range statusSet(closing) {
		change.Deactivated = append(change.Deactivated, st)
	}
	change.Deactivated = model.NormalizeStatuses(change.Deactivated)

	if err := e.refreshPrimary(tx, change, actor); err != nil {
		return nil, err
	}
	return change, nil
}

func (e *statusEngine) record(change *StatusChange) {
	for _, st := range change.Activated {
		e.metrics.RecordStatusTransition(string(st), "activated")
	}
	for _, st := range change.Deactivated {
		e.metrics.RecordStatusTransition(string(st), "deactivated")
	}
}

func statusSet(records []model.OrderStatusRecord) map[model.OrderStatus]bool {
	set := make(map[model.OrderStatus]bool, len(records))
	for _, r := range records {
		set[r.Status] = true
	}
	return set
}

func validateStatuses(statuses []model.OrderStatus) ([]model.OrderStatus, error) {
	if len(statuses) == 0 {
		return nil, newValidationError(CodeEmptyStatusSet, "an order needs at least one active status")
	}
	for _, st := range statuses {
		if !st.IsValid() {
			return nil, newValidationError(CodeUnknownStatus, fmt.Sprintf("unknown status %q", st))
		}
	}
	return model.NormalizeStatuses(statuses), nil
}

type statusService struct {
	orderRepo  repository.OrderRepository
	statusRepo repository.StatusRepository
	engine     *statusEngine
	db         *gorm.DB
	effects    sideEffects
	log        *zap.Logger
}

func NewStatusService(oRepo repository.OrderRepository, sRepo repository.StatusRepository, db *gorm.DB, hub EventPublisher, notifier Notifier, m *metrics.Metrics, log *zap.Logger) StatusService {
	return &statusService{
		orderRepo:  oRepo,
		statusRepo: sRepo,
		engine:     newStatusEngine(oRepo, sRepo, m),
		db:         db,
		effects:    sideEffects{hub: hub, notifier: notifier, metrics: m},
		log:        log.Named("status"),
	}
}

func (s *statusService) SetActiveStatuses(ctx context.Context, orderID uuid.UUID, statuses []model.OrderStatus, actor Actor, note *string) (*StatusChange, error) {
	target, err := validateStatuses(statuses)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, orderID, actor, "statuses_set", func(tx *gorm.DB) (*StatusChange, error) {
		return s.engine.replace(tx, orderID, target, actor, note)
	})
}

func (s *statusService) AddStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus, actor Actor, note *string) (*StatusChange, error) {
	if !status.IsValid() {
		return nil, newValidationError(CodeUnknownStatus, fmt.Sprintf("unknown status %q", status))
	}
	return s.mutate(ctx, orderID, actor, "status_added", func(tx *gorm.DB) (*StatusChange, error) {
		return s.engine.add(tx, orderID, status, actor, note)
	})
}

func (s *statusService) RemoveStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus, actor Actor) (*StatusChange, error) {
	if !status.IsValid() {
		return nil, newValidationError(CodeUnknownStatus, fmt.Sprintf("unknown status %q", status))
	}
	return s.mutate(ctx, orderID, actor, "status_removed", func(tx *gorm.DB) (*StatusChange, error) {
		change, err := s.engine.remove(tx, orderID, []model.OrderStatus{status}, "", actor)
		if err != nil {
			return nil, err
		}
		if len(change.Deactivated) == 0 {
			return nil, newValidationError(CodeStatusNotActive, fmt.Sprintf("status %s is not active", status))
		}
		return change, nil
	})
}

func (s *statusService) History(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusRecord, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, orderLookupError(err)
	}
	records, err := s.statusRepo.History(ctx, orderID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return records, nil
}

// mutate runs fn in one transaction with the order row locked, then emits side effects after commit
func (s *statusService) mutate(ctx context.Context, orderID uuid.UUID, actor Actor, action string, fn func(tx *gorm.DB) (*StatusChange, error)) (*StatusChange, error) {
	var (
		change *StatusChange
		order  *model.Order
	)

	defer s.effects.metrics.TrackDBOperation("order_status")(time.Now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.LockByID(tx, orderID)
		if err != nil {
			return orderLookupError(err)
		}
		change, err = fn(tx)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvariantViolation) {
			s.log.Error("status invariant violated", zap.String("order_id", orderID.String()), zap.Error(err))
		}
		return nil, classifyStoreError(err)
	}

	s.engine.record(change)
	s.effects.publish(ws.Event{
		Type:    EventOrderUpdate,
		Action:  action,
		Data:    change,
		Actor:   actor.label(),
		Message: fmt.Sprintf("%s changed order %s to %s", actor.label(), orderID, joinStatuses(change.Active)),
	})
	if change.activated(model.StatusReadyForPickup) {
		s.effects.notify(notify.Message{
			OrderID: orderID.String(),
			Kind:    "ready_for_pickup",
			To:      customerPhone(order),
			Body:    fmt.Sprintf("Hola %s, tu pedido %s está listo para recoger.", customerName(order), shortID(orderID)),
		})
	}
	return change, nil
}

func orderLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &OpError{Kind: ErrNotFound, Code: CodeOrderNotFound, Detail: "order not found", Err: err}
	}
	return err
}

func joinStatuses(statuses []model.OrderStatus) string {
	parts := make([]string, 0, len(statuses))
	for _, st := range statuses {
		parts = append(parts, string(st))
	}
	return strings.Join(parts, ", ")
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
