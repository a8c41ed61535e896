package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Error kinds. Every error returned by a service wraps exactly one of these.
var (
	ErrValidation         = errors.New("validation error")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrTransientStore     = errors.New("transient store error")
	ErrInvariantViolation = errors.New("invariant violation")
)

// Stable rejection codes surfaced to clients
const (
	CodeInvalidCart            = "invalid_cart"
	CodeInvalidPaymentMethod   = "invalid_payment_method"
	CodeCustomerNameRequired   = "customer_name_required"
	CodeInvalidFinalTotal      = "invalid_final_total"
	CodeInvalidDownPayment     = "invalid_down_payment"
	CodeInsufficientStock      = "insufficient_stock"
	CodeLockTimeout            = "lock_timeout"
	CodeSKUNotFound            = "sku_not_found"
	CodeSKUDisabled            = "sku_disabled"
	CodeDuplicateSKU           = "duplicate_sku"
	CodeOrderNotFound          = "order_not_found"
	CodeItemNotFound           = "item_not_found"
	CodeEmptyStatusSet         = "empty_status_set"
	CodeUnknownStatus          = "unknown_status"
	CodeStatusNotActive        = "status_not_active"
	CodeCannotRemoveLastStatus = "cannot_remove_last_status"
	CodeNotLayaway             = "not_layaway"
	CodeBalanceAlreadySettled  = "balance_already_settled"
	CodeInvalidQuantity        = "invalid_quantity"
	CodeStoreUnavailable       = "store_unavailable"
	CodeConcurrentModification = "concurrent_modification"
	CodeEmptyActiveSet         = "empty_active_set"
	CodeInvalidLimit           = "invalid_limit"
	CodeInternal               = "internal_error"
	CodeRequestCanceled        = "request_canceled"
)

// OpError is a typed business result. It unwraps to its kind so callers branch with errors.Is.
type OpError struct {
	Kind   error
	Code   string
	SKU    string
	Detail string
	Err    error
}

func (e *OpError) Error() string {
	msg := e.Code
	if e.Detail != "" {
		msg = e.Detail
	}
	if e.SKU != "" {
		msg = fmt.Sprintf("%s (sku %s)", msg, e.SKU)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OpError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newValidationError(code, detail string) *OpError {
	return &OpError{Kind: ErrValidation, Code: code, Detail: detail}
}

func newNotFoundError(code, detail string) *OpError {
	return &OpError{Kind: ErrNotFound, Code: code, Detail: detail}
}

func newInsufficientStockError(sku string, available, requested int) *OpError {
	return &OpError{
		Kind:   ErrInsufficientStock,
		Code:   CodeInsufficientStock,
		SKU:    sku,
		Detail: fmt.Sprintf("insufficient stock: available %d, requested %d", available, requested),
	}
}

func newInvariantViolation(code, detail string) *OpError {
	return &OpError{Kind: ErrInvariantViolation, Code: code, Detail: detail}
}

// AsOpError extracts the typed error, if any
func AsOpError(err error) (*OpError, bool) {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr, true
	}
	return nil, false
}

// isLockContention reports store errors that mean "another transaction holds the row":
// Postgres serialization failure, deadlock, lock_timeout, and the MySQL equivalents.
func isLockContention(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1205, 1213:
			return true
		}
	}
	return false
}

// isConnectionFailure reports errors that mean the store itself could not be reached
func isConnectionFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// classifyStoreError maps an untyped store error into the taxonomy.
// Already typed errors pass through unchanged.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsOpError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &OpError{Kind: ErrNotFound, Code: "not_found", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &OpError{Kind: ErrConflict, Code: CodeConcurrentModification, Err: err}
	case isLockContention(err), errors.Is(err, context.DeadlineExceeded):
		return &OpError{Kind: ErrTransientStore, Code: CodeLockTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &OpError{Kind: ErrTransientStore, Code: CodeRequestCanceled, Err: err}
	case isConnectionFailure(err):
		return &OpError{Kind: ErrTransientStore, Code: CodeStoreUnavailable, Err: err}
	}
	// anything else is a bug in a query or the schema, retrying will not help
	return &OpError{Kind: ErrInvariantViolation, Code: CodeInternal, Err: err}
}
