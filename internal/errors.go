package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidArgument   ErrorCode = "INVALID_ARGUMENT"
	ErrCodeInvalidPercentage ErrorCode = "INVALID_PERCENTAGE"
	ErrCodeAmountMismatch    ErrorCode = "AMOUNT_MISMATCH"
	ErrCodeSplitMismatch     ErrorCode = "SPLIT_MISMATCH"

	ErrCodeExpenseNotFound     ErrorCode = "EXPENSE_NOT_FOUND"
	ErrCodeApprovalNotFound    ErrorCode = "APPROVAL_NOT_FOUND"
	ErrCodeAlreadyDecided      ErrorCode = "ALREADY_DECIDED"
	ErrCodeEntryFinalized      ErrorCode = "ENTRY_FINALIZED"
	ErrCodeCannotModifyExpense ErrorCode = "CANNOT_MODIFY_EXPENSE"
	ErrCodeConcurrentUpdate    ErrorCode = "CONCURRENT_UPDATE"

	ErrCodeHouseholdNotFound  ErrorCode = "HOUSEHOLD_NOT_FOUND"
	ErrCodeMemberNotFound     ErrorCode = "MEMBER_NOT_FOUND"
	ErrCodeMemberExists       ErrorCode = "MEMBER_EXISTS"
	ErrCodeOutstandingBalance ErrorCode = "OUTSTANDING_BALANCE"
	ErrCodeOpenExpenses       ErrorCode = "OPEN_EXPENSES"
	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"

	ErrCodePaymentNotFound     ErrorCode = "PAYMENT_NOT_FOUND"
	ErrCodePaymentFinalized    ErrorCode = "PAYMENT_FINALIZED"
	ErrCodeInvalidDirection    ErrorCode = "INVALID_DIRECTION"
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeUnbalancedDelta     ErrorCode = "UNBALANCED_DELTA"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeEmailTaken         ErrorCode = "EMAIL_TAKEN"

	ErrCodeUnknownCategory ErrorCode = "UNKNOWN_CATEGORY"
	ErrCodeCategoryExists  ErrorCode = "CATEGORY_EXISTS"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy carrying cause; the shared sentinel values are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Is matches any AppError carrying the same code, so copies made by WithCause and
// WithDetails still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	// split and expense input reconciliation
	ErrInvalidArgument   = NewValidationError("invalid argument", ErrCodeInvalidArgument)
	ErrInvalidPercentage = NewValidationError("percentages must sum to exactly 100", ErrCodeInvalidPercentage)
	ErrAmountMismatch    = NewValidationError("split amounts do not add up to the total", ErrCodeAmountMismatch)
	ErrSplitMismatch     = NewValidationError("paid and owed shares do not add up to the same amount", ErrCodeSplitMismatch)

	// approval state machine
	ErrExpenseNotFound     = NewNotFoundError("expense not found", ErrCodeExpenseNotFound)
	ErrApprovalNotFound    = NewNotFoundError("member is not a participant of this expense", ErrCodeApprovalNotFound)
	ErrAlreadyDecided      = NewConflictError("member has already decided on this expense", ErrCodeAlreadyDecided)
	ErrEntryFinalized      = NewConflictError("expense is already finalized", ErrCodeEntryFinalized)
	ErrCannotModifyExpense = NewConflictError("cannot modify expense in current status", ErrCodeCannotModifyExpense)
	ErrConcurrentUpdate    = NewConflictError("record was modified concurrently, reload and retry", ErrCodeConcurrentUpdate)

	// households
	ErrHouseholdNotFound  = NewNotFoundError("household not found", ErrCodeHouseholdNotFound)
	ErrMemberNotFound     = NewNotFoundError("user is not a member of this household", ErrCodeMemberNotFound)
	ErrMemberExists       = NewConflictError("user is already a member of this household", ErrCodeMemberExists)
	ErrOutstandingBalance = NewConflictError("member still has an outstanding balance", ErrCodeOutstandingBalance)
	ErrOpenExpenses       = NewConflictError("member still takes part in expenses awaiting approval", ErrCodeOpenExpenses)
	ErrUnauthorizedAccess = NewForbiddenError("unauthorized access", ErrCodeUnauthorizedAccess)

	// payments and balance sheet
	ErrPaymentNotFound     = NewNotFoundError("payment not found", ErrCodePaymentNotFound)
	ErrPaymentFinalized    = NewConflictError("payment is already decided", ErrCodePaymentFinalized)
	ErrInvalidDirection    = NewConflictError("payer must owe and payee must be owed", ErrCodeInvalidDirection)
	ErrInsufficientBalance = NewConflictError("payment exceeds the outstanding balance", ErrCodeInsufficientBalance)
	ErrUnbalancedDelta     = &AppError{Type: ErrorTypeInternal, Code: ErrCodeUnbalancedDelta, Message: "balance deltas do not sum to zero", StatusCode: http.StatusInternalServerError}

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrUserNotFound       = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrEmailTaken         = NewConflictError("email is already registered", ErrCodeEmailTaken)

	ErrUnknownCategory = NewValidationError("category is not in the catalog", ErrCodeUnknownCategory)
	ErrCategoryExists  = NewConflictError("category already exists", ErrCodeCategoryExists)
)

// IsAppError unwraps err until it finds an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
