package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseCreated  = "expense.created"
	EventTypeExpenseApproved = "expense.approved"
	EventTypeExpenseRejected = "expense.rejected"
	EventTypeExpenseDeleted  = "expense.deleted"
	EventTypePaymentCreated  = "payment.created"
	EventTypePaymentAccepted = "payment.accepted"
	EventTypePaymentRejected = "payment.rejected"
	EventTypeMemberAdded     = "member.added"
	EventTypeMemberRemoved   = "member.removed"
)

// AllTypes lists every event type the ledger emits.
var AllTypes = []string{
	EventTypeExpenseCreated,
	EventTypeExpenseApproved,
	EventTypeExpenseRejected,
	EventTypeExpenseDeleted,
	EventTypePaymentCreated,
	EventTypePaymentAccepted,
	EventTypePaymentRejected,
	EventTypeMemberAdded,
	EventTypeMemberRemoved,
}

// DeltaPayload is a balance delta rendered for event consumers.
type DeltaPayload struct {
	MemberID int64  `json:"member_id"`
	Sum      string `json:"sum"`
	Sign     string `json:"sign"`
}

func newBase(eventType string, householdID int64, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		HouseholdID: householdID,
		Timestamp:   time.Now().UTC(),
		Data:        data,
	}
}

type ExpenseCreatedEvent struct {
	BaseEvent
	ExpenseID int64  `json:"expense_id"`
	CreatedBy int64  `json:"created_by"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
}

func NewExpenseCreatedEvent(householdID, expenseID, createdBy int64, amount, status string) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		BaseEvent: newBase(EventTypeExpenseCreated, householdID, map[string]interface{}{
			"expense_id": expenseID,
			"created_by": createdBy,
			"amount":     amount,
			"status":     status,
		}),
		ExpenseID: expenseID,
		CreatedBy: createdBy,
		Amount:    amount,
		Status:    status,
	}
}

type ExpenseApprovedEvent struct {
	BaseEvent
	ExpenseID int64          `json:"expense_id"`
	Amount    string         `json:"amount"`
	Deltas    []DeltaPayload `json:"deltas"`
}

func NewExpenseApprovedEvent(householdID, expenseID int64, amount string, deltas []DeltaPayload) *ExpenseApprovedEvent {
	return &ExpenseApprovedEvent{
		BaseEvent: newBase(EventTypeExpenseApproved, householdID, map[string]interface{}{
			"expense_id": expenseID,
			"amount":     amount,
			"deltas":     deltas,
		}),
		ExpenseID: expenseID,
		Amount:    amount,
		Deltas:    deltas,
	}
}

type ExpenseRejectedEvent struct {
	BaseEvent
	ExpenseID  int64  `json:"expense_id"`
	RejectedBy int64  `json:"rejected_by"`
	Reason     string `json:"reason"`
}

func NewExpenseRejectedEvent(householdID, expenseID, rejectedBy int64, reason string) *ExpenseRejectedEvent {
	return &ExpenseRejectedEvent{
		BaseEvent: newBase(EventTypeExpenseRejected, householdID, map[string]interface{}{
			"expense_id":  expenseID,
			"rejected_by": rejectedBy,
			"reason":      reason,
		}),
		ExpenseID:  expenseID,
		RejectedBy: rejectedBy,
		Reason:     reason,
	}
}

type ExpenseDeletedEvent struct {
	BaseEvent
	ExpenseID int64 `json:"expense_id"`
	DeletedBy int64 `json:"deleted_by"`
}

func NewExpenseDeletedEvent(householdID, expenseID, deletedBy int64) *ExpenseDeletedEvent {
	return &ExpenseDeletedEvent{
		BaseEvent: newBase(EventTypeExpenseDeleted, householdID, map[string]interface{}{
			"expense_id": expenseID,
			"deleted_by": deletedBy,
		}),
		ExpenseID: expenseID,
		DeletedBy: deletedBy,
	}
}

// PaymentEvent covers every payment transition; Type tells them apart.
type PaymentEvent struct {
	BaseEvent
	PaymentID int64  `json:"payment_id"`
	PayerID   int64  `json:"payer_id"`
	PayeeID   int64  `json:"payee_id"`
	Amount    string `json:"amount"`
}

func NewPaymentEvent(eventType string, householdID, paymentID, payerID, payeeID int64, amount string) *PaymentEvent {
	return &PaymentEvent{
		BaseEvent: newBase(eventType, householdID, map[string]interface{}{
			"payment_id": paymentID,
			"payer_id":   payerID,
			"payee_id":   payeeID,
			"amount":     amount,
		}),
		PaymentID: paymentID,
		PayerID:   payerID,
		PayeeID:   payeeID,
		Amount:    amount,
	}
}

type MemberEvent struct {
	BaseEvent
	UserID  int64 `json:"user_id"`
	ActorID int64 `json:"actor_id"`
}

func NewMemberEvent(eventType string, householdID, userID, actorID int64) *MemberEvent {
	return &MemberEvent{
		BaseEvent: newBase(eventType, householdID, map[string]interface{}{
			"user_id":  userID,
			"actor_id": actorID,
		}),
		UserID:  userID,
		ActorID: actorID,
	}
}
