package expense_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/balance"
	"github.com/frahmantamala/household-ledger/internal/core/events"
	"github.com/frahmantamala/household-ledger/internal/core/money"
	"github.com/frahmantamala/household-ledger/internal/expense"
)

// Mock repository for testing
type mockExpenseRepository struct {
	expenses    map[int64]*expense.Expense
	nextID      int64
	createError error
	updateError error
}

func newMockExpenseRepository() *mockExpenseRepository {
	return &mockExpenseRepository{
		expenses: make(map[int64]*expense.Expense),
		nextID:   1,
	}
}

func clone(e *expense.Expense) *expense.Expense {
	c := *e
	c.Approvals = append([]expense.Approval{}, e.Approvals...)
	return &c
}

func (m *mockExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	if m.createError != nil {
		return m.createError
	}
	e.ID = m.nextID
	e.Version = 1
	m.nextID++
	m.expenses[e.ID] = clone(e)
	return nil
}

func (m *mockExpenseRepository) GetByID(ctx context.Context, id int64) (*expense.Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, internal.ErrExpenseNotFound
	}
	return clone(e), nil
}

func (m *mockExpenseRepository) GetForUpdate(ctx context.Context, id int64) (*expense.Expense, error) {
	return m.GetByID(ctx, id)
}

func (m *mockExpenseRepository) Update(ctx context.Context, e *expense.Expense) error {
	if m.updateError != nil {
		return m.updateError
	}
	stored, ok := m.expenses[e.ID]
	if !ok {
		return internal.ErrExpenseNotFound
	}
	if stored.Version != e.Version {
		return fmt.Errorf("%w: expense %d", internal.ErrConcurrentUpdate, e.ID)
	}
	e.Version++
	m.expenses[e.ID] = clone(e)
	return nil
}

func (m *mockExpenseRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.expenses[id]; !ok {
		return internal.ErrExpenseNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *mockExpenseRepository) ListByHousehold(ctx context.Context, householdID int64, filter expense.ListFilter) ([]*expense.Expense, error) {
	out := []*expense.Expense{}
	for id := int64(1); id < m.nextID; id++ {
		e, ok := m.expenses[id]
		if !ok || e.HouseholdID != householdID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, clone(e))
	}
	return out, nil
}

type mockMembers struct {
	members map[int64]bool
	admins  map[int64]bool
}

func (m *mockMembers) RequireMembers(ctx context.Context, householdID int64, userIDs ...int64) error {
	for _, id := range userIDs {
		if !m.members[id] {
			return fmt.Errorf("%w: user %d", internal.ErrMemberNotFound, id)
		}
	}
	return nil
}

func (m *mockMembers) IsMember(ctx context.Context, householdID, userID int64) (bool, error) {
	return m.members[userID], nil
}

func (m *mockMembers) IsAdmin(ctx context.Context, householdID, userID int64) (bool, error) {
	return m.admins[userID], nil
}

type mockBalances struct {
	applied [][]balance.Delta
	err     error
}

func (m *mockBalances) ApplyDelta(ctx context.Context, householdID int64, deltas []balance.Delta) error {
	if m.err != nil {
		return m.err
	}
	m.applied = append(m.applied, deltas)
	return nil
}

// inlineTransactor runs fn directly; rollback is the mocks' concern.
type inlineTransactor struct{}

func (inlineTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type catalog map[string]bool

func (c catalog) Validate(ctx context.Context, name string) error {
	if !c[name] {
		return fmt.Errorf("%w: %s", internal.ErrUnknownCategory, name)
	}
	return nil
}

func dinnerDTO() expense.CreateExpenseDTO {
	return expense.CreateExpenseDTO{
		Amount:      money.MustParse("30.00"),
		Category:    " Food ",
		Description: "dinner",
		Paid:        expense.SideDTO{Method: "single", Members: []int64{alice}},
		Owed:        expense.SideDTO{Method: "equal", Members: []int64{alice, bob, carol}},
	}
}

var _ = Describe("ExpenseService", func() {
	var (
		expenseService *expense.Service
		mockRepo       *mockExpenseRepository
		members        *mockMembers
		balances       *mockBalances
		publisher      *recordingPublisher
		ctx            context.Context
		householdID    int64
	)

	BeforeEach(func() {
		mockRepo = newMockExpenseRepository()
		members = &mockMembers{
			members: map[int64]bool{alice: true, bob: true, carol: true},
			admins:  map[int64]bool{alice: true},
		}
		balances = &mockBalances{}
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		expenseService = expense.NewService(mockRepo, members, balances, inlineTransactor{}, publisher, logger)
		ctx = context.Background()
		householdID = 10
	})

	Describe("CreateExpense", func() {
		It("stores a pending expense without touching balances", func() {
			// When
			result, err := expenseService.CreateExpense(ctx, householdID, alice, dinnerDTO())

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.ID).To(BeNumerically(">", 0))
			Expect(result.Status).To(Equal(expense.StatusPendingApproval))
			Expect(result.Category).To(Equal("food"))
			Expect(balances.applied).To(BeEmpty())
			Expect(publisher.types()).To(Equal([]string{events.EventTypeExpenseCreated}))
		})

		It("applies a creator-only expense at once", func() {
			// Given
			dto := dinnerDTO()
			dto.Owed = expense.SideDTO{Method: "equal", Members: []int64{alice}}

			// When
			result, err := expenseService.CreateExpense(ctx, householdID, alice, dto)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Status).To(Equal(expense.StatusApproved))
			Expect(balances.applied).To(HaveLen(1))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeExpenseCreated, events.EventTypeExpenseApproved}))
		})

		It("rejects participants outside the household", func() {
			dto := dinnerDTO()
			dto.Owed.Members = []int64{alice, dave}

			_, err := expenseService.CreateExpense(ctx, householdID, alice, dto)

			Expect(errors.Is(err, internal.ErrMemberNotFound)).To(BeTrue())
			Expect(mockRepo.expenses).To(BeEmpty())
		})

		It("checks the category against the catalog when one is set", func() {
			// Given
			expenseService.WithCategories(catalog{"food": true})
			dto := dinnerDTO()
			dto.Category = "yachts"

			// When
			_, err := expenseService.CreateExpense(ctx, householdID, alice, dto)

			// Then
			Expect(errors.Is(err, internal.ErrUnknownCategory)).To(BeTrue())
			Expect(mockRepo.expenses).To(BeEmpty())

			_, err = expenseService.CreateExpense(ctx, householdID, alice, dinnerDTO())
			Expect(err).ToNot(HaveOccurred())
		})

		It("returns a validation error for a missing description", func() {
			dto := dinnerDTO()
			dto.Description = "   "

			_, err := expenseService.CreateExpense(ctx, householdID, alice, dto)

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("returns a validation error for an amount past the supported range", func() {
			dto := dinnerDTO()
			dto.Amount = money.FromCents(money.MaxCents + 1)

			_, err := expenseService.CreateExpense(ctx, householdID, alice, dto)

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
			Expect(mockRepo.expenses).To(BeEmpty())
		})

		It("returns a validation error for an unknown method", func() {
			dto := dinnerDTO()
			dto.Owed.Method = "lottery"

			_, err := expenseService.CreateExpense(ctx, householdID, alice, dto)

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("returns the repository error", func() {
			mockRepo.createError = errors.New("database unavailable")

			_, err := expenseService.CreateExpense(ctx, householdID, alice, dinnerDTO())

			Expect(err).To(MatchError("database unavailable"))
			Expect(publisher.events).To(BeEmpty())
		})
	})

	Describe("ApproveExpense", func() {
		var id int64

		BeforeEach(func() {
			e, err := expenseService.CreateExpense(ctx, householdID, alice, dinnerDTO())
			Expect(err).NotTo(HaveOccurred())
			id = e.ID
			publisher.events = nil
		})

		It("applies the deltas on the final approval only", func() {
			// When
			e, err := expenseService.ApproveExpense(ctx, id, bob)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(expense.StatusPendingApproval))
			Expect(balances.applied).To(BeEmpty())

			e, err = expenseService.ApproveExpense(ctx, id, carol)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(expense.StatusApproved))
			Expect(balances.applied).To(Equal([][]balance.Delta{{
				{MemberID: alice, Sum: 2000, Sign: money.SignPositive},
				{MemberID: bob, Sum: 1000, Sign: money.SignNegative},
				{MemberID: carol, Sum: 1000, Sign: money.SignNegative},
			}}))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeExpenseApproved}))
		})

		It("applies the deltas once when the last member approves twice", func() {
			_, err := expenseService.ApproveExpense(ctx, id, bob)
			Expect(err).NotTo(HaveOccurred())
			_, err = expenseService.ApproveExpense(ctx, id, carol)
			Expect(err).NotTo(HaveOccurred())

			_, err = expenseService.ApproveExpense(ctx, id, carol)

			Expect(errors.Is(err, internal.ErrAlreadyDecided)).To(BeTrue())
			Expect(balances.applied).To(HaveLen(1))
		})

		It("ignores votes from someone who left the household", func() {
			// Given
			_, err := expenseService.ApproveExpense(ctx, id, carol)
			Expect(err).NotTo(HaveOccurred())
			members.members[bob] = false

			// When
			_, approveErr := expenseService.ApproveExpense(ctx, id, bob)
			_, rejectErr := expenseService.RejectExpense(ctx, id, bob, expense.RejectExpenseDTO{Reason: "gone"})

			// Then
			Expect(errors.Is(approveErr, internal.ErrUnauthorizedAccess)).To(BeTrue())
			Expect(errors.Is(rejectErr, internal.ErrUnauthorizedAccess)).To(BeTrue())
			Expect(balances.applied).To(BeEmpty())
			e, err := expenseService.GetExpense(ctx, id, alice)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(expense.StatusPendingApproval))
		})

		It("returns the balance error and publishes nothing", func() {
			_, err := expenseService.ApproveExpense(ctx, id, bob)
			Expect(err).NotTo(HaveOccurred())
			balances.err = internal.ErrUnbalancedDelta

			_, err = expenseService.ApproveExpense(ctx, id, carol)

			Expect(errors.Is(err, internal.ErrUnbalancedDelta)).To(BeTrue())
			Expect(publisher.events).To(BeEmpty())
		})

		It("returns not found for an unknown expense", func() {
			_, err := expenseService.ApproveExpense(ctx, 999, bob)
			Expect(errors.Is(err, internal.ErrExpenseNotFound)).To(BeTrue())
		})

		It("surfaces a concurrent update", func() {
			mockRepo.updateError = internal.ErrConcurrentUpdate

			_, err := expenseService.ApproveExpense(ctx, id, bob)
			Expect(errors.Is(err, internal.ErrConcurrentUpdate)).To(BeTrue())
		})
	})

	Describe("RejectExpense", func() {
		It("vetoes the expense and leaves balances alone", func() {
			// Given
			e, err := expenseService.CreateExpense(ctx, householdID, alice, dinnerDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = expenseService.ApproveExpense(ctx, e.ID, bob)
			Expect(err).NotTo(HaveOccurred())

			// When
			rejected, err := expenseService.RejectExpense(ctx, e.ID, carol, expense.RejectExpenseDTO{Reason: "not mine"})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(expense.StatusRejected))
			Expect(balances.applied).To(BeEmpty())
			Expect(publisher.types()).To(ContainElement(events.EventTypeExpenseRejected))
		})

		It("requires a reason", func() {
			_, err := expenseService.RejectExpense(ctx, 1, carol, expense.RejectExpenseDTO{Reason: " "})

			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("EditExpense and DeleteExpense", func() {
		var id int64

		BeforeEach(func() {
			e, err := expenseService.CreateExpense(ctx, householdID, alice, dinnerDTO())
			Expect(err).NotTo(HaveOccurred())
			id = e.ID
		})

		It("lets only the creator edit", func() {
			_, err := expenseService.EditExpense(ctx, id, bob, dinnerDTO())
			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())

			dto := dinnerDTO()
			dto.Amount = money.MustParse("36.00")
			e, err := expenseService.EditExpense(ctx, id, alice, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Amount).To(Equal(money.MustParse("36.00")))
			Expect(e.Version).To(Equal(int64(2)))
		})

		It("deletes a rejected expense for an admin", func() {
			_, err := expenseService.RejectExpense(ctx, id, bob, expense.RejectExpenseDTO{Reason: "no"})
			Expect(err).NotTo(HaveOccurred())

			err = expenseService.DeleteExpense(ctx, id, carol)
			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())

			Expect(expenseService.DeleteExpense(ctx, id, alice)).To(Succeed())
			Expect(mockRepo.expenses).To(BeEmpty())
		})

		It("refuses to delete a pending expense", func() {
			err := expenseService.DeleteExpense(ctx, id, alice)
			Expect(errors.Is(err, internal.ErrCannotModifyExpense)).To(BeTrue())
		})
	})

	Describe("GetExpense", func() {
		It("hides expenses from outsiders", func() {
			e, err := expenseService.CreateExpense(ctx, householdID, alice, dinnerDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = expenseService.GetExpense(ctx, e.ID, dave)
			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())

			got, err := expenseService.GetExpense(ctx, e.ID, bob)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Description).To(Equal("dinner"))
		})
	})
})
