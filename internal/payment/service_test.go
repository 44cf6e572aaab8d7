package payment_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/balance"
	"github.com/frahmantamala/household-ledger/internal/core/events"
	"github.com/frahmantamala/household-ledger/internal/core/money"
	"github.com/frahmantamala/household-ledger/internal/payment"
)

func TestPayment(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Payment Suite")
}

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3
)

type mockPaymentRepository struct {
	payments map[int64]*payment.Payment
	nextID   int64
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{payments: make(map[int64]*payment.Payment), nextID: 1}
}

func (m *mockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	p.ID = m.nextID
	p.Version = 1
	m.nextID++
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepository) GetByID(ctx context.Context, id int64) (*payment.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, internal.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepository) GetForUpdate(ctx context.Context, id int64) (*payment.Payment, error) {
	return m.GetByID(ctx, id)
}

func (m *mockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	if m.payments[p.ID].Version != p.Version {
		return internal.ErrConcurrentUpdate
	}
	p.Version++
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepository) ListByHousehold(ctx context.Context, householdID int64, filter payment.ListFilter) ([]*payment.Payment, error) {
	out := []*payment.Payment{}
	for id := int64(1); id < m.nextID; id++ {
		if p, ok := m.payments[id]; ok && p.HouseholdID == householdID {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockMembers struct {
	members map[int64]bool
}

func (m *mockMembers) RequireMembers(ctx context.Context, householdID int64, userIDs ...int64) error {
	for _, id := range userIDs {
		if !m.members[id] {
			return fmt.Errorf("%w: user %d", internal.ErrMemberNotFound, id)
		}
	}
	return nil
}

// sheetBalances keeps a real balance.Sheet in memory.
type sheetBalances struct {
	sheet *balance.Sheet
}

func (b *sheetBalances) Position(ctx context.Context, householdID, memberID int64) (balance.Row, error) {
	return b.sheet.Row(memberID), nil
}

func (b *sheetBalances) ApplyPayment(ctx context.Context, householdID, payerID, payeeID int64, amount money.Money) error {
	return b.sheet.ApplyPayment(payerID, payeeID, amount)
}

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

var _ = ginkgo.Describe("PaymentService", func() {
	var (
		service   *payment.Service
		repo      *mockPaymentRepository
		balances  *sheetBalances
		publisher *recordingPublisher
		ctx       context.Context
	)

	const householdID int64 = 7

	ginkgo.BeforeEach(func() {
		repo = newMockPaymentRepository()
		// alice is owed 10.00, bob owes 6.00, carol owes 4.00
		balances = &sheetBalances{sheet: balance.NewSheet(householdID, []balance.Row{
			{MemberID: alice, Sum: 1000, Sign: money.SignPositive},
			{MemberID: bob, Sum: 600, Sign: money.SignNegative},
			{MemberID: carol, Sum: 400, Sign: money.SignNegative},
		})}
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		members := &mockMembers{members: map[int64]bool{alice: true, bob: true, carol: true}}
		service = payment.NewService(repo, members, balances, inlineTransactor{}, publisher, logger)
		ctx = context.Background()
	})

	ginkgo.Describe("CreatePayment", func() {
		ginkgo.It("should record a pending payment without moving balances", func() {
			// When
			p, err := service.CreatePayment(ctx, householdID, bob, payment.CreatePaymentDTO{PayeeID: alice, Amount: money.MustParse("2.50"), Note: " cash "})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.Status).To(gomega.Equal(payment.StatusPending))
			gomega.Expect(p.Note).To(gomega.Equal("cash"))
			gomega.Expect(balances.sheet.Row(bob).Sum).To(gomega.Equal(money.MustParse("6.00")))
			gomega.Expect(publisher.events).To(gomega.HaveLen(1))
			gomega.Expect(publisher.events[0].EventType()).To(gomega.Equal(events.EventTypePaymentCreated))
		})

		ginkgo.It("should refuse a payer who is owed money", func() {
			_, err := service.CreatePayment(ctx, householdID, alice, payment.CreatePaymentDTO{PayeeID: bob, Amount: money.MustParse("1.00")})

			gomega.Expect(errors.Is(err, internal.ErrInvalidDirection)).To(gomega.BeTrue())
			gomega.Expect(repo.payments).To(gomega.BeEmpty())
		})

		ginkgo.It("should refuse a payee who owes money", func() {
			_, err := service.CreatePayment(ctx, householdID, bob, payment.CreatePaymentDTO{PayeeID: carol, Amount: money.MustParse("1.00")})

			gomega.Expect(errors.Is(err, internal.ErrInvalidDirection)).To(gomega.BeTrue())
		})

		ginkgo.It("should refuse more than the payer owes", func() {
			_, err := service.CreatePayment(ctx, householdID, carol, payment.CreatePaymentDTO{PayeeID: alice, Amount: money.MustParse("4.01")})

			gomega.Expect(errors.Is(err, internal.ErrInsufficientBalance)).To(gomega.BeTrue())
		})

		ginkgo.It("should refuse paying oneself", func() {
			_, err := service.CreatePayment(ctx, householdID, bob, payment.CreatePaymentDTO{PayeeID: bob, Amount: money.MustParse("1.00")})

			gomega.Expect(errors.Is(err, internal.ErrInvalidArgument)).To(gomega.BeTrue())
		})

		ginkgo.It("should refuse a payee outside the household", func() {
			_, err := service.CreatePayment(ctx, householdID, bob, payment.CreatePaymentDTO{PayeeID: 99, Amount: money.MustParse("1.00")})

			gomega.Expect(errors.Is(err, internal.ErrMemberNotFound)).To(gomega.BeTrue())
		})

		ginkgo.It("should return a validation error for a zero amount", func() {
			_, err := service.CreatePayment(ctx, householdID, bob, payment.CreatePaymentDTO{PayeeID: alice})

			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeValidationFailed))
		})
	})

	ginkgo.Describe("AcceptPayment", func() {
		var id int64

		ginkgo.BeforeEach(func() {
			p, err := service.CreatePayment(ctx, householdID, bob, payment.CreatePaymentDTO{PayeeID: alice, Amount: money.MustParse("6.00")})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			id = p.ID
		})

		ginkgo.It("should settle the debt when the payee accepts", func() {
			// When
			p, err := service.AcceptPayment(ctx, id, alice)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.Status).To(gomega.Equal(payment.StatusAccepted))
			gomega.Expect(p.DecidedAt).ToNot(gomega.BeNil())
			gomega.Expect(balances.sheet.Row(bob)).To(gomega.Equal(balance.Row{MemberID: bob, Sum: 0, Sign: money.SignPositive}))
			gomega.Expect(balances.sheet.Row(alice).Sum).To(gomega.Equal(money.MustParse("4.00")))
			gomega.Expect(balances.sheet.Net()).To(gomega.BeZero())
		})

		ginkgo.It("should only let the payee accept", func() {
			_, err := service.AcceptPayment(ctx, id, bob)

			gomega.Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(gomega.BeTrue())
		})

		ginkgo.It("should refuse a second decision", func() {
			_, err := service.AcceptPayment(ctx, id, alice)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.AcceptPayment(ctx, id, alice)
			gomega.Expect(errors.Is(err, internal.ErrPaymentFinalized)).To(gomega.BeTrue())

			_, err = service.RejectPayment(ctx, id, alice)
			gomega.Expect(errors.Is(err, internal.ErrPaymentFinalized)).To(gomega.BeTrue())
		})

		ginkgo.It("should re-check the balance at acceptance time", func() {
			// Given bob already settled part of the debt elsewhere
			gomega.Expect(balances.sheet.ApplyPayment(bob, alice, money.MustParse("1.00"))).To(gomega.Succeed())

			// When
			_, err := service.AcceptPayment(ctx, id, alice)

			// Then
			gomega.Expect(errors.Is(err, internal.ErrInsufficientBalance)).To(gomega.BeTrue())
			stored, _ := repo.GetByID(ctx, id)
			gomega.Expect(stored.Status).To(gomega.Equal(payment.StatusPending))
		})

		ginkgo.It("should leave balances alone when the payee rejects", func() {
			p, err := service.RejectPayment(ctx, id, alice)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(p.Status).To(gomega.Equal(payment.StatusRejected))
			gomega.Expect(balances.sheet.Row(bob).Sum).To(gomega.Equal(money.MustParse("6.00")))
		})
	})
})
