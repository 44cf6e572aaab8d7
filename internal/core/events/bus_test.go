package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/household-ledger/internal/core/events"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("delivers published events to every subscriber", func() {
		var calls int32
		handler := func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		}
		bus.Subscribe(events.EventTypeExpenseApproved, handler)
		bus.Subscribe(events.EventTypeExpenseApproved, handler)

		// When
		err := bus.Publish(context.Background(), events.NewExpenseApprovedEvent(1, 2, "10.00", nil))
		bus.Wait()

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(2)))
	})

	It("keeps running handlers after the publishing context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		var sawCancel atomic.Bool
		bus.Subscribe(events.EventTypePaymentAccepted, func(ctx context.Context, e events.Event) error {
			sawCancel.Store(ctx.Err() != nil)
			return nil
		})

		cancel()
		Expect(bus.Publish(ctx, events.NewPaymentEvent(events.EventTypePaymentAccepted, 1, 2, 3, 4, "1.00"))).To(Succeed())
		bus.Wait()

		Expect(sawCancel.Load()).To(BeFalse())
	})

	It("returns handler errors from PublishSync", func() {
		bus.Subscribe(events.EventTypeExpenseRejected, func(ctx context.Context, e events.Event) error {
			return errors.New("store down")
		})

		err := bus.PublishSync(context.Background(), events.NewExpenseRejectedEvent(1, 2, 3, "wrong amount"))
		Expect(err).To(MatchError(ContainSubstring("store down")))
	})

	It("ignores events nobody listens to", func() {
		Expect(bus.Publish(context.Background(), events.NewMemberEvent(events.EventTypeMemberAdded, 1, 2, 3))).To(Succeed())
	})

	It("stamps every event with an id and household", func() {
		e := events.NewExpenseCreatedEvent(7, 8, 9, "3.00", "pending")
		Expect(e.EventID()).NotTo(BeEmpty())
		Expect(e.Household()).To(Equal(int64(7)))
		Expect(e.Payload()).To(HaveKeyWithValue("amount", "3.00"))
	})
})
