package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/core/money"
	paymentpkg "github.com/frahmantamala/household-ledger/internal/payment"
)

type mockPaymentService struct {
	created  paymentpkg.CreatePaymentDTO
	payerID  int64
	actorID  int64
	err      error
	response *paymentpkg.Payment
}

func (m *mockPaymentService) CreatePayment(ctx context.Context, householdID, payerID int64, dto paymentpkg.CreatePaymentDTO) (*paymentpkg.Payment, error) {
	m.created = dto
	m.payerID = payerID
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockPaymentService) AcceptPayment(ctx context.Context, id, actorID int64) (*paymentpkg.Payment, error) {
	m.actorID = actorID
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockPaymentService) RejectPayment(ctx context.Context, id, actorID int64) (*paymentpkg.Payment, error) {
	return m.AcceptPayment(ctx, id, actorID)
}

func (m *mockPaymentService) ListHouseholdPayments(ctx context.Context, householdID int64, filter paymentpkg.ListFilter) ([]*paymentpkg.Payment, error) {
	return []*paymentpkg.Payment{m.response}, m.err
}

func withRoute(req *http.Request, params map[string]string, user *internal.CurrentUser) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if user != nil {
		ctx = internal.ContextWithUser(ctx, user)
	}
	return req.WithContext(ctx)
}

var _ = ginkgo.Describe("Payment Handler", func() {
	var (
		handler     *paymentpkg.Handler
		mockService *mockPaymentService
		recorder    *httptest.ResponseRecorder
		bobUser     *internal.CurrentUser
	)

	ginkgo.BeforeEach(func() {
		mockService = &mockPaymentService{
			response: &paymentpkg.Payment{ID: 5, HouseholdID: 7, PayerID: bob, PayeeID: alice, Amount: 250, Status: paymentpkg.StatusPending},
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = paymentpkg.NewHandler(mockService, logger)
		recorder = httptest.NewRecorder()
		bobUser = &internal.CurrentUser{ID: bob, Email: "bob@example.com"}
	})

	ginkgo.Describe("CreatePayment", func() {
		ginkgo.It("should decode a decimal amount and answer 201", func() {
			// Given
			body := []byte(`{"payee_id": 1, "amount": "2.50", "note": "cash"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/households/7/payments", bytes.NewReader(body))
			req = withRoute(req, map[string]string{"householdID": "7"}, bobUser)

			// When
			handler.CreatePayment(recorder, req)

			// Then
			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusCreated))
			gomega.Expect(mockService.payerID).To(gomega.Equal(bob))
			gomega.Expect(mockService.created.Amount).To(gomega.Equal(money.MustParse("2.50")))

			var resp map[string]interface{}
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp["amount"]).To(gomega.Equal("2.50"))
		})

		ginkgo.It("should reject an amount with three fraction digits", func() {
			body := []byte(`{"payee_id": 1, "amount": "2.505"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/households/7/payments", bytes.NewReader(body))
			req = withRoute(req, map[string]string{"householdID": "7"}, bobUser)

			handler.CreatePayment(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should map domain errors onto their status", func() {
			mockService.err = internal.ErrInvalidDirection
			body := []byte(`{"payee_id": 1, "amount": "2.50"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/households/7/payments", bytes.NewReader(body))
			req = withRoute(req, map[string]string{"householdID": "7"}, bobUser)

			handler.CreatePayment(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusConflict))
			var resp map[string]map[string]interface{}
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp["error"]["code"]).To(gomega.Equal(string(internal.ErrCodeInvalidDirection)))
		})

		ginkgo.It("should require authentication", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/households/7/payments", bytes.NewReader([]byte(`{}`)))
			req = withRoute(req, map[string]string{"householdID": "7"}, nil)

			handler.CreatePayment(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.Describe("AcceptPayment", func() {
		ginkgo.It("should pass the caller as the deciding member", func() {
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/payments/5/accept", nil)
			req = withRoute(req, map[string]string{"id": "5"}, &internal.CurrentUser{ID: alice})

			handler.AcceptPayment(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(mockService.actorID).To(gomega.Equal(alice))
		})

		ginkgo.It("should reject a malformed id", func() {
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/payments/abc/accept", nil)
			req = withRoute(req, map[string]string{"id": "abc"}, &internal.CurrentUser{ID: alice})

			handler.AcceptPayment(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})
})
