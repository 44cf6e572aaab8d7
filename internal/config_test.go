package internal_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/household-ledger/internal"
)

func TestInternal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Internal Suite")
}

func validConfig() *internal.Config {
	return &internal.Config{
		Server: internal.ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
		},
		Database: internal.DatabaseConfig{
			Driver:          "postgres",
			Source:          "postgres://ledger@localhost/ledger",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Security: internal.SecurityConfig{
			AccessTokenSecret:    "access-secret-access-secret-0123",
			RefreshTokenSecret:   "refresh-secret-refresh-secret-01",
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 24 * time.Hour,
			BCryptCost:           12,
		},
		Logging: internal.LoggingConfig{Level: "info", Format: "json"},
	}
}

var _ = Describe("Config", func() {
	It("accepts a complete configuration", func() {
		Expect(validConfig().Validate()).To(Succeed())
	})

	It("rejects an unknown database driver", func() {
		cfg := validConfig()
		cfg.Database.Driver = "mysql"

		Expect(cfg.Validate()).To(MatchError(ContainSubstring("Driver")))
	})

	It("rejects reusing the access secret for refresh tokens", func() {
		cfg := validConfig()
		cfg.Security.RefreshTokenSecret = cfg.Security.AccessTokenSecret

		Expect(cfg.Validate()).To(MatchError(ContainSubstring("RefreshTokenSecret")))
	})

	It("reports cross-field pool settings", func() {
		cfg := validConfig()
		cfg.Database.MaxIdleConns = 20

		Expect(cfg.Validate()).To(MatchError(ContainSubstring("max_idle_conns")))
	})

	It("requires a contract when request validation is on", func() {
		cfg := validConfig()
		cfg.Server.ValidateRequests = true

		Expect(cfg.Validate()).To(MatchError(ContainSubstring("openapi_spec")))
	})

	It("fills ledger defaults", func() {
		cfg := validConfig()
		cfg.Database.Driver = ""

		cfg.Defaults()

		Expect(cfg.Database.Driver).To(Equal("postgres"))
		Expect(cfg.Ledger.EventDrainTimeout).To(Equal(5 * time.Second))
	})

	It("reads container settings from the environment", func() {
		GinkgoT().Setenv("HTTP_PORT", "9090")
		GinkgoT().Setenv("DB_DRIVER", "sqlite")
		GinkgoT().Setenv("ACCESS_TOKEN_DURATION", "30m")

		cfg := internal.LoadConfigFromEnv()

		Expect(cfg.Server.Port).To(Equal(9090))
		Expect(cfg.Database.Driver).To(Equal("sqlite"))
		Expect(cfg.Security.AccessTokenDuration).To(Equal(30 * time.Minute))
	})
})

var _ = Describe("AppError", func() {
	It("matches its sentinel through wrapping", func() {
		err := fmt.Errorf("%w: payment 7", internal.ErrPaymentFinalized)

		Expect(errors.Is(err, internal.ErrPaymentFinalized)).To(BeTrue())
		Expect(errors.Is(err, internal.ErrPaymentNotFound)).To(BeFalse())
	})

	It("keeps the balance invariant distinct from other internal errors", func() {
		other := internal.NewInternalError("boom", nil)

		Expect(errors.Is(other, internal.ErrUnbalancedDelta)).To(BeFalse())
		Expect(errors.Is(internal.ErrUnbalancedDelta.WithCause(errors.New("x")), internal.ErrUnbalancedDelta)).To(BeTrue())
	})

	It("renders the error envelope with its status", func() {
		status, body := internal.ErrInvalidDirection.ToHTTPResponse()

		Expect(status).To(Equal(http.StatusConflict))
		resp, ok := body.(internal.Response)
		Expect(ok).To(BeTrue())
		Expect(resp.Error.Code).To(Equal(internal.ErrCodeInvalidDirection))
	})
})
