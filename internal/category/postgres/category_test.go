package postgres_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/category"
	"github.com/frahmantamala/household-ledger/internal/category/postgres"
	"github.com/frahmantamala/household-ledger/internal/core/database"
)

func TestCategoryRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Category Repository Suite")
}

var _ = Describe("Category repository on SQLite", func() {
	var (
		db   *database.DB
		repo *postgres.CategoryRepository
		svc  *category.Service
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = database.OpenSQLiteSchema(":memory:")
		Expect(err).NotTo(HaveOccurred())

		repo = postgres.NewCategoryRepository(db.Gorm)
		svc = category.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	It("round-trips a category by name", func() {
		created, err := svc.Create(ctx, category.CreateCategoryDTO{Name: "Groceries", Description: "food"})
		Expect(err).NotTo(HaveOccurred())
		Expect(created.ID).To(BeNumerically(">", 0))

		got, err := repo.GetByName(ctx, "groceries")

		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(created.ID))
		Expect(got.Description).To(Equal("food"))
		Expect(got.IsActive).To(BeTrue())
	})

	It("reports a missing name as an unknown category", func() {
		_, err := repo.GetByName(ctx, "yachts")

		Expect(errors.Is(err, internal.ErrUnknownCategory)).To(BeTrue())
	})

	It("maps the unique index to a conflict", func() {
		Expect(repo.Create(ctx, category.NewCategory("rent", "", time.Now()))).To(Succeed())

		err := repo.Create(ctx, category.NewCategory("rent", "", time.Now()))

		Expect(errors.Is(err, internal.ErrCategoryExists)).To(BeTrue())
	})

	It("persists retirement", func() {
		_, err := svc.Create(ctx, category.CreateCategoryDTO{Name: "travel"})
		Expect(err).NotTo(HaveOccurred())

		Expect(svc.Retire(ctx, "travel")).To(Succeed())

		got, err := repo.GetByName(ctx, "travel")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.IsActive).To(BeFalse())

		list, err := svc.GetAllCategories(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(BeEmpty())
	})
})
