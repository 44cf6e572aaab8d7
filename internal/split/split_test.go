package split_test

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/household-ledger/internal"
	"github.com/frahmantamala/household-ledger/internal/core/money"
	"github.com/frahmantamala/household-ledger/internal/split"
)

func TestSplit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Split Suite")
}

func members(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return ids
}

var _ = Describe("Split", func() {
	Describe("Equal", func() {
		It("hands the remainder to the first members in order", func() {
			// When
			res, err := split.Equal(money.MustParse("10.00"), []int64{7, 8, 9})

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Method).To(Equal(split.MethodEqual))
			Expect(res.Shares).To(Equal([]split.Share{
				{MemberID: 7, Sum: 334},
				{MemberID: 8, Sum: 333},
				{MemberID: 9, Sum: 333},
			}))
		})

		It("always sums to the total and keeps shares within one cent", func() {
			for _, cents := range []int64{1, 2, 99, 100, 101, 1000, 12345, 999999} {
				for n := 1; n <= 20; n++ {
					res, err := split.Equal(money.FromCents(cents), members(n))
					Expect(err).ToNot(HaveOccurred())
					Expect(res.Total()).To(Equal(money.FromCents(cents)), "total %d over %d", cents, n)

					lo, hi := res.Shares[0].Sum, res.Shares[0].Sum
					for _, s := range res.Shares {
						lo = money.Min(lo, s.Sum)
						if s.Sum > hi {
							hi = s.Sum
						}
					}
					Expect(hi - lo).To(BeNumerically("<=", 1))
				}
			}
		})

		It("lets a single member take the whole amount", func() {
			res, err := split.Equal(money.MustParse("0.01"), []int64{4})
			Expect(err).ToNot(HaveOccurred())
			Expect(res.SumFor(4)).To(Equal(money.FromCents(1)))
		})

		It("gives zero shares when the total is smaller than the member count", func() {
			res, err := split.Equal(money.FromCents(2), members(3))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.SumFor(1)).To(Equal(money.FromCents(1)))
			Expect(res.SumFor(2)).To(Equal(money.FromCents(1)))
			Expect(res.SumFor(3)).To(Equal(money.Zero))
		})

		It("rejects a non-positive total", func() {
			_, err := split.Equal(money.Zero, members(2))
			Expect(errors.Is(err, internal.ErrInvalidArgument)).To(BeTrue())

			_, err = split.Equal(money.FromCents(-5), members(2))
			Expect(errors.Is(err, internal.ErrInvalidArgument)).To(BeTrue())
		})

		It("rejects an empty member list", func() {
			_, err := split.Equal(money.FromCents(100), nil)
			Expect(errors.Is(err, internal.ErrInvalidArgument)).To(BeTrue())
		})

		It("rejects duplicate members", func() {
			_, err := split.Equal(money.FromCents(100), []int64{1, 2, 1})
			Expect(errors.Is(err, internal.ErrInvalidArgument)).To(BeTrue())
		})
	})

	Describe("Percent", func() {
		It("splits 33/33/34 of 100.00 exactly", func() {
			// When
			res, err := split.Percent(money.MustParse("100.00"), []split.PercentEntry{
				{MemberID: 1, Percentage: 33},
				{MemberID: 2, Percentage: 33},
				{MemberID: 3, Percentage: 34},
			})

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(res.SumFor(1)).To(Equal(money.MustParse("33.00")))
			Expect(res.SumFor(2)).To(Equal(money.MustParse("33.00")))
			Expect(res.SumFor(3)).To(Equal(money.MustParse("34.00")))
		})

		It("spreads leftover cents in input order", func() {
			// 0.10 at 33/33/34 floors to 3+3+3 with one cent left for the first entry
			res, err := split.Percent(money.MustParse("0.10"), []split.PercentEntry{
				{MemberID: 1, Percentage: 33},
				{MemberID: 2, Percentage: 33},
				{MemberID: 3, Percentage: 34},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(res.Total()).To(Equal(money.MustParse("0.10")))
			Expect(res.SumFor(1)).To(Equal(money.FromCents(4)))
			Expect(res.SumFor(2)).To(Equal(money.FromCents(3)))
			Expect(res.SumFor(3)).To(Equal(money.FromCents(3)))
		})

		It("never gives leftover cents to a zero-percent entry", func() {
			res, err := split.Percent(money.FromCents(3), []split.PercentEntry{
				{MemberID: 1, Percentage: 0},
				{MemberID: 2, Percentage: 50},
				{MemberID: 3, Percentage: 50},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(res.SumFor(1)).To(Equal(money.Zero))
			Expect(res.Total()).To(Equal(money.FromCents(3)))
		})

		It("always sums to the total", func() {
			entries := []split.PercentEntry{
				{MemberID: 1, Percentage: 17},
				{MemberID: 2, Percentage: 29},
				{MemberID: 3, Percentage: 1},
				{MemberID: 4, Percentage: 53},
			}
			for _, cents := range []int64{1, 7, 99, 101, 3333, 100001} {
				res, err := split.Percent(money.FromCents(cents), entries)
				Expect(err).ToNot(HaveOccurred())
				Expect(res.Total()).To(Equal(money.FromCents(cents)))
			}
		})

		It("splits the largest supported amount exactly", func() {
			entries := []split.PercentEntry{
				{MemberID: 1, Percentage: 33},
				{MemberID: 2, Percentage: 33},
				{MemberID: 3, Percentage: 34},
			}
			for _, cents := range []int64{money.MaxCents, money.MaxCents - 1} {
				res, err := split.Percent(money.FromCents(cents), entries)
				Expect(err).ToNot(HaveOccurred())
				Expect(res.Total()).To(Equal(money.FromCents(cents)))
				Expect(res.SumFor(1).Cents()).To(BeNumerically("~", cents*33/100, 1))
			}
		})

		It("refuses totals past the supported range instead of wrapping", func() {
			halves := []split.PercentEntry{
				{MemberID: 1, Percentage: 50},
				{MemberID: 2, Percentage: 50},
			}
			for _, cents := range []int64{money.MaxCents + 1, 1 << 60, math.MaxInt64} {
				_, err := split.Percent(money.FromCents(cents), halves)
				Expect(errors.Is(err, internal.ErrInvalidArgument)).To(BeTrue())

				_, err = split.Equal(money.FromCents(cents), members(2))
				Expect(errors.Is(err, internal.ErrInvalidArgument)).To(BeTrue())
			}
		})

		It("rejects percentages that do not sum to 100", func() {
			_, err := split.Percent(money.FromCents(100), []split.PercentEntry{
				{MemberID: 1, Percentage: 50},
				{MemberID: 2, Percentage: 49},
			})
			Expect(errors.Is(err, internal.ErrInvalidPercentage)).To(BeTrue())
		})

		It("rejects an out-of-range percentage", func() {
			_, err := split.Percent(money.FromCents(100), []split.PercentEntry{
				{MemberID: 1, Percentage: 120},
				{MemberID: 2, Percentage: -20},
			})
			Expect(errors.Is(err, internal.ErrInvalidPercentage)).To(BeTrue())
		})
	})

	Describe("Manual", func() {
		It("accepts amounts that add up to the total", func() {
			res, err := split.Manual(money.MustParse("10.00"), []split.ManualEntry{
				{MemberID: 1, Sum: money.MustParse("5.00")},
				{MemberID: 2, Sum: money.MustParse("5.00")},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(res.Method).To(Equal(split.MethodManual))
			Expect(res.Total()).To(Equal(money.MustParse("10.00")))
		})

		It("rejects amounts that miss the total by one cent", func() {
			_, err := split.Manual(money.MustParse("10.00"), []split.ManualEntry{
				{MemberID: 1, Sum: money.MustParse("5.00")},
				{MemberID: 2, Sum: money.MustParse("4.99")},
			})
			Expect(errors.Is(err, internal.ErrAmountMismatch)).To(BeTrue())
		})

		It("rejects negative amounts", func() {
			_, err := split.Manual(money.MustParse("1.00"), []split.ManualEntry{
				{MemberID: 1, Sum: money.MustParse("2.00")},
				{MemberID: 2, Sum: money.MustParse("-1.00")},
			})
			Expect(errors.Is(err, internal.ErrInvalidArgument)).To(BeTrue())
		})
	})

	Describe("Calculate", func() {
		It("dispatches single to one member", func() {
			res, err := split.Calculate(money.MustParse("42.00"), split.Input{
				Method:  split.MethodSingle,
				Members: []int64{5},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(res.Shares).To(Equal([]split.Share{{MemberID: 5, Sum: money.MustParse("42.00")}}))
		})

		It("rejects single with more than one member", func() {
			_, err := split.Calculate(money.MustParse("42.00"), split.Input{
				Method:  split.MethodSingle,
				Members: []int64{5, 6},
			})
			Expect(errors.Is(err, internal.ErrInvalidArgument)).To(BeTrue())
		})

		It("rejects an unknown method", func() {
			_, err := split.Calculate(money.MustParse("1.00"), split.Input{Method: "weighted"})
			Expect(errors.Is(err, internal.ErrInvalidArgument)).To(BeTrue())
		})
	})
})
