package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"
	"coursepay/internal/usecase"

	"github.com/shopspring/decimal"
)

// クーポンコードをそのまま適用する価格計算。
// 最適なクーポンを探すことはしない。
type CouponOracle struct {
	coupons repo.CouponRepository
	clock   usecase.Clock
}

func NewCouponOracle(coupons repo.CouponRepository, clock usecase.Clock) *CouponOracle {
	return &CouponOracle{coupons: coupons, clock: clock}
}

// クーポンも同じTxで読む
func (o *CouponOracle) InTx(r repo.TxRepos) usecase.PricingOracle {
	return &CouponOracle{coupons: r.Coupons(), clock: o.clock}
}

func (o *CouponOracle) Price(ctx context.Context, course model.Course, userID int64, couponCode string) (usecase.Quote, error) {
	price := course.Price
	code := strings.TrimSpace(couponCode)
	if code == "" {
		return usecase.Quote{OriginalPrice: price, FinalPrice: price}, nil
	}

	c, err := o.coupons.FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return usecase.Quote{}, usecase.ErrInvalidCoupon
	}
	if err != nil {
		return usecase.Quote{}, fmt.Errorf("find coupon: %w", err)
	}
	if !c.IsUsableAt(o.clock.Now()) || !c.AppliesTo(course.ID) {
		return usecase.Quote{}, usecase.ErrInvalidCoupon
	}

	discount := Discount(c, price)
	return usecase.Quote{
		OriginalPrice:  price,
		DiscountAmount: discount,
		FinalPrice:     price - discount,
	}, nil
}

// 割引額。AmountOffがあればそれ、なければ PercentOff × 価格（四捨五入）。
// MaxDiscountと価格で上限をかける。
func Discount(c model.Coupon, price int64) int64 {
	var d int64
	if c.AmountOff > 0 {
		d = c.AmountOff
	} else if c.PercentOff.IsPositive() {
		d = c.PercentOff.Mul(decimal.NewFromInt(price)).Round(0).IntPart()
	}

	if c.MaxDiscount > 0 && d > c.MaxDiscount {
		d = c.MaxDiscount
	}
	if d > price {
		d = price
	}
	if d < 0 {
		d = 0
	}
	return d
}
