package rewards

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/carbonos/internal/model"
)

// CouponValidity задаёт срок действия купона с момента обмена.
const CouponValidity = 30 * 24 * time.Hour

// CouponCodePrefix используется в начале каждого кода купона.
const CouponCodePrefix = "ECO"

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	// ErrInsufficientPoints возвращается при попытке обменять больше баллов, чем доступно.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrInvalidOffer возвращается для предложения с неположительной стоимостью.
	ErrInvalidOffer = errors.New("invalid coupon offer")
)

// CanRedeem сообщает, хватает ли доступных баллов на предложение.
func CanRedeem(offer model.CouponOffer, availablePoints int) bool {
	return availablePoints >= offer.Points
}

// Redeem выпускает купон партнёра в обмен на баллы.
// Вызывающая сторона должна увеличить потраченные баллы на offer.Points и сохранить купон.
func Redeem(business model.Business, offer model.CouponOffer, availablePoints int, now time.Time) (model.RedeemedCoupon, error) {
	if offer.Points <= 0 {
		return model.RedeemedCoupon{}, ErrInvalidOffer
	}
	if !CanRedeem(offer, availablePoints) {
		return model.RedeemedCoupon{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientPoints, offer.Points, availablePoints)
	}

	code, err := NewCouponCode(now)
	if err != nil {
		return model.RedeemedCoupon{}, err
	}

	return model.RedeemedCoupon{
		ID:               uuid.NewString(),
		BusinessID:       business.ID,
		BusinessName:     business.Name,
		BusinessLogo:     business.Logo,
		BusinessLocation: business.Location,
		Code:             code,
		Discount:         offer.Discount,
		PointsCost:       offer.Points,
		RedeemedDate:     now,
		ExpiresDate:      now.Add(CouponValidity),
		Used:             false,
	}, nil
}

// NewCouponCode генерирует код вида ECO-<время base36>-<5 случайных символов>.
func NewCouponCode(now time.Time) (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate coupon code: %w", err)
	}

	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return CouponCodePrefix + "-" + stamp + "-" + string(suffix), nil
}

// IsExpired сообщает, истёк ли срок действия купона на момент now.
func IsExpired(c model.RedeemedCoupon, now time.Time) bool {
	return now.After(c.ExpiresDate)
}

// MarkUsed отмечает купон использованным. Повторный вызов ничего не меняет.
func MarkUsed(c model.RedeemedCoupon) model.RedeemedCoupon {
	c.Used = true
	return c
}

// BucketOf возвращает группу купона. Использованный купон никогда не считается истёкшим.
func BucketOf(c model.RedeemedCoupon, now time.Time) model.CouponBucket {
	switch {
	case c.Used:
		return model.BucketUsed
	case IsExpired(c, now):
		return model.BucketExpired
	default:
		return model.BucketActive
	}
}

// Categorize раскладывает купоны по группам, сохраняя исходный порядок.
func Categorize(coupons []model.RedeemedCoupon, now time.Time) model.CouponBuckets {
	res := model.CouponBuckets{
		Active:  []model.RedeemedCoupon{},
		Used:    []model.RedeemedCoupon{},
		Expired: []model.RedeemedCoupon{},
	}

	for _, c := range coupons {
		switch BucketOf(c, now) {
		case model.BucketUsed:
			res.Used = append(res.Used, c)
		case model.BucketExpired:
			res.Expired = append(res.Expired, c)
		default:
			res.Active = append(res.Active, c)
		}
	}

	return res
}

// DaysUntilExpiration возвращает число дней до истечения купона, округлённое вверх и не меньше нуля.
func DaysUntilExpiration(c model.RedeemedCoupon, now time.Time) int {
	left := c.ExpiresDate.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}
