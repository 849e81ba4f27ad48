package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	limiter "github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Per-client request budgets. Booking and payment creation get tighter
// budgets than the rest of the API because both reach for external
// resources (the slot lock, the payment processor).
var (
	globalRate  = limiter.Rate{Period: time.Minute, Limit: 100}
	bookingRate = limiter.Rate{Period: time.Minute, Limit: 10}
	paymentRate = limiter.Rate{Period: time.Minute, Limit: 5}
)

// RateLimits carries one middleware per request budget.
type RateLimits struct {
	Global   gin.HandlerFunc
	Bookings gin.HandlerFunc
	Payments gin.HandlerFunc
}

// BuildRateLimits assembles the budgets over stores produced by newStore.
// Each budget gets its own key prefix so the counters never mix.
func BuildRateLimits(newStore func(prefix string) (limiter.Store, error)) (RateLimits, error) {
	global, err := newStore("courtbook:rate:global")
	if err != nil {
		return RateLimits{}, err
	}
	bookings, err := newStore("courtbook:rate:bookings")
	if err != nil {
		return RateLimits{}, err
	}
	payments, err := newStore("courtbook:rate:payments")
	if err != nil {
		return RateLimits{}, err
	}
	return RateLimits{
		Global:   mgin.NewMiddleware(limiter.New(global, globalRate)),
		Bookings: mgin.NewMiddleware(limiter.New(bookings, bookingRate)),
		Payments: mgin.NewMiddleware(limiter.New(payments, paymentRate)),
	}, nil
}

// MemoryRateLimits backs the budgets with in-process counters. Suitable for
// a single instance; multi-instance deployments share counters through the
// Redis store instead.
func MemoryRateLimits() RateLimits {
	limits, _ := BuildRateLimits(func(prefix string) (limiter.Store, error) {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), nil
	})
	return limits
}
