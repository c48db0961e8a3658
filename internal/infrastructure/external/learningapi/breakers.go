package learningapi

import (
	"sync"
	"time"

	"github.com/alem-hub/adaptive-learning/pkg/circuitbreaker"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

// NewBreaker builds the circuit breaker a Client trips on server errors,
// transport failures and 429s.
func NewBreaker(name string, threshold int, timeout time.Duration, log *logger.Logger) *circuitbreaker.CircuitBreaker {
	if log == nil {
		log = logger.Default()
	}
	return circuitbreaker.New(name,
		circuitbreaker.WithFailureThreshold(threshold),
		circuitbreaker.WithTimeout(timeout),
		circuitbreaker.WithIsFailure(countsAsFailure),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name), logger.String("from", from.String()), logger.String("to", to.String()))
		}),
	)
}

// Breakers hands out one breaker per service instance, so every course
// pointing at the same instance trips and recovers together.
type Breakers struct {
	mu     sync.Mutex
	byURL  map[string]*circuitbreaker.CircuitBreaker
	logger *logger.Logger
}

// NewBreakers creates an empty set.
func NewBreakers(log *logger.Logger) *Breakers {
	if log == nil {
		log = logger.Default()
	}
	return &Breakers{
		byURL:  make(map[string]*circuitbreaker.CircuitBreaker),
		logger: log.With(logger.Component("learningapi")),
	}
}

// For returns the breaker of the instance cc points at, creating it with
// cc's thresholds on first use.
func (b *Breakers) For(cc ClientConfig) *circuitbreaker.CircuitBreaker {
	instance := cc.Configuration.Endpoints().Instance

	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.byURL[instance]; ok {
		return cb
	}

	defaults := DefaultClientConfig(cc.Configuration)
	threshold, timeout := cc.BreakerFailureThreshold, cc.BreakerTimeout
	if threshold <= 0 {
		threshold = defaults.BreakerFailureThreshold
	}
	if timeout <= 0 {
		timeout = defaults.BreakerTimeout
	}
	cb := NewBreaker("adaptive-learning:"+instance, threshold, timeout, b.logger)
	b.byURL[instance] = cb
	return cb
}
