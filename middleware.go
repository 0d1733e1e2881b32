package atmxgo

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Middleware decorates a Store.
type Middleware func(Store) Store

// Chain wraps store with mws; the first middleware is the outermost.
func Chain(store Store, mws ...Middleware) Store {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

//
// Circuit breaker
//

// BreakerSettings configures NewBreakerMiddleware.
type BreakerSettings struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// Timeout is how long the breaker stays open before letting a probe through.
	Timeout time.Duration
	Log     *zerolog.Logger
}

// breakerMiddleware fails store calls fast once the backing store has
// failed MaxFailures times in a row, instead of letting every ATM
// operation wait out a dead disk or database.
type breakerMiddleware struct {
	next Store
	brkr *gobreaker.CircuitBreaker[map[string]*Account]
}

var (
	_ Store = (*breakerMiddleware)(nil)
)

func NewBreakerMiddleware(st BreakerSettings) Middleware {
	if st.MaxFailures == 0 {
		st.MaxFailures = 3
	}
	log := st.Log
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return func(next Store) Store {
		brkr := gobreaker.NewCircuitBreaker[map[string]*Account](gobreaker.Settings{
			Name:        "store",
			MaxRequests: 1,
			Timeout:     st.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= st.MaxFailures
			},
			// ErrStoreNotFound is an answer, not an outage.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrStoreNotFound)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("store circuit breaker state change")
			},
		})
		return &breakerMiddleware{
			next: next,
			brkr: brkr,
		}
	}
}

func (b *breakerMiddleware) Load() (map[string]*Account, error) {
	accts, err := b.brkr.Execute(b.next.Load)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrPersistence{Op: "load", Err: err}
	}
	return accts, err
}

func (b *breakerMiddleware) Save(accts map[string]*Account) error {
	_, err := b.brkr.Execute(func() (map[string]*Account, error) {
		return nil, b.next.Save(accts)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrPersistence{Op: "save", Err: err}
	}
	return err
}

//
// Logging
//

type loggingMiddleware struct {
	next Store
	log  *zerolog.Logger
}

var (
	_ Store = (*loggingMiddleware)(nil)
)

func NewLoggingMiddleware(log *zerolog.Logger) Middleware {
	return func(next Store) Store {
		return &loggingMiddleware{
			next: next,
			log:  log,
		}
	}
}

func (l *loggingMiddleware) Load() (map[string]*Account, error) {
	start := time.Now()
	accts, err := l.next.Load()
	if err != nil && !errors.Is(err, ErrStoreNotFound) {
		l.log.Err(err).Dur("took", time.Since(start)).Msg("store load failed")
		return accts, err
	}
	l.log.Debug().
		Int("accounts", len(accts)).
		Dur("took", time.Since(start)).
		Msg("store loaded")
	return accts, err
}

func (l *loggingMiddleware) Save(accts map[string]*Account) error {
	start := time.Now()
	if err := l.next.Save(accts); err != nil {
		l.log.Err(err).Dur("took", time.Since(start)).Msg("store save failed")
		return err
	}
	l.log.Debug().
		Int("accounts", len(accts)).
		Dur("took", time.Since(start)).
		Msg("store saved")
	return nil
}
