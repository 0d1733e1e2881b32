package atmxgo_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/arhyth/atmxgo"
	"github.com/arhyth/atmxgo/mocks"
)

func TestBreakerMiddleware(t *testing.T) {
	t.Run("opens after consecutive save failures and fails fast", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockStore(ctrl)
		next.EXPECT().
			Save(gomock.Any()).
			Return(errDiskFull).
			Times(2)

		store := atmxgo.NewBreakerMiddleware(atmxgo.BreakerSettings{
			MaxFailures: 2,
			Timeout:     time.Minute,
		})(next)

		as.ErrorIs(store.Save(atmxgo.DefaultAccounts()), errDiskFull)
		as.ErrorIs(store.Save(atmxgo.DefaultAccounts()), errDiskFull)

		// next is not called again while open
		err := store.Save(atmxgo.DefaultAccounts())
		as.ErrorAs(err, &atmxgo.ErrPersistence{})
		as.ErrorIs(err, gobreaker.ErrOpenState)
		_, err = store.Load()
		as.ErrorAs(err, &atmxgo.ErrPersistence{})
		as.ErrorIs(err, gobreaker.ErrOpenState)
	})

	t.Run("a success resets the failure count", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockStore(ctrl)
		gomock.InOrder(
			next.EXPECT().Save(gomock.Any()).Return(errDiskFull),
			next.EXPECT().Save(gomock.Any()).Return(nil),
			next.EXPECT().Save(gomock.Any()).Return(errDiskFull),
			next.EXPECT().Save(gomock.Any()).Return(nil),
		)

		store := atmxgo.NewBreakerMiddleware(atmxgo.BreakerSettings{
			MaxFailures: 2,
			Timeout:     time.Minute,
		})(next)
		as.Error(store.Save(nil))
		as.NoError(store.Save(nil))
		as.Error(store.Save(nil))
		as.NoError(store.Save(nil))
	})

	t.Run("a missing store does not count as a failure", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockStore(ctrl)
		next.EXPECT().
			Load().
			Return(nil, atmxgo.ErrStoreNotFound).
			Times(3)

		store := atmxgo.NewBreakerMiddleware(atmxgo.BreakerSettings{
			MaxFailures: 1,
			Timeout:     time.Minute,
		})(next)
		for range 3 {
			_, err := store.Load()
			as.ErrorIs(err, atmxgo.ErrStoreNotFound)
		}
	})

	t.Run("lets a probe through after the timeout", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		next := mocks.NewMockStore(ctrl)
		gomock.InOrder(
			next.EXPECT().Load().Return(nil, errDiskFull),
			next.EXPECT().Load().Return(atmxgo.DefaultAccounts(), nil),
		)

		store := atmxgo.NewBreakerMiddleware(atmxgo.BreakerSettings{
			MaxFailures: 1,
			Timeout:     20 * time.Millisecond,
		})(next)
		_, err := store.Load()
		as.ErrorIs(err, errDiskFull)
		_, err = store.Load()
		as.ErrorIs(err, gobreaker.ErrOpenState)

		time.Sleep(40 * time.Millisecond)
		accts, err := store.Load()
		as.NoError(err)
		as.Len(accts, 2)
	})
}

func TestLoggingMiddleware(t *testing.T) {
	as := assert.New(t)
	ctrl := gomock.NewController(t)
	next := mocks.NewMockStore(ctrl)
	next.EXPECT().Load().Return(atmxgo.DefaultAccounts(), nil)
	next.EXPECT().Save(gomock.Any()).Return(errDiskFull)

	log := zerolog.Nop()
	store := atmxgo.NewLoggingMiddleware(&log)(next)

	accts, err := store.Load()
	as.NoError(err)
	as.Len(accts, 2)
	as.ErrorIs(store.Save(accts), errDiskFull)
}

type recordingStore struct {
	name  string
	calls *[]string
	next  atmxgo.Store
}

func (r *recordingStore) Load() (map[string]*atmxgo.Account, error) {
	*r.calls = append(*r.calls, r.name)
	return r.next.Load()
}

func (r *recordingStore) Save(accts map[string]*atmxgo.Account) error {
	*r.calls = append(*r.calls, r.name)
	return r.next.Save(accts)
}

func TestChain(t *testing.T) {
	as := assert.New(t)
	ctrl := gomock.NewController(t)
	base := mocks.NewMockStore(ctrl)
	base.EXPECT().Save(gomock.Any()).Return(errors.New("boom"))

	var calls []string
	record := func(name string) atmxgo.Middleware {
		return func(next atmxgo.Store) atmxgo.Store {
			return &recordingStore{name: name, calls: &calls, next: next}
		}
	}

	store := atmxgo.Chain(base, record("outer"), record("inner"))
	as.EqualError(store.Save(nil), "boom")
	as.Equal([]string{"outer", "inner"}, calls)
}
