package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abgdnv/productapi/pkg/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testEvent struct{}

func (testEvent) Subject() string          { return ProductsCreatedSubject }
func (testEvent) Payload() ([]byte, error) { return []byte(`{}`), nil }

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) ObservePublish(subject string, err error) {
	m.Called(subject, err)
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), testEvent{}))
}

func TestObservedPublisher(t *testing.T) {
	// given
	ctx := context.Background()
	errBroker := errors.New("broker down")
	next := new(mockPublisher)
	next.On("Publish", ctx, testEvent{}).Return(errBroker).Once()
	observer := new(mockObserver)
	observer.On("ObservePublish", ProductsCreatedSubject, errBroker).Once()

	// when
	err := NewObservedPublisher(next, observer).Publish(ctx, testEvent{})

	// then
	assert.ErrorIs(t, err, errBroker)
	next.AssertExpectations(t)
	observer.AssertExpectations(t)
}

func TestBreakerPublisher(t *testing.T) {
	cfg := config.CircuitBreakerConfig{ConsecutiveFailures: 2, ErrorRatePercent: 50, OpenTimeout: time.Minute}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	errBroker := errors.New("broker down")

	t.Run("Opens after consecutive failures", func(t *testing.T) {
		// given
		next := new(mockPublisher)
		next.On("Publish", ctx, testEvent{}).Return(errBroker).Times(2)
		p := NewBreakerPublisher(next, cfg, logger)

		// when
		err1 := p.Publish(ctx, testEvent{})
		err2 := p.Publish(ctx, testEvent{})
		err3 := p.Publish(ctx, testEvent{})

		// then
		assert.ErrorIs(t, err1, errBroker)
		assert.ErrorIs(t, err2, errBroker)
		assert.ErrorIs(t, err3, gobreaker.ErrOpenState)
		assert.Equal(t, gobreaker.StateOpen, p.State())
		next.AssertNumberOfCalls(t, "Publish", 2)
	})

	t.Run("Stays closed on success", func(t *testing.T) {
		next := new(mockPublisher)
		next.On("Publish", ctx, testEvent{}).Return(nil)
		p := NewBreakerPublisher(next, cfg, logger)

		for range 5 {
			require.NoError(t, p.Publish(ctx, testEvent{}))
		}

		assert.Equal(t, gobreaker.StateClosed, p.State())
	})

	t.Run("Cancelled callers do not trip the breaker", func(t *testing.T) {
		next := new(mockPublisher)
		next.On("Publish", ctx, testEvent{}).Return(context.Canceled)
		p := NewBreakerPublisher(next, cfg, logger)

		for range 5 {
			assert.ErrorIs(t, p.Publish(ctx, testEvent{}), context.Canceled)
		}

		assert.Equal(t, gobreaker.StateClosed, p.State())
	})
}
