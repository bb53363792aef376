package subscriber

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/productapi/pkg/config"
	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/abgdnv/productapi/pkg/messaging/events"
	pnats "github.com/abgdnv/productapi/pkg/nats"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"golang.org/x/sync/errgroup"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "PRODUCTAPI_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// SubscriberSuite runs the publisher and the subscriber against a real JetStream server.
type SubscriberSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

func (s *SubscriberSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	s.nc, err = pnats.NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = pnats.NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to get JetStream context")
}

func (s *SubscriberSuite) TearDownSuite() {
	s.nc.Close()
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

func TestSubscriberIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(SubscriberSuite))
}

func (s *SubscriberSuite) TestPublishedEventsAreConsumed() {
	// given
	stream := "PRODUCTS_" + uuid.NewString()[:8]
	consumer := "CONSUMER_" + uuid.NewString()[:8]
	require.NoError(s.T(), pnats.EnsureStream(s.ctx, s.js, stream, messaging.ProductsSubjects))

	testCtx, testCancel := context.WithTimeout(s.ctx, 10*time.Second)
	g, gCtx := errgroup.WithContext(testCtx)
	s.T().Cleanup(func() {
		testCancel()
		require.ErrorIs(s.T(), g.Wait(), context.Canceled)
		require.NoError(s.T(), s.js.DeleteStream(s.ctx, stream))
	})

	cfg := config.SubscriberConfig{
		Subject:  messaging.ProductsSubjects,
		Consumer: consumer,
		Batch:    10,
		Timeout:  200 * time.Millisecond,
		Interval: 10 * time.Millisecond,
		Workers:  2,
	}
	g.Go(func() error {
		return Start(gCtx, s.js, stream, cfg, s.logger)
	})

	// when
	publisher := pnats.NewNatsPublisher(s.js, time.Second)
	require.NoError(s.T(), publisher.Publish(s.ctx, events.ProductCreated(s.ctx, "42", map[string]any{"name": "Tablet"})))
	require.NoError(s.T(), publisher.Publish(s.ctx, events.ProductDeleted(s.ctx, "42")))

	// then
	require.Eventually(s.T(), func() bool {
		c, err := s.js.Consumer(s.ctx, stream, consumer)
		if err != nil {
			return false
		}
		info, err := c.Info(s.ctx)
		if err != nil {
			return false
		}
		return info.NumPending == 0 && info.NumAckPending == 0 && info.AckFloor.Stream == 2
	}, 5*time.Second, 100*time.Millisecond, "events were not acknowledged in time")
}
