package subscriber

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/abgdnv/productapi/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAckableMsg struct {
	mock.Mock
}

func (m *mockAckableMsg) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *mockAckableMsg) Subject() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockAckableMsg) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) Nak() error {
	args := m.Called()
	return args.Error(0)
}

func Test_handleMessage(t *testing.T) {
	testCases := []struct {
		name        string
		newMockMsg  func(t *testing.T) *mockAckableMsg
		expectedLog string
	}{
		{
			name: "valid message",
			newMockMsg: func(t *testing.T) *mockAckableMsg {
				validPayload, err := events.ProductDeleted(context.Background(), "42").Payload()
				require.NoError(t, err)
				msg := new(mockAckableMsg)
				msg.On("Data").Return(validPayload).Once()
				msg.On("Subject").Return(messaging.ProductsDeletedSubject)
				msg.On("Ack").Return(nil).Once()
				return msg
			},
			expectedLog: `"product_id":"42"`,
		},
		{
			name: "invalid message",
			newMockMsg: func(t *testing.T) *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte("invalid data")).Once()
				msg.On("Subject").Return(messaging.ProductsCreatedSubject)
				msg.On("Nak").Return(nil).Once()
				return msg
			},
			expectedLog: "failed to unmarshal message",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			mockMsg := tc.newMockMsg(t)

			// when
			handleMessage(context.Background(), mockMsg, logger)

			// then
			mockMsg.AssertExpectations(t)
			assert.Contains(t, buf.String(), tc.expectedLog)
		})
	}
}

func Test_handleMessage_DecodesEvent(t *testing.T) {
	// given
	occurred := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(events.ProductEvent{ProductID: "7", OccurredAt: occurred})
	require.NoError(t, err)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	msg := new(mockAckableMsg)
	msg.On("Data").Return(payload)
	msg.On("Subject").Return(messaging.ProductsUpdatedSubject)
	msg.On("Ack").Return(nil)

	// when
	handleMessage(context.Background(), msg, logger)

	// then
	assert.Contains(t, buf.String(), `"subject":"products.updated"`)
	assert.Contains(t, buf.String(), `"occurred_at":"2025-07-01T12:00:00Z"`)
}

func Test_handleMessage_Nil(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handleMessage(context.Background(), nil, logger)

	assert.Contains(t, buf.String(), "received nil message")
}
