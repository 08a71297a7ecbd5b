package services

import (
	"github.com/stretchr/testify/mock"

	"bitewatch/pkg/contracts/events"
)

// MockWebSocketHub is a mock for the WebSocketHub interface
type MockWebSocketHub struct {
	mock.Mock
}

func (m *MockWebSocketHub) Broadcast(msg events.Message) {
	m.Called(msg)
}

func (m *MockWebSocketHub) ClientCount() int {
	args := m.Called()
	return args.Int(0)
}
