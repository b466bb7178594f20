package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"blog-be/internal/notify"
)

// MockPublisher records every event handed to the notification channel.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev notify.Event) error {
	return m.Called(ctx, ev).Error(0)
}

func newMockPublisher() *MockPublisher {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	return pub
}

func (m *MockPublisher) events() []notify.Event {
	var out []notify.Event
	for _, call := range m.Calls {
		out = append(out, call.Arguments.Get(1).(notify.Event))
	}
	return out
}
