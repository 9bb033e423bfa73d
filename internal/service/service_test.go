package service

import (
	"context"
	"io"
	"sync"

	"backoffice-api/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var tester = model.Actor{ID: "u-1", Name: "Tester", Email: "tester@example.com"}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *eventRecorder) Publish(e model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type mockAssets struct {
	mock.Mock
}

func (m *mockAssets) PutAsset(ctx context.Context, filename string, body io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, filename, body, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockAssets) DeleteAsset(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockAssets) DeleteAssets(ctx context.Context, keys []string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockAssets) URLFor(key string) string {
	return m.Called(key).String(0)
}
