package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"eventkpi/pkg/contracts/domain"
)

// MockComparer is a mock for the Comparer interface
type MockComparer struct {
	mock.Mock
}

func (m *MockComparer) Compare(ctx context.Context, cc domain.ComparisonContext) (*domain.ComparisonResult, error) {
	args := m.Called(ctx, cc)
	result, _ := args.Get(0).(*domain.ComparisonResult)
	return result, args.Error(1)
}

// MockBlobStore is a mock for storage.BlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Save(ctx context.Context, key string, data []byte) error {
	return m.Called(ctx, key, data).Error(0)
}

func (m *MockBlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockBlobStore) Name() string { return "mock" }

func (m *MockBlobStore) Close() error { return nil }
