package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockPhotoStore struct {
	mock.Mock
}

func (m *MockPhotoStore) Save(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockPhotoStore) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

var _ PhotoStore = (*MockPhotoStore)(nil)
