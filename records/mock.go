package records

import (
	"context"

	"github.com/ruteri/eir-deployer/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockRecordStore mocks the RecordStore interface
type MockRecordStore struct {
	mock.Mock
}

// Load mocks the Load method
func (m *MockRecordStore) Load(ctx context.Context, network, name string) (*interfaces.DeploymentRecord, error) {
	args := m.Called(ctx, network, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.DeploymentRecord), args.Error(1)
}

// Save mocks the Save method
func (m *MockRecordStore) Save(ctx context.Context, rec *interfaces.DeploymentRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// List mocks the List method
func (m *MockRecordStore) List(ctx context.Context, network string) ([]interfaces.DeploymentRecord, error) {
	args := m.Called(ctx, network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.DeploymentRecord), args.Error(1)
}

// LocationURI mocks the LocationURI method
func (m *MockRecordStore) LocationURI() string {
	return "mock:"
}
