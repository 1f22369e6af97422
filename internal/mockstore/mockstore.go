// Package mockstore provides a testify-based mock of the collection
// operations used by the service package, for simulating store failures
// in service and router tests.
package mockstore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/inoutbooks/internal/collection"
)

// StoreMock implements the find/insert/update/delete set of a collection.
type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Find(ctx context.Context, filter collection.Record) ([]collection.Record, error) {
	args := m.Called(ctx, filter)
	records, _ := args.Get(0).([]collection.Record)
	return records, args.Error(1)
}

func (m *StoreMock) FindOne(ctx context.Context, filter collection.Record) (collection.Record, bool, error) {
	args := m.Called(ctx, filter)
	record, _ := args.Get(0).(collection.Record)
	return record, args.Bool(1), args.Error(2)
}

func (m *StoreMock) InsertOne(ctx context.Context, record any) (collection.Record, error) {
	args := m.Called(ctx, record)
	committed, _ := args.Get(0).(collection.Record)
	return committed, args.Error(1)
}

func (m *StoreMock) UpdateOne(ctx context.Context, filter collection.Record, patch any) error {
	args := m.Called(ctx, filter, patch)
	return args.Error(0)
}

func (m *StoreMock) DeleteOne(ctx context.Context, filter collection.Record) error {
	args := m.Called(ctx, filter)
	return args.Error(0)
}
