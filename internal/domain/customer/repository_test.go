package customer

import (
	"context"

	"loan-ledger/internal/event"

	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (_m *MockCustomerRepository) Create(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)
	return ret.Error(0)
}

func (_m *MockCustomerRepository) FindByID(ctx context.Context, customerID string) (*Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) FindByIDProof(ctx context.Context, idType IDType, idNumber string) (*Customer, error) {
	ret := _m.Called(ctx, idType, idNumber)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) Search(ctx context.Context, query string) ([]*Customer, error) {
	ret := _m.Called(ctx, query)

	var r0 []*Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) Count(ctx context.Context) (int, error) {
	ret := _m.Called(ctx)
	return ret.Int(0), ret.Error(1)
}

func (_m *MockCustomerRepository) HasActiveLoan(ctx context.Context, customerID string) (bool, error) {
	ret := _m.Called(ctx, customerID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockCustomerRepository) Delete(ctx context.Context, customerID string) error {
	ret := _m.Called(ctx, customerID)
	return ret.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (_m *MockEventPublisher) PublishCustomerCreated(ctx context.Context, evt event.CustomerCreatedEvent) error {
	return _m.Called(ctx, evt).Error(0)
}

func (_m *MockEventPublisher) PublishCustomerDeleted(ctx context.Context, evt event.CustomerDeletedEvent) error {
	return _m.Called(ctx, evt).Error(0)
}

var _ CustomerRepository = (*MockCustomerRepository)(nil)
var _ EventPublisher = (*MockEventPublisher)(nil)
