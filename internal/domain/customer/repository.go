package customer

import "context"

type CustomerRepository interface {
	// Create fails with apperrors.ErrAlreadyExists when the ID proof is already registered.
	Create(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID string) (*Customer, error)

	FindByIDProof(ctx context.Context, idType IDType, idNumber string) (*Customer, error)

	Search(ctx context.Context, query string) ([]*Customer, error)

	Count(ctx context.Context) (int, error)

	HasActiveLoan(ctx context.Context, customerID string) (bool, error)

	// Delete removes the customer together with their closed loans and collections.
	Delete(ctx context.Context, customerID string) error
}
