package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"loan-ledger/internal/event"
	"loan-ledger/internal/pkg/apperrors"

	"github.com/google/uuid"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, input NewCustomerInput) (*Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
	ListCustomers(ctx context.Context, search string) ([]*Customer, error)
	CountCustomers(ctx context.Context) (int, error)
	DeleteCustomer(ctx context.Context, customerID string) error
}

type EventPublisher interface {
	PublishCustomerCreated(ctx context.Context, event event.CustomerCreatedEvent) error
	PublishCustomerDeleted(ctx context.Context, event event.CustomerDeletedEvent) error
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    EventPublisher
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewCustomerService(repo CustomerRepository, pub EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("No logger provided to NewCustomerService, using default stderr handler")
	}
	if pub == nil {
		pub = event.NewLogPublisher(logger)
	}

	return &customerService{
		repo:   repo,
		pub:    pub,
		logger: logger.With(slog.String("component", "customerService")),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, input NewCustomerInput) (*Customer, error) {
	input.normalize()
	if err := input.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Customer validation failed", slog.Any("error", err))
		return nil, err
	}
	logger := s.logger.With(slog.String("idType", string(input.IDType)))

	existing, err := s.repo.FindByIDProof(ctx, input.IDType, input.IDNumber)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.ErrorContext(ctx, "Repository error checking ID proof", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check existing customer: %w", err)
	}
	if existing != nil {
		logger.WarnContext(ctx, "Customer with this ID proof already exists", slog.String("customerID", existing.ID))
		return nil, fmt.Errorf("%w: a customer with this ID already exists", apperrors.ErrAlreadyExists)
	}

	cust := NewCustomer(s.newID(), input, s.now().UTC())
	if err := s.repo.Create(ctx, cust); err != nil {
		logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}
	logger = logger.With(slog.String("customerID", cust.ID))

	created := event.CustomerCreatedEvent{
		Timestamp: s.now().UTC(),
		Payload: event.CustomerEventPayload{
			CustomerID: cust.ID,
			Name:       cust.Name,
			Phone:      cust.Phone,
			IDType:     string(cust.IDType),
			IDNumber:   cust.IDNumber,
			CreatedAt:  cust.CreatedAt,
		},
	}
	if pubErr := s.pub.PublishCustomerCreated(ctx, created); pubErr != nil {
		logger.ErrorContext(ctx, "Customer created, but failed to publish creation event", slog.Any("error", pubErr))
	}

	logger.InfoContext(ctx, "Successfully created new customer")
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found", slog.String("customerID", customerID))
			return nil, fmt.Errorf("%w: customer %s", apperrors.ErrNotFound, customerID)
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.String("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %s: %w", customerID, err)
	}
	return cust, nil
}

func (s *customerService) ListCustomers(ctx context.Context, search string) ([]*Customer, error) {
	search = strings.TrimSpace(search)
	customers, err := s.repo.Search(ctx, search)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.String("search", search), slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	s.logger.DebugContext(ctx, "Listed customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) CountCustomers(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error counting customers", slog.Any("error", err))
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return n, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID string) error {
	logger := s.logger.With(slog.String("customerID", customerID))

	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return err
	}

	active, err := s.repo.HasActiveLoan(ctx, customerID)
	if err != nil {
		logger.ErrorContext(ctx, "Repository error checking active loans", slog.Any("error", err))
		return fmt.Errorf("failed to check active loans for customer %s: %w", customerID, err)
	}
	if active {
		logger.WarnContext(ctx, "Refusing to delete customer with an active loan")
		return fmt.Errorf("%w: customer %s has an active loan", apperrors.ErrLoanActive, customerID)
	}

	if err := s.repo.Delete(ctx, customerID); err != nil {
		logger.ErrorContext(ctx, "Repository failed to delete customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %s: %w", customerID, err)
	}

	if pubErr := s.pub.PublishCustomerDeleted(ctx, event.CustomerDeletedEvent{Timestamp: s.now().UTC(), CustomerID: customerID}); pubErr != nil {
		logger.ErrorContext(ctx, "Customer deleted, but failed to publish deletion event", slog.Any("error", pubErr))
	}
	logger.InfoContext(ctx, "Customer deleted")
	return nil
}
