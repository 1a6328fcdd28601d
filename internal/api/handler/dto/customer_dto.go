package dto

import (
	"time"

	"loan-ledger/internal/domain/customer"

	"github.com/shopspring/decimal"
)

type CreateCustomerRequest struct {
	Name          string          `json:"name" validate:"required"`
	Phone         string          `json:"phone" validate:"required"`
	Email         string          `json:"email" validate:"omitempty,email"`
	Address       string          `json:"address"`
	IDType        string          `json:"idType" validate:"required"`
	IDNumber      string          `json:"idNumber" validate:"required"`
	Occupation    string          `json:"occupation" validate:"required"`
	MonthlyIncome decimal.Decimal `json:"monthlyIncome"`
}

func (r CreateCustomerRequest) amounts() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{"monthlyIncome": r.MonthlyIncome}
}

// ToInput leaves ID type and income checks to the customer domain.
func (r CreateCustomerRequest) ToInput() customer.NewCustomerInput {
	return customer.NewCustomerInput{
		Name:          r.Name,
		Phone:         r.Phone,
		Email:         r.Email,
		Address:       r.Address,
		IDType:        customer.IDType(r.IDType),
		IDNumber:      r.IDNumber,
		Occupation:    r.Occupation,
		MonthlyIncome: r.MonthlyIncome,
	}
}

type CustomerResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	IDType        string    `json:"idType"`
	IDNumber      string    `json:"idNumber"`
	Occupation    string    `json:"occupation"`
	MonthlyIncome string    `json:"monthlyIncome"`
	KYCStatus     string    `json:"kycStatus"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewCustomerResponse(c *customer.Customer) CustomerResponse {
	if c == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		ID:            c.ID,
		Name:          c.Name,
		Phone:         c.Phone,
		Email:         c.Email,
		Address:       c.Address,
		IDType:        string(c.IDType),
		IDNumber:      c.IDNumber,
		Occupation:    c.Occupation,
		MonthlyIncome: c.MonthlyIncome.StringFixed(2),
		KYCStatus:     string(c.KYCStatus),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type CustomerListResponse struct {
	Customers []CustomerResponse `json:"customers"`
	Count     int                `json:"count"`
}

func NewCustomerListResponse(customers []*customer.Customer) CustomerListResponse {
	resp := CustomerListResponse{Customers: make([]CustomerResponse, len(customers)), Count: len(customers)}
	for i, c := range customers {
		resp.Customers[i] = NewCustomerResponse(c)
	}
	return resp
}
