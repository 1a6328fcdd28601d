package customer

import (
	"strings"
	"time"

	"loan-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type IDType string

const (
	IDAadharCard   IDType = "aadhar_card"
	IDPanCard      IDType = "pan_card"
	IDRationCard   IDType = "ration_card"
	IDVoterID      IDType = "voter_id"
	IDBankPassBook IDType = "bank_pass_book"
	IDGasBook      IDType = "gas_book"
)

var knownIDTypes = map[IDType]struct{}{
	IDAadharCard:   {},
	IDPanCard:      {},
	IDRationCard:   {},
	IDVoterID:      {},
	IDBankPassBook: {},
	IDGasBook:      {},
}

type KYCStatus string

const KYCCompleted KYCStatus = "completed"

type Customer struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email,omitempty"`
	Address       string          `json:"address,omitempty"`
	IDType        IDType          `json:"idType"`
	IDNumber      string          `json:"idNumber"`
	Occupation    string          `json:"occupation"`
	MonthlyIncome decimal.Decimal `json:"monthlyIncome"`
	KYCStatus     KYCStatus       `json:"kycStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewCustomerInput holds the fields an operator supplies when onboarding a borrower.
type NewCustomerInput struct {
	Name          string
	Phone         string
	Email         string
	Address       string
	IDType        IDType
	IDNumber      string
	Occupation    string
	MonthlyIncome decimal.Decimal
}

func (in *NewCustomerInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	in.IDType = IDType(strings.ToLower(strings.TrimSpace(string(in.IDType))))
	in.IDNumber = strings.ToUpper(strings.TrimSpace(in.IDNumber))
	in.Occupation = strings.TrimSpace(in.Occupation)
}

func (in NewCustomerInput) Validate() error {
	switch {
	case in.Name == "":
		return apperrors.NewValidationError("name", "is required")
	case in.Phone == "":
		return apperrors.NewValidationError("phone", "is required")
	case in.IDType == "":
		return apperrors.NewValidationError("idType", "is required")
	case in.IDNumber == "":
		return apperrors.NewValidationError("idNumber", "is required")
	case in.Occupation == "":
		return apperrors.NewValidationError("occupation", "is required")
	case !in.MonthlyIncome.IsPositive():
		return apperrors.NewValidationError("monthlyIncome", "must be greater than zero")
	}
	if _, ok := knownIDTypes[in.IDType]; !ok {
		return apperrors.NewValidationError("idType", "unsupported ID proof "+string(in.IDType))
	}
	return nil
}

func NewCustomer(id string, in NewCustomerInput, now time.Time) *Customer {
	return &Customer{
		ID:            id,
		Name:          in.Name,
		Phone:         in.Phone,
		Email:         in.Email,
		Address:       in.Address,
		IDType:        in.IDType,
		IDNumber:      in.IDNumber,
		Occupation:    in.Occupation,
		MonthlyIncome: in.MonthlyIncome,
		KYCStatus:     KYCCompleted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
