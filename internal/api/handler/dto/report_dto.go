package dto

import "loan-ledger/internal/domain/report"

type PeriodResponse struct {
	Disbursed string `json:"disbursed"`
	Collected string `json:"collected"`
}

type DashboardResponse struct {
	TotalCustomers    int            `json:"totalCustomers"`
	ActiveLoans       int            `json:"activeLoans"`
	ClosedLoans       int            `json:"closedLoans"`
	OverdueLoans      int            `json:"overdueLoans"`
	TotalDisbursed    string         `json:"totalDisbursed"`
	OutstandingAmount string         `json:"outstandingAmount"`
	TotalCollected    string         `json:"totalCollected"`
	Daily             PeriodResponse `json:"daily"`
	Weekly            PeriodResponse `json:"weekly"`
	Monthly           PeriodResponse `json:"monthly"`
	GeneratedOn       string         `json:"generatedOn"`
}

func newPeriodResponse(p report.Period) PeriodResponse {
	return PeriodResponse{Disbursed: money(p.Disbursed), Collected: money(p.Collected)}
}

func NewDashboardResponse(s report.Summary) DashboardResponse {
	return DashboardResponse{
		TotalCustomers:    s.TotalCustomers,
		ActiveLoans:       s.ActiveLoans,
		ClosedLoans:       s.ClosedLoans,
		OverdueLoans:      s.OverdueLoans,
		TotalDisbursed:    money(s.TotalDisbursed),
		OutstandingAmount: money(s.OutstandingAmount),
		TotalCollected:    money(s.TotalCollected),
		Daily:             newPeriodResponse(s.Daily),
		Weekly:            newPeriodResponse(s.Weekly),
		Monthly:           newPeriodResponse(s.Monthly),
		GeneratedOn:       formatDate(s.GeneratedOn),
	}
}
