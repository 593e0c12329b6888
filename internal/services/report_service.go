package services

import (
	"fmt"
	"time"

	"butik/internal/domain"
	"butik/internal/repos"
)

type ReportService struct {
	Reports *repos.ReportRepo
}

func NewReportService(reports *repos.ReportRepo) *ReportService {
	return &ReportService{Reports: reports}
}

type SalesReport struct {
	DateRange struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date_range"`
	Summary      repos.SalesSummary  `json:"summary"`
	Daily        []repos.SalesBucket `json:"daily"`
	Weekly       []repos.SalesBucket `json:"weekly"`
	Monthly      []repos.SalesBucket `json:"monthly"`
	TopProducts  []repos.TopProduct  `json:"top_products"`
	TopCustomers []repos.TopCustomer `json:"top_customers,omitempty"`
}

// Sales builds the full report for a date range. Non-admin callers are
// scoped to their own orders and never see the customer breakdown.
func (s *ReportService) Sales(callerID, callerRole, start, end string) (SalesReport, error) {
	if start == "" || end == "" {
		now := time.Now()
		start = now.AddDate(-1, 0, 0).Format("2006-01-02")
		end = now.Format("2006-01-02")
	}
	for _, d := range []string{start, end} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return SalesReport{}, fmt.Errorf("%w: dates must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
	}

	scope := ""
	if callerRole != "admin" {
		scope = callerID
	}

	var rep SalesReport
	rep.DateRange.Start, rep.DateRange.End = start, end

	var err error
	if rep.Summary, err = s.Reports.Summary(start, end, scope); err != nil {
		return SalesReport{}, err
	}
	if rep.Daily, err = s.Reports.Buckets(start, end, scope, "%Y-%m-%d", 30); err != nil {
		return SalesReport{}, err
	}
	if rep.Weekly, err = s.Reports.Buckets(start, end, scope, "%Y-W%W", 12); err != nil {
		return SalesReport{}, err
	}
	if rep.Monthly, err = s.Reports.Buckets(start, end, scope, "%Y-%m", 12); err != nil {
		return SalesReport{}, err
	}
	if rep.TopProducts, err = s.Reports.TopProducts(start, end, scope, 10); err != nil {
		return SalesReport{}, err
	}
	if callerRole == "admin" {
		if rep.TopCustomers, err = s.Reports.TopCustomers(start, end, 10); err != nil {
			return SalesReport{}, err
		}
	}
	return rep, nil
}
