package services_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"butik/internal/domain"
	"butik/internal/repos"
	"butik/internal/services"
)

func seedSales(t *testing.T) (*services.ReportService, *sqlx.DB) {
	t.Helper()
	db := memdb(t)
	db.MustExec(`INSERT INTO users(id,name,email,password_hash,role) VALUES
	  ('u2','Other','other@butik.test','x','user')`)

	// Only selesai orders count toward revenue, net of shipping.
	db.MustExec(`INSERT INTO orders(id,user_id,status,total_price,shipping_method,shipping_address,shipping_cost,created_at) VALUES
	  ('o1','u1','selesai',    103,'JNE','a',3,'2026-01-10 09:00:00'),
	  ('o2','u1','selesai',     55,'JNE','a',5,'2026-01-11 10:00:00'),
	  ('o3','u2','selesai',    210,'JNE','b',10,'2026-02-01 12:00:00'),
	  ('o4','u1','dikirim',    999,'JNE','a',9,'2026-01-12 08:00:00'),
	  ('o5','u2','dibatalkan', 888,'JNE','b',8,'2026-01-13 08:00:00'),
	  ('o6','u1','selesai',     77,'JNE','a',7,'2025-06-01 08:00:00')`)

	db.MustExec(`INSERT INTO order_items(id,order_id,product_id,quantity,unit_price) VALUES
	  ('i1','o1','p1',10,10),
	  ('i2','o2','p2',10, 5),
	  ('i3','o3','p1',20,10),
	  ('i4','o4','p1', 1,10)`)

	return services.NewReportService(repos.NewReportRepo(db)), db
}

func TestSalesReportAdmin(t *testing.T) {
	svc, _ := seedSales(t)

	rep, err := svc.Sales("u-admin", "admin", "2026-01-01", "2026-02-28")
	if err != nil {
		t.Fatal(err)
	}

	s := rep.Summary
	if s.TotalOrders != 5 {
		t.Fatalf("total_orders = %d, want 5", s.TotalOrders)
	}
	if s.CompletedOrders != 3 || s.CancelledOrders != 1 {
		t.Fatalf("completed/cancelled = %d/%d, want 3/1", s.CompletedOrders, s.CancelledOrders)
	}
	// (103-3) + (55-5) + (210-10) = 350; o4/o5 excluded, o6 out of range
	if s.TotalRevenue != 350 {
		t.Fatalf("total_revenue = %v, want 350", s.TotalRevenue)
	}
	if s.UniqueCustomers != 2 {
		t.Fatalf("unique_customers = %d, want 2", s.UniqueCustomers)
	}

	if len(rep.Daily) != 5 {
		t.Fatalf("daily buckets = %d, want 5", len(rep.Daily))
	}
	if len(rep.Monthly) != 2 {
		t.Fatalf("monthly buckets = %d, want 2", len(rep.Monthly))
	}

	if len(rep.TopProducts) == 0 || rep.TopProducts[0].ProductID != "p1" {
		t.Fatalf("top product should be p1: %+v", rep.TopProducts)
	}
	// p1 sold on o1 (10) and o3 (20); o4 is dikirim and does not count
	if rep.TopProducts[0].TotalSold != 30 {
		t.Fatalf("p1 total_sold = %d, want 30", rep.TopProducts[0].TotalSold)
	}

	if len(rep.TopCustomers) != 2 {
		t.Fatalf("top customers = %d, want 2", len(rep.TopCustomers))
	}
	// u2 spent 200, u1 spent 150
	if rep.TopCustomers[0].UserID != "u2" || rep.TopCustomers[0].TotalSpent != 200 {
		t.Fatalf("top customer wrong: %+v", rep.TopCustomers[0])
	}
}

func TestSalesReportScopesNonAdmin(t *testing.T) {
	svc, _ := seedSales(t)

	rep, err := svc.Sales("u1", "user", "2026-01-01", "2026-02-28")
	if err != nil {
		t.Fatal(err)
	}
	// u1's selesai orders in range: o1 (100 net) and o2 (50 net)
	if rep.Summary.TotalRevenue != 150 {
		t.Fatalf("total_revenue = %v, want 150", rep.Summary.TotalRevenue)
	}
	if rep.Summary.CompletedOrders != 2 {
		t.Fatalf("completed = %d, want 2", rep.Summary.CompletedOrders)
	}
	if rep.TopCustomers != nil {
		t.Fatal("non-admin must not receive the customer breakdown")
	}
}

func TestSalesReportRejectsBadDates(t *testing.T) {
	svc, _ := seedSales(t)

	_, err := svc.Sales("u-admin", "admin", "01/01/2026", "2026-02-28")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}
