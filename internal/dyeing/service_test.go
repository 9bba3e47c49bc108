package dyeing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:dyeing_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Firm{}, &Order{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    func() time.Time { return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestParseOrderStatus(t *testing.T) {
	cases := []struct {
		raw     string
		want    OrderStatus
		wantErr bool
	}{
		{raw: "pending", want: StatusPending},
		{raw: " SENT ", want: StatusSent},
		{raw: "Received", want: StatusReceived},
		{raw: "completed", want: StatusCompleted},
		{raw: "shipped", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseOrderStatus(tc.raw)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownStatus) {
				t.Fatalf("ParseOrderStatus(%q): expected unknown status, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseOrderStatus(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseOrderStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestFindOrCreateFirmDeduplicates(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	first, err := service.FindOrCreateFirm(ctx, "Rainbow Dyers", "Kumar", "111")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := service.FindOrCreateFirm(ctx, "  rainbow  DYERS ", "", "")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("name variants must resolve to the same firm: %d vs %d", first.ID, second.ID)
	}

	firms, err := service.ListFirms(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(firms) != 1 {
		t.Fatalf("expected one firm, got %d", len(firms))
	}
}

func TestCreateOrderWithFirmName(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	order, err := service.CreateOrder(ctx, OrderInput{
		PartyID:  1,
		FirmName: "Rainbow Dyers",
		Count:    "30s",
		Shade:    "navy",
		Quantity: 500,
		SentDate: "2024-03-01",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Status != StatusPending {
		t.Fatalf("new orders must start pending, got %s", order.Status)
	}
	if order.FirmID == 0 {
		t.Fatalf("firm must be resolved by name")
	}

	// a second order for the same firm name reuses the firm
	again, err := service.CreateOrder(ctx, OrderInput{
		PartyID: 1, FirmName: "rainbow dyers", Quantity: 200,
	})
	if err != nil {
		t.Fatalf("second order: %v", err)
	}
	if again.FirmID != order.FirmID {
		t.Fatalf("expected firm reuse, got %d vs %d", again.FirmID, order.FirmID)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.CreateOrder(ctx, OrderInput{FirmName: "Rainbow Dyers", Quantity: 10}); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected invalid order without party, got %v", err)
	}
	if _, err := service.CreateOrder(ctx, OrderInput{PartyID: 1, FirmName: "Rainbow Dyers"}); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected invalid order with zero quantity, got %v", err)
	}
	if _, err := service.CreateOrder(ctx, OrderInput{PartyID: 1, FirmID: 99, Quantity: 10}); !errors.Is(err, ErrFirmNotFound) {
		t.Fatalf("expected unknown firm, got %v", err)
	}
}

func TestOrderLifecycleTransitions(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	order, err := service.CreateOrder(ctx, OrderInput{
		PartyID: 1, FirmName: "Rainbow Dyers", Quantity: 500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// skipping sent is forbidden
	if _, err := service.TransitionOrder(ctx, order.ID, StatusReceived, 0, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition pending->received, got %v", err)
	}

	if _, err := service.TransitionOrder(ctx, order.ID, StatusSent, 0, ""); err != nil {
		t.Fatalf("pending->sent: %v", err)
	}
	received, err := service.TransitionOrder(ctx, order.ID, StatusReceived, 480, "2024-03-20")
	if err != nil {
		t.Fatalf("sent->received: %v", err)
	}
	if received.ReceivedQuantity != 480 || received.ReceivedDate != "2024-03-20" {
		t.Fatalf("received fields not applied: %+v", received)
	}
	if _, err := service.TransitionOrder(ctx, order.ID, StatusCompleted, 0, ""); err != nil {
		t.Fatalf("received->completed: %v", err)
	}

	// a completed order can be reopened back to sent
	reopened, err := service.TransitionOrder(ctx, order.ID, StatusSent, 0, "")
	if err != nil {
		t.Fatalf("completed->sent reopen: %v", err)
	}
	if reopened.Status != StatusSent {
		t.Fatalf("expected sent after reopen, got %s", reopened.Status)
	}
}

func TestListOrdersFilters(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	firm, err := service.FindOrCreateFirm(ctx, "Rainbow Dyers", "", "")
	if err != nil {
		t.Fatalf("firm: %v", err)
	}
	for _, partyID := range []uint{1, 1, 2} {
		if _, err := service.CreateOrder(ctx, OrderInput{
			PartyID: partyID, FirmID: firm.ID, Quantity: 100,
		}); err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}
	last, err := service.ListOrders(ctx, OrderFilter{PartyID: 2})
	if err != nil {
		t.Fatalf("list party 2: %v", err)
	}
	if len(last) != 1 {
		t.Fatalf("expected 1 order for party 2, got %d", len(last))
	}
	if _, err := service.TransitionOrder(ctx, last[0].ID, StatusSent, 0, ""); err != nil {
		t.Fatalf("transition: %v", err)
	}

	pending, err := service.ListOrders(ctx, OrderFilter{Status: StatusPending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending orders, got %d", len(pending))
	}

	all, err := service.ListOrders(ctx, OrderFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}
	if all[0].ID < all[2].ID {
		t.Fatalf("expected newest first ordering")
	}
}

func TestDeleteOrder(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	order, err := service.CreateOrder(ctx, OrderInput{PartyID: 1, FirmName: "Rainbow Dyers", Quantity: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := service.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := service.DeleteOrder(ctx, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
