package dashboard

import (
	"context"
	"math"
	"testing"

	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/dyeing"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/parties"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/production"
)

type fakeProductionView struct {
	entries []production.CombinedEntry
}

func (f *fakeProductionView) ListCombined(_ context.Context, filter production.Filter) (production.CombinedPage, error) {
	// single-page view; the service loops until TotalPages is reached
	if filter.Page > 1 {
		return production.CombinedPage{Page: filter.Page, TotalPages: 1}, nil
	}
	return production.CombinedPage{
		Items:      f.entries,
		Total:      int64(len(f.entries)),
		Page:       1,
		TotalPages: 1,
	}, nil
}

type fakeOrderLister struct {
	orders []dyeing.Order
}

func (f *fakeOrderLister) ListOrders(context.Context, dyeing.OrderFilter) ([]dyeing.Order, error) {
	return f.orders, nil
}

type fakePartyLister struct {
	parties []parties.Party
}

func (f *fakePartyLister) List(context.Context) ([]parties.Party, error) {
	return f.parties, nil
}

func newTestDashboard(t *testing.T, view *fakeProductionView, orders *fakeOrderLister, registry *fakePartyLister) *Service {
	t.Helper()
	if view == nil {
		view = &fakeProductionView{}
	}
	if orders == nil {
		orders = &fakeOrderLister{}
	}
	if registry == nil {
		registry = &fakePartyLister{}
	}
	service, err := NewService(ServiceConfig{Production: view, Orders: orders, Parties: registry})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestYarnSummaryGroupsByType(t *testing.T) {
	view := &fakeProductionView{entries: []production.CombinedEntry{
		{YarnType: "cotton 30s", Total: 100, Percentage: 80},
		{YarnType: "cotton 30s", Total: 60, Percentage: 90},
		{YarnType: "", Total: 40, Percentage: 70},
	}}
	service := newTestDashboard(t, view, nil, nil)

	summaries, err := service.YarnSummary(context.Background(), 1, "", "")
	if err != nil {
		t.Fatalf("yarn summary: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 yarn types, got %d", len(summaries))
	}
	cotton := summaries[0]
	if cotton.YarnType != "cotton 30s" || cotton.TotalQuantity != 160 || cotton.EntryCount != 2 {
		t.Fatalf("cotton bucket wrong: %+v", cotton)
	}
	if math.Abs(cotton.AveragePercentage-85) > 1e-9 {
		t.Fatalf("expected average 85, got %v", cotton.AveragePercentage)
	}
	if summaries[1].YarnType != "unspecified" {
		t.Fatalf("blank yarn types must bucket as unspecified: %+v", summaries[1])
	}
}

func TestMachineSummaryGroupsByMachine(t *testing.T) {
	view := &fakeProductionView{entries: []production.CombinedEntry{
		{UnitID: 1, MachineNumber: 7, Total: 100, Percentage: 80},
		{UnitID: 1, MachineNumber: 7, Total: 50, Percentage: 60},
		{UnitID: 2, MachineNumber: 3, Total: 40, Percentage: 90},
	}}
	service := newTestDashboard(t, view, nil, nil)

	summaries, err := service.MachineSummary(context.Background(), 0, "", "")
	if err != nil {
		t.Fatalf("machine summary: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 machines, got %d", len(summaries))
	}
	first := summaries[0]
	if first.UnitID != 1 || first.MachineNumber != 7 {
		t.Fatalf("expected unit/machine ordering, got %+v", summaries)
	}
	if first.TotalQuantity != 150 || first.EntryCount != 2 || math.Abs(first.AveragePercentage-70) > 1e-9 {
		t.Fatalf("machine 7 bucket wrong: %+v", first)
	}
}

func TestPartySummaryCountsOrders(t *testing.T) {
	registry := &fakePartyLister{parties: []parties.Party{
		{ID: 1, Name: "ABC Textiles"},
		{ID: 2, Name: "XYZ Mills"},
	}}
	orders := &fakeOrderLister{orders: []dyeing.Order{
		{PartyID: 1, Status: dyeing.StatusPending, Quantity: 100},
		{PartyID: 1, Status: dyeing.StatusCompleted, Quantity: 200, ReceivedQuantity: 190},
		{PartyID: 9, Status: dyeing.StatusPending, Quantity: 50}, // deleted party
	}}
	service := newTestDashboard(t, nil, orders, registry)

	summaries, err := service.PartySummary(context.Background())
	if err != nil {
		t.Fatalf("party summary: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 parties including the orphan, got %d", len(summaries))
	}

	top := summaries[0]
	if top.PartyID != 1 || top.PartyName != "ABC Textiles" {
		t.Fatalf("expected busiest party first, got %+v", top)
	}
	if top.TotalOrders != 2 || top.PendingOrders != 1 || top.CompletedOrders != 1 {
		t.Fatalf("order counts wrong: %+v", top)
	}
	if top.TotalQuantity != 300 || top.ReceivedQuantity != 190 {
		t.Fatalf("quantities wrong: %+v", top)
	}

	var orphanSeen, idleSeen bool
	for _, summary := range summaries[1:] {
		switch summary.PartyID {
		case 9:
			orphanSeen = true
			if summary.PartyName != "" || summary.TotalOrders != 1 {
				t.Fatalf("orphan summary wrong: %+v", summary)
			}
		case 2:
			idleSeen = true
			if summary.TotalOrders != 0 {
				t.Fatalf("idle party must report zero orders: %+v", summary)
			}
		}
	}
	if !orphanSeen || !idleSeen {
		t.Fatalf("expected orphan and idle party summaries: %+v", summaries)
	}
}
