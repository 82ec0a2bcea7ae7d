package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lexuanthang19/food-deli-deploy/internal/broadcast"
	"github.com/lexuanthang19/food-deli-deploy/internal/inventory"
	"github.com/lexuanthang19/food-deli-deploy/internal/model"
	"github.com/lexuanthang19/food-deli-deploy/internal/repository"
	"github.com/lexuanthang19/food-deli-deploy/internal/tables"
)

// ---- fakes -------------------------------------------------------------

type memMenu struct {
	rows map[uint64]repository.StockRow
}

func (m *memMenu) GetByIDs(_ context.Context, ids []uint64) (map[uint64]repository.StockRow, error) {
	out := make(map[uint64]repository.StockRow)
	for _, id := range ids {
		if row, ok := m.rows[id]; ok {
			out[id] = row
		}
	}
	return out, nil
}

// memLedger implements the ledger contract in memory: reservation checks
// and decrements happen under one lock, mirroring the serialized
// conditional update the SQL ledger performs per item.
type memLedger struct {
	mu       sync.Mutex
	stock    map[uint64]int64
	tracked  map[uint64]bool
	names    map[uint64]string
	releases int
}

func (l *memLedger) Reserve(_ context.Context, items []model.OrderItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	wanted := map[uint64]int64{}
	for _, it := range items {
		wanted[it.MenuItemID] += it.Quantity
	}
	var short []inventory.Shortage
	for id, qty := range wanted {
		if l.tracked[id] && l.stock[id] < qty {
			short = append(short, inventory.Shortage{
				MenuItemID: id, Name: l.names[id], Available: l.stock[id], Requested: qty,
			})
		}
	}
	if len(short) > 0 {
		return &inventory.InsufficientStockError{Items: short}
	}
	for id, qty := range wanted {
		if l.tracked[id] {
			l.stock[id] -= qty
		}
	}
	return nil
}

func (l *memLedger) Release(_ context.Context, items []model.OrderItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
	for _, it := range items {
		if l.tracked[it.MenuItemID] {
			l.stock[it.MenuItemID] += it.Quantity
		}
	}
	return nil
}

func (l *memLedger) stockOf(id uint64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[id]
}

type memOrders struct {
	mu         sync.Mutex
	seq        uint64
	orders     map[uint64]*model.Order
	failCreate bool
}

func newMemOrders() *memOrders { return &memOrders{orders: map[uint64]*model.Order{}} }

func (s *memOrders) Create(_ context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return errors.New("store down")
	}
	s.seq++
	o.ID = s.seq
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *memOrders) GetByID(_ context.Context, id uint64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memOrders) UpdateStatus(_ context.Context, id uint64, status model.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (s *memOrders) SetPaid(_ context.Context, id uint64, status model.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.Payment = true
		o.Status = status
	}
	return nil
}

func (s *memOrders) MarkStockReleased(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.StockReleased {
		return false, nil
	}
	o.StockReleased = true
	return true, nil
}

func (s *memOrders) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, id)
	return nil
}

func (s *memOrders) ListStalePendingOnline(_ context.Context, cutoff time.Time) ([]*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Order
	for _, o := range s.orders {
		if o.Status == model.StatusPending && o.PaymentMethod == model.PayOnline && !o.Payment && o.CreatedAt.Before(cutoff) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memOrders) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type memTableStore struct {
	mu     sync.Mutex
	tables map[uint64]*model.Table
}

func (s *memTableStore) GetByID(_ context.Context, id uint64) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTableStore) UpdateStatus(_ context.Context, id uint64, status model.TableStatus) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.Status = status
	cp := *t
	return &cp, nil
}

type memBranches struct {
	ids map[uint64]bool
}

func (b *memBranches) GetByID(_ context.Context, id uint64) (*model.Branch, error) {
	if !b.ids[id] {
		return nil, repository.ErrNotFound
	}
	return &model.Branch{ID: id, Active: true}, nil
}

type fakeCheckout struct {
	url   string
	err   error
	calls int
}

func (f *fakeCheckout) BeginCheckout(_ context.Context, _ *model.Order) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// ---- fixture -----------------------------------------------------------

const (
	itemPork  uint64 = 1 // tracked, stock 5
	itemRice  uint64 = 2 // untracked
	branchOne uint64 = 7
	tableOne  uint64 = 11
)

type fixture struct {
	coord    *Coordinator
	ledger   *memLedger
	orders   *memOrders
	tables   *memTableStore
	checkout *fakeCheckout
	hub      *broadcast.Hub
}

func newFixture() *fixture {
	menu := &memMenu{rows: map[uint64]repository.StockRow{
		itemPork: {ID: itemPork, Name: "Grilled Pork", PriceCents: 49900, TrackStock: true, Stock: 5},
		itemRice: {ID: itemRice, Name: "Broken Rice", PriceCents: 3500},
	}}
	ledger := &memLedger{
		stock:   map[uint64]int64{itemPork: 5},
		tracked: map[uint64]bool{itemPork: true},
		names:   map[uint64]string{itemPork: "Grilled Pork"},
	}
	orders := newMemOrders()
	tableStore := &memTableStore{tables: map[uint64]*model.Table{
		tableOne: {ID: tableOne, BranchID: branchOne, Label: "A3", Status: model.TableAvailable},
	}}
	hub := broadcast.New()
	checkout := &fakeCheckout{url: "https://checkout.example/session/abc"}
	coord := &Coordinator{
		Menu:     menu,
		Ledger:   ledger,
		Orders:   orders,
		Tables:   tables.NewRegistry(tableStore, hub),
		Branches: &memBranches{ids: map[uint64]bool{branchOne: true}},
		Checkout: checkout,
		Hub:      hub,
	}
	return &fixture{coord: coord, ledger: ledger, orders: orders, tables: tableStore, checkout: checkout, hub: hub}
}

func idPtr(id uint64) *uint64 { return &id }

// ---- tests -------------------------------------------------------------

func TestPlaceOrderPayInPersonConfirmsDirectly(t *testing.T) {
	f := newFixture()
	events, cancel := f.hub.Subscribe(8, broadcast.RoomGlobal)
	defer cancel()

	res, err := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:        42,
		Items:         []ItemRequest{{MenuItemID: itemPork, Quantity: 2}},
		Kind:          model.KindDelivery,
		PaymentMethod: model.PayInPerson,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.RedirectURL != "" {
		t.Fatalf("pay-in-person order must not redirect, got %q", res.RedirectURL)
	}
	if res.Order.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want Confirmed", res.Order.Status)
	}
	if res.Order.AmountCents != 100000 {
		t.Fatalf("amount = %d, want 100000 (2x49900 + delivery surcharge)", res.Order.AmountCents)
	}
	if f.checkout.calls != 0 {
		t.Fatal("BeginCheckout must not be called for pay-in-person orders")
	}

	// exactly one order-created event
	select {
	case ev := <-events:
		if ev.Type != broadcast.TypeOrderCreated {
			t.Fatalf("event type = %s, want %s", ev.Type, broadcast.TypeOrderCreated)
		}
	default:
		t.Fatal("expected an order-created event")
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event %s", ev.Type)
	default:
	}
}

func TestPlaceOrderOnlineReturnsRedirectAndStaysPending(t *testing.T) {
	f := newFixture()
	res, err := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:        42,
		Items:         []ItemRequest{{MenuItemID: itemPork, Quantity: 1}},
		Kind:          model.KindTakeaway,
		PaymentMethod: model.PayOnline,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.RedirectURL != "https://checkout.example/session/abc" {
		t.Fatalf("redirect = %q", res.RedirectURL)
	}
	stored, err := f.orders.GetByID(context.Background(), res.Order.ID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if stored.Status != model.StatusPending || stored.Payment {
		t.Fatalf("online order must stay Pending and unsettled, got %s paid=%v", stored.Status, stored.Payment)
	}
}

func TestPlaceOrderRejectsBadRequests(t *testing.T) {
	f := newFixture()
	cases := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"no items", PlaceOrderRequest{UserID: 1}},
		{"zero quantity", PlaceOrderRequest{UserID: 1, Items: []ItemRequest{{MenuItemID: itemPork, Quantity: 0}}}},
		{"unknown item", PlaceOrderRequest{UserID: 1, Items: []ItemRequest{{MenuItemID: 999, Quantity: 1}}}},
		{"table on delivery order", PlaceOrderRequest{
			UserID: 1,
			Items:  []ItemRequest{{MenuItemID: itemPork, Quantity: 1}},
			Kind:   model.KindDelivery, TableID: idPtr(tableOne),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.coord.PlaceOrder(context.Background(), tc.req); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
	if f.ledger.stockOf(itemPork) != 5 {
		t.Fatal("rejected requests must not touch stock")
	}
	if f.orders.count() != 0 {
		t.Fatal("rejected requests must not persist orders")
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	f := newFixture()
	_, err := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:        1,
		Items:         []ItemRequest{{MenuItemID: itemPork, Quantity: 6}},
		PaymentMethod: model.PayInPerson,
		Kind:          model.KindTakeaway,
	})
	var short *inventory.InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if len(short.Items) != 1 || short.Items[0].Name != "Grilled Pork" ||
		short.Items[0].Available != 5 || short.Items[0].Requested != 6 {
		t.Fatalf("shortage detail = %+v", short.Items)
	}
	if f.orders.count() != 0 || f.ledger.stockOf(itemPork) != 5 {
		t.Fatal("insufficient stock must abort with no side effects")
	}
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture()
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
				UserID:        uint64(100 + i),
				Items:         []ItemRequest{{MenuItemID: itemPork, Quantity: 3}},
				Kind:          model.KindTakeaway,
				PaymentMethod: model.PayInPerson,
			})
		}(i)
	}
	wg.Wait()

	var okCount, shortCount int
	for _, err := range results {
		var short *inventory.InsufficientStockError
		switch {
		case err == nil:
			okCount++
		case errors.As(err, &short):
			shortCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if okCount != 1 || shortCount != 1 {
		t.Fatalf("ok=%d short=%d, want exactly one of each", okCount, shortCount)
	}
	if got := f.ledger.stockOf(itemPork); got != 2 {
		t.Fatalf("stock = %d, want 2 (total deduction must not exceed 5)", got)
	}
}

func TestPersistFailureAfterReserveReleasesStock(t *testing.T) {
	f := newFixture()
	f.orders.failCreate = true
	_, err := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:        1,
		Items:         []ItemRequest{{MenuItemID: itemPork, Quantity: 4}},
		Kind:          model.KindTakeaway,
		PaymentMethod: model.PayInPerson,
	})
	if err == nil {
		t.Fatal("expected persist error")
	}
	if got := f.ledger.stockOf(itemPork); got != 5 {
		t.Fatalf("stock = %d, want 5: reservation must be rolled back when persist fails", got)
	}
}

func TestDineInOccupiesTableBeforeOrderEvent(t *testing.T) {
	f := newFixture()
	events, cancel := f.hub.Subscribe(8, broadcast.BranchRoom(branchOne))
	defer cancel()

	_, err := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:        42,
		Items:         []ItemRequest{{MenuItemID: itemPork, Quantity: 1}},
		Kind:          model.KindDineIn,
		PaymentMethod: model.PayInPerson,
		BranchID:      idPtr(branchOne),
		TableID:       idPtr(tableOne),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	tbl, _ := f.tables.GetByID(context.Background(), tableOne)
	if tbl.Status != model.TableOccupied {
		t.Fatalf("table status = %s, want Occupied", tbl.Status)
	}

	first := <-events
	if first.Type != broadcast.TypeTableStatus {
		t.Fatalf("first event = %s, want table status change before order-created", first.Type)
	}
	payload, ok := first.Payload.(broadcast.TableStatusPayload)
	if !ok || payload.Status != string(model.TableOccupied) || payload.BranchID != branchOne {
		t.Fatalf("table payload = %+v", first.Payload)
	}
	second := <-events
	if second.Type != broadcast.TypeOrderCreated {
		t.Fatalf("second event = %s, want order-created", second.Type)
	}
}

func TestFinalizeFailureRollsBackOnce(t *testing.T) {
	f := newFixture()
	res, err := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:        42,
		Items:         []ItemRequest{{MenuItemID: itemPork, Quantity: 3}},
		Kind:          model.KindTakeaway,
		PaymentMethod: model.PayOnline,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if f.ledger.stockOf(itemPork) != 2 {
		t.Fatalf("stock after reserve = %d, want 2", f.ledger.stockOf(itemPork))
	}

	if _, err := f.coord.Finalize(context.Background(), res.Order.ID, false); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := f.orders.GetByID(context.Background(), res.Order.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("failed checkout must leave no order record")
	}
	if f.ledger.stockOf(itemPork) != 5 {
		t.Fatalf("stock = %d, want 5 restored", f.ledger.stockOf(itemPork))
	}

	// repeated failure outcome is a no-op, not a double credit
	if _, err := f.coord.Finalize(context.Background(), res.Order.ID, false); err != nil {
		t.Fatalf("repeated Finalize: %v", err)
	}
	if f.ledger.stockOf(itemPork) != 5 {
		t.Fatalf("stock = %d after repeat, want 5", f.ledger.stockOf(itemPork))
	}
}

func TestFinalizeSuccessIsIdempotent(t *testing.T) {
	f := newFixture()
	res, _ := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:        42,
		Items:         []ItemRequest{{MenuItemID: itemPork, Quantity: 1}},
		Kind:          model.KindTakeaway,
		PaymentMethod: model.PayOnline,
	})
	for i := 0; i < 2; i++ {
		order, err := f.coord.Finalize(context.Background(), res.Order.ID, true)
		if err != nil {
			t.Fatalf("Finalize attempt %d: %v", i, err)
		}
		if order.Status != model.StatusPaid || !order.Payment {
			t.Fatalf("attempt %d: status=%s paid=%v, want Paid/true", i, order.Status, order.Payment)
		}
	}
	if f.ledger.stockOf(itemPork) != 4 {
		t.Fatal("settlement must keep the reservation committed")
	}
}

func TestStaffStatusUpdateFansOutToAllRooms(t *testing.T) {
	f := newFixture()
	res, _ := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:        42,
		Items:         []ItemRequest{{MenuItemID: itemPork, Quantity: 1}},
		Kind:          model.KindDineIn,
		PaymentMethod: model.PayInPerson,
		BranchID:      idPtr(branchOne),
	})

	branchEvents, cancelB := f.hub.Subscribe(8, broadcast.BranchRoom(branchOne))
	defer cancelB()
	customerEvents, cancelC := f.hub.Subscribe(8, broadcast.CustomerRoom(42))
	defer cancelC()
	globalEvents, cancelG := f.hub.Subscribe(8, broadcast.RoomGlobal)
	defer cancelG()

	if _, err := f.coord.UpdateStatus(context.Background(), model.RoleStaff, res.Order.ID, model.StatusPreparing); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	want := broadcast.OrderStatusPayload{OrderID: res.Order.ID, Status: string(model.StatusPreparing)}
	for name, ch := range map[string]<-chan broadcast.Event{
		"branch": branchEvents, "customer": customerEvents, "global": globalEvents,
	} {
		select {
		case ev := <-ch:
			got, ok := ev.Payload.(broadcast.OrderStatusPayload)
			if !ok || got != want {
				t.Fatalf("%s subscriber payload = %+v, want %+v", name, ev.Payload, want)
			}
		default:
			t.Fatalf("%s subscriber received no event", name)
		}
	}
}

func TestStaffCancelRestockPolicy(t *testing.T) {
	ctx := context.Background()

	// default: staff cancellation does not restore stock
	f := newFixture()
	res, _ := f.coord.PlaceOrder(ctx, PlaceOrderRequest{
		UserID: 42, Items: []ItemRequest{{MenuItemID: itemPork, Quantity: 2}},
		Kind: model.KindTakeaway, PaymentMethod: model.PayInPerson,
	})
	if _, err := f.coord.UpdateStatus(ctx, model.RoleStaff, res.Order.ID, model.StatusCancelled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if f.ledger.stockOf(itemPork) != 3 {
		t.Fatalf("stock = %d, want 3: default policy keeps stock committed", f.ledger.stockOf(itemPork))
	}

	// opt-in restock credits exactly once
	f = newFixture()
	f.coord.RestockOnStaffCancel = true
	res, _ = f.coord.PlaceOrder(ctx, PlaceOrderRequest{
		UserID: 42, Items: []ItemRequest{{MenuItemID: itemPork, Quantity: 2}},
		Kind: model.KindTakeaway, PaymentMethod: model.PayInPerson,
	})
	for i := 0; i < 2; i++ {
		if _, err := f.coord.UpdateStatus(ctx, model.RoleStaff, res.Order.ID, model.StatusCancelled); err != nil {
			t.Fatalf("UpdateStatus attempt %d: %v", i, err)
		}
	}
	if f.ledger.stockOf(itemPork) != 5 {
		t.Fatalf("stock = %d, want 5 restored exactly once", f.ledger.stockOf(itemPork))
	}
}

func TestStaffOperationsRequireRole(t *testing.T) {
	f := newFixture()
	res, _ := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: 42, Items: []ItemRequest{{MenuItemID: itemPork, Quantity: 1}},
		Kind: model.KindTakeaway, PaymentMethod: model.PayInPerson,
	})
	if _, err := f.coord.UpdateStatus(context.Background(), model.RoleCustomer, res.Order.ID, model.StatusPaid); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("customer status override err = %v, want ErrUnauthorized", err)
	}
	if _, err := f.coord.MarkPaid(context.Background(), model.RoleStaff, res.Order.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("staff mark-paid err = %v, want ErrUnauthorized (manager only)", err)
	}
	order, err := f.coord.MarkPaid(context.Background(), model.RoleManager, res.Order.ID)
	if err != nil {
		t.Fatalf("manager MarkPaid: %v", err)
	}
	if order.Status != model.StatusPaid || !order.Payment {
		t.Fatalf("mark-paid result = %s paid=%v", order.Status, order.Payment)
	}
}

func TestOrderCreatedPayloadIsDetachedFromLiveOrder(t *testing.T) {
	f := newFixture()
	events, cancel := f.hub.Subscribe(8, broadcast.RoomGlobal)
	defer cancel()

	res, err := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:        42,
		Items:         []ItemRequest{{MenuItemID: itemPork, Quantity: 2}},
		Kind:          model.KindTakeaway,
		PaymentMethod: model.PayInPerson,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	ev := <-events
	payload, ok := ev.Payload.(broadcast.OrderCreatedPayload)
	if !ok {
		t.Fatalf("payload type = %T", ev.Payload)
	}
	snap, ok := payload.Order.(*model.Order)
	if !ok {
		t.Fatalf("payload order type = %T", payload.Order)
	}
	if snap == res.Order {
		t.Fatal("event payload must not alias the order the request keeps mutating")
	}
	// the snapshot freezes the state at publish time; the cash-accept
	// transition that follows must not bleed into it
	if snap.Status != model.StatusPending {
		t.Fatalf("snapshot status = %s, want Pending", snap.Status)
	}
	if res.Order.Status != model.StatusConfirmed {
		t.Fatalf("returned status = %s, want Confirmed", res.Order.Status)
	}
	res.Order.Items[0].Quantity = 99
	if snap.Items[0].Quantity == 99 {
		t.Fatal("snapshot items must not share a backing array with the live order")
	}
}

func TestSubscriberReadsDoNotRaceWithPlacement(t *testing.T) {
	f := newFixture()
	events, cancel := f.hub.Subscribe(16, broadcast.RoomGlobal)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if p, ok := ev.Payload.(broadcast.OrderCreatedPayload); ok {
				if o, ok := p.Order.(*model.Order); ok {
					_ = o.Status
					_ = len(o.Items)
				}
			}
		}
	}()

	for i := 0; i < 4; i++ {
		if _, err := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID:        uint64(1 + i),
			Items:         []ItemRequest{{MenuItemID: itemRice, Quantity: 1}},
			Kind:          model.KindTakeaway,
			PaymentMethod: model.PayInPerson,
		}); err != nil {
			t.Fatalf("PlaceOrder %d: %v", i, err)
		}
	}
	cancel()
	<-done
}

func TestSweepAbandonedCheckouts(t *testing.T) {
	f := newFixture()
	f.coord.CheckoutTTL = 30 * time.Minute
	res, _ := f.coord.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: 42, Items: []ItemRequest{{MenuItemID: itemPork, Quantity: 2}},
		Kind: model.KindTakeaway, PaymentMethod: model.PayOnline,
	})

	// fresh order is not swept
	if n, err := f.coord.SweepAbandoned(context.Background()); err != nil || n != 0 {
		t.Fatalf("sweep = %d, %v; want 0, nil", n, err)
	}

	// age the order past the window
	f.orders.mu.Lock()
	f.orders.orders[res.Order.ID].CreatedAt = time.Now().UTC().Add(-time.Hour)
	f.orders.mu.Unlock()

	n, err := f.coord.SweepAbandoned(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("sweep = %d, %v; want 1, nil", n, err)
	}
	if _, err := f.orders.GetByID(context.Background(), res.Order.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("swept order must be deleted")
	}
	if f.ledger.stockOf(itemPork) != 5 {
		t.Fatalf("stock = %d, want 5 restored by sweep", f.ledger.stockOf(itemPork))
	}
}
