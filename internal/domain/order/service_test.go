package order

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/food-orders/internal/domain/catalog"
	"github.com/xenking/food-orders/internal/domain/identity"
	"github.com/xenking/food-orders/internal/routing"
)

// --- Mock implementations ---

type mockResolver struct {
	mu    sync.Mutex
	users map[string]int64
	err   error
	calls int
}

func (m *mockResolver) ResolveUserID(_ context.Context, username string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	id, ok := m.users[username]
	if !ok {
		return 0, identity.ErrNotFound
	}
	return id, nil
}

type mockCatalog struct {
	mu           sync.Mutex
	businesses   map[int64]*catalog.Business
	commodities  map[int64]*catalog.Commodity
	commodityErr map[int64]error
	lookups      []string
}

func (m *mockCatalog) GetBusiness(_ context.Context, id int64) (*catalog.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, "business")
	b, ok := m.businesses[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return b, nil
}

func (m *mockCatalog) GetCommodity(_ context.Context, id int64) (*catalog.Commodity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, "commodity")
	if err, ok := m.commodityErr[id]; ok {
		return nil, err
	}
	c, ok := m.commodities[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return c, nil
}

func (m *mockCatalog) lookupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lookups)
}

// mockStore is an in-memory Store that also records the route observed by
// every call.
type mockStore struct {
	mu      sync.Mutex
	nextID  int64
	headers []Header
	items   []LineItem

	headerErr error
	itemsErr  error
	findErr   error
	deleteErr error

	routes  []routing.Route
	deleted []int64
}

func (m *mockStore) observe(ctx context.Context) {
	m.routes = append(m.routes, routing.CurrentRoute(ctx))
}

func (m *mockStore) CreateHeader(ctx context.Context, h *Header) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observe(ctx)
	if m.headerErr != nil {
		return 0, m.headerErr
	}
	m.nextID++
	stored := *h
	stored.ID = m.nextID
	m.headers = append(m.headers, stored)
	return stored.ID, nil
}

func (m *mockStore) CreateLineItems(ctx context.Context, items []LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observe(ctx)
	if m.itemsErr != nil {
		return m.itemsErr
	}
	for _, it := range items {
		it.ID = int64(len(m.items) + 1)
		m.items = append(m.items, it)
	}
	return nil
}

func (m *mockStore) FindHeadersByUserAndPaidFlag(ctx context.Context, userID int64, paid bool) ([]Header, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observe(ctx)
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []Header
	for _, h := range m.headers {
		if h.UserID == userID && h.Paid == paid {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockStore) FindLineItemsByHeaderID(ctx context.Context, headerID int64) ([]LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observe(ctx)
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := []LineItem{}
	for _, it := range m.items {
		if it.HeaderID == headerID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteHeader(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observe(ctx)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	kept := m.headers[:0]
	for _, h := range m.headers {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	m.headers = kept
	return nil
}

func (m *mockStore) seed(h Header, items ...LineItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	h.ID = m.nextID
	m.headers = append(m.headers, h)
	for _, it := range items {
		it.ID = int64(len(m.items) + 1)
		it.HeaderID = h.ID
		m.items = append(m.items, it)
	}
}

// --- Helpers ---

func newTestCatalog() *mockCatalog {
	return &mockCatalog{
		businesses: map[int64]*catalog.Business{
			7: {ID: 7, Name: "Noodle Bar", DeliveryFee: decimal.NewNullDecimal(decimal.RequireFromString("3.00"))},
		},
		commodities: map[int64]*catalog.Commodity{
			101: {ID: 101, Name: "Ramen", UnitPrice: decimal.RequireFromString("2.50"), ImageRef: "ramen.jpg"},
			102: {ID: 102, Name: "Gyoza", UnitPrice: decimal.RequireFromString("8.50"), ImageRef: "gyoza.jpg"},
		},
	}
}

func newTestService(t *testing.T, users *mockResolver, cat *mockCatalog, store *mockStore, cfg Config) *Service {
	t.Helper()
	cfg.MeterProvider = metricnoop.NewMeterProvider()
	cfg.TracerProvider = tracenoop.NewTracerProvider()
	if cfg.Enrich.Concurrency == 0 {
		cfg.Enrich.Concurrency = 4
	}
	svc, err := NewService(users, cat, store, cfg)
	require.NoError(t, err)
	return svc
}

func aliceResolver() *mockResolver {
	return &mockResolver{users: map[string]int64{"alice": 42}}
}

// --- CreateOrder ---

func TestCreateOrder_SumsPricesAndPersists(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{})

	result, err := svc.CreateOrder(context.Background(), "alice", Cart{
		BusinessID: 7,
		Lines: []CartLine{
			{CommodityID: 101, Quantity: 2},
			{CommodityID: 102, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.OrderID)
	assert.True(t, decimal.RequireFromString("13.50").Equal(result.PayAmount), "got %s", result.PayAmount)

	require.Len(t, store.headers, 1)
	h := store.headers[0]
	assert.Equal(t, int64(42), h.UserID)
	assert.Equal(t, int64(7), h.BusinessID)
	assert.False(t, h.Paid)
	assert.True(t, decimal.RequireFromString("13.50").Equal(h.PayAmount))

	require.Len(t, store.items, 2)
	for _, it := range store.items {
		assert.Equal(t, result.OrderID, it.HeaderID)
	}
	assert.Equal(t, int64(101), store.items[0].CommodityID)
	assert.Equal(t, 2, store.items[0].Quantity)
	assert.Equal(t, int64(102), store.items[1].CommodityID)
	assert.Equal(t, 1, store.items[1].Quantity)
}

func TestCreateOrder_ExactArithmetic(t *testing.T) {
	cat := newTestCatalog()
	cat.commodities[103] = &catalog.Commodity{ID: 103, Name: "Tea", UnitPrice: decimal.RequireFromString("0.10")}
	svc := newTestService(t, aliceResolver(), cat, &mockStore{}, Config{})

	result, err := svc.CreateOrder(context.Background(), "alice", Cart{
		BusinessID: 7,
		Lines:      []CartLine{{CommodityID: 103, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "0.3", result.PayAmount.String())
}

func TestCreateOrder_RoundsToStoredPlaces(t *testing.T) {
	cat := newTestCatalog()
	cat.commodities[103] = &catalog.Commodity{ID: 103, Name: "Spice", UnitPrice: decimal.RequireFromString("0.001")}
	store := &mockStore{}
	svc := newTestService(t, aliceResolver(), cat, store, Config{})

	result, err := svc.CreateOrder(context.Background(), "alice", Cart{
		BusinessID: 7,
		Lines:      []CartLine{{CommodityID: 103, Quantity: 5}, {CommodityID: 101, Quantity: 1}},
	})
	require.NoError(t, err)

	// 0.005 + 2.50 rounds half away from zero.
	assert.Equal(t, "2.51", result.PayAmount.StringFixed(AmountPlaces))
	require.Len(t, store.headers, 1)
	assert.True(t, result.PayAmount.Equal(store.headers[0].PayAmount),
		"returned %s, stored %s", result.PayAmount, store.headers[0].PayAmount)
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		cart  Cart
		check func(t *testing.T, err error)
	}{
		{
			name: "empty cart",
			cart: Cart{BusinessID: 7},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrEmptyCart)
			},
		},
		{
			name: "zero quantity",
			cart: Cart{BusinessID: 7, Lines: []CartLine{{CommodityID: 101, Quantity: 1}, {CommodityID: 102, Quantity: 0}}},
			check: func(t *testing.T, err error) {
				var iqErr *InvalidQuantityError
				require.ErrorAs(t, err, &iqErr)
				assert.Equal(t, int64(102), iqErr.CommodityID)
			},
		},
		{
			name: "negative quantity",
			cart: Cart{BusinessID: 7, Lines: []CartLine{{CommodityID: 101, Quantity: -3}}},
			check: func(t *testing.T, err error) {
				var iqErr *InvalidQuantityError
				require.ErrorAs(t, err, &iqErr)
				assert.Equal(t, -3, iqErr.Quantity)
			},
		},
		{
			name: "quantity above column range",
			cart: Cart{BusinessID: 7, Lines: []CartLine{
				{CommodityID: 103, Quantity: MaxQuantity + 1},
				{CommodityID: 103, Quantity: 1},
			}},
			check: func(t *testing.T, err error) {
				var iqErr *InvalidQuantityError
				require.ErrorAs(t, err, &iqErr)
				assert.Equal(t, int64(103), iqErr.CommodityID)
				assert.Contains(t, err.Error(), "must not exceed")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := aliceResolver()
			cat := newTestCatalog()
			store := &mockStore{}
			svc := newTestService(t, users, cat, store, Config{})

			_, err := svc.CreateOrder(context.Background(), "alice", tt.cart)
			tt.check(t, err)

			assert.Zero(t, users.calls, "identity must not be called")
			assert.Zero(t, cat.lookupCount(), "catalog must not be called")
			assert.Empty(t, store.routes, "store must not be called")
		})
	}
}

func TestCreateOrder_IdentityUnresolved(t *testing.T) {
	cat := newTestCatalog()
	store := &mockStore{}
	svc := newTestService(t, aliceResolver(), cat, store, Config{})

	_, err := svc.CreateOrder(context.Background(), "mallory", Cart{
		BusinessID: 7,
		Lines:      []CartLine{{CommodityID: 101, Quantity: 1}},
	})

	var idErr *IdentityUnresolvedError
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, "mallory", idErr.Subject)
	assert.ErrorIs(t, err, identity.ErrNotFound)
	assert.Zero(t, cat.lookupCount())
	assert.Empty(t, store.headers)
}

func TestCreateOrder_EmptySubject(t *testing.T) {
	users := aliceResolver()
	svc := newTestService(t, users, newTestCatalog(), &mockStore{}, Config{})

	_, err := svc.CreateOrder(context.Background(), "", Cart{
		BusinessID: 7,
		Lines:      []CartLine{{CommodityID: 101, Quantity: 1}},
	})

	var idErr *IdentityUnresolvedError
	require.ErrorAs(t, err, &idErr)
	assert.Zero(t, users.calls)
}

func TestCreateOrder_MerchantNotFound(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{})

	_, err := svc.CreateOrder(context.Background(), "alice", Cart{
		BusinessID: 999,
		Lines:      []CartLine{{CommodityID: 101, Quantity: 1}},
	})

	var mErr *MerchantNotFoundError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, int64(999), mErr.BusinessID)
	assert.Empty(t, store.headers)
}

func TestCreateOrder_CommodityFailureLeavesNoHeader(t *testing.T) {
	cat := newTestCatalog()
	store := &mockStore{}
	svc := newTestService(t, aliceResolver(), cat, store, Config{})

	_, err := svc.CreateOrder(context.Background(), "alice", Cart{
		BusinessID: 7,
		Lines: []CartLine{
			{CommodityID: 101, Quantity: 1},
			{CommodityID: 555, Quantity: 1},
			{CommodityID: 102, Quantity: 1},
		},
	})

	var cErr *CommodityNotFoundError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, int64(555), cErr.CommodityID)
	assert.Empty(t, store.headers)
	assert.Empty(t, store.items)
	// business, 101, 555; the third line is never looked up.
	assert.Equal(t, 3, cat.lookupCount())
}

func TestCreateOrder_TransientUpstream(t *testing.T) {
	cat := newTestCatalog()
	cat.commodityErr = map[int64]error{101: errors.Wrap(catalog.ErrUnavailable, "connection refused")}
	svc := newTestService(t, aliceResolver(), cat, &mockStore{}, Config{})

	_, err := svc.CreateOrder(context.Background(), "alice", Cart{
		BusinessID: 7,
		Lines:      []CartLine{{CommodityID: 101, Quantity: 1}},
	})

	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, "commodity", failureReason(err))
}

func TestCreateOrder_HeaderWriteFails(t *testing.T) {
	store := &mockStore{headerErr: errors.New("disk full")}
	svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{})

	_, err := svc.CreateOrder(context.Background(), "alice", Cart{
		BusinessID: 7,
		Lines:      []CartLine{{CommodityID: 101, Quantity: 1}},
	})

	var sErr *StorageError
	require.ErrorAs(t, err, &sErr)
	assert.Zero(t, sErr.OrphanHeaderID)
	assert.Empty(t, store.items)
}

func TestCreateOrder_LineItemWriteFails(t *testing.T) {
	cart := Cart{BusinessID: 7, Lines: []CartLine{{CommodityID: 101, Quantity: 1}}}

	t.Run("orphan is reported", func(t *testing.T) {
		store := &mockStore{itemsErr: errors.New("batch aborted")}
		svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{})

		_, err := svc.CreateOrder(context.Background(), "alice", cart)

		var sErr *StorageError
		require.ErrorAs(t, err, &sErr)
		assert.Equal(t, int64(1), sErr.OrphanHeaderID)
		assert.False(t, sErr.Compensated)
		assert.Len(t, store.headers, 1, "header stays behind")
		assert.Empty(t, store.deleted)
	})

	t.Run("compensation deletes orphan", func(t *testing.T) {
		store := &mockStore{itemsErr: errors.New("batch aborted")}
		svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{CompensateOrphans: true})

		_, err := svc.CreateOrder(context.Background(), "alice", cart)

		var sErr *StorageError
		require.ErrorAs(t, err, &sErr)
		assert.True(t, sErr.Compensated)
		assert.Zero(t, sErr.OrphanHeaderID)
		assert.Equal(t, []int64{1}, store.deleted)
		assert.Empty(t, store.headers)
	})

	t.Run("failed compensation keeps orphan id", func(t *testing.T) {
		store := &mockStore{itemsErr: errors.New("batch aborted"), deleteErr: errors.New("primary gone")}
		svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{CompensateOrphans: true})

		_, err := svc.CreateOrder(context.Background(), "alice", cart)

		var sErr *StorageError
		require.ErrorAs(t, err, &sErr)
		assert.False(t, sErr.Compensated)
		assert.Equal(t, int64(1), sErr.OrphanHeaderID)
	})
}

func TestCreateOrder_RoutesToPrimaryAndClears(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{})
	ctx := routing.Attach(context.Background())

	_, err := svc.CreateOrder(ctx, "alice", Cart{
		BusinessID: 7,
		Lines:      []CartLine{{CommodityID: 101, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NotEmpty(t, store.routes)
	for _, r := range store.routes {
		assert.Equal(t, routing.Primary, r)
	}
	assert.Equal(t, routing.Unset, routing.CurrentRoute(ctx))
}

func TestCreateOrder_FailureClearsRoute(t *testing.T) {
	store := &mockStore{headerErr: errors.New("boom")}
	svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{})
	ctx := routing.Attach(context.Background())

	_, err := svc.CreateOrder(ctx, "alice", Cart{
		BusinessID: 7,
		Lines:      []CartLine{{CommodityID: 101, Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, routing.Unset, routing.CurrentRoute(ctx))
}

// --- Listings ---

func seededStore() *mockStore {
	store := &mockStore{}
	store.seed(Header{UserID: 42, BusinessID: 7, Paid: true, PayAmount: decimal.RequireFromString("5.00")},
		LineItem{CommodityID: 101, Quantity: 2},
	)
	store.seed(Header{UserID: 42, BusinessID: 7, Paid: false, PayAmount: decimal.RequireFromString("8.50")},
		LineItem{CommodityID: 102, Quantity: 1},
	)
	store.seed(Header{UserID: 43, BusinessID: 7, Paid: true, PayAmount: decimal.RequireFromString("2.50")},
		LineItem{CommodityID: 101, Quantity: 1},
	)
	store.seed(Header{UserID: 42, BusinessID: 7, Paid: true, PayAmount: decimal.RequireFromString("11.00")},
		LineItem{CommodityID: 101, Quantity: 1},
		LineItem{CommodityID: 102, Quantity: 1},
	)
	return store
}

func TestListOrders_FiltersByUserAndPaid(t *testing.T) {
	svc := newTestService(t, aliceResolver(), newTestCatalog(), seededStore(), Config{})

	paid, err := svc.ListOrders(context.Background(), 42, true)
	require.NoError(t, err)
	require.Len(t, paid, 2)
	assert.Equal(t, int64(1), paid[0].ID)
	assert.Equal(t, int64(4), paid[1].ID)
	for _, o := range paid {
		assert.True(t, o.Paid)
		assert.Equal(t, int64(42), o.UserID)
	}

	unpaid, err := svc.ListOrders(context.Background(), 42, false)
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, int64(2), unpaid[0].ID)
}

func TestListOrders_Enriched(t *testing.T) {
	svc := newTestService(t, aliceResolver(), newTestCatalog(), seededStore(), Config{})

	orders, err := svc.ListOrders(context.Background(), 42, true)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	o := orders[1]
	assert.Equal(t, "Noodle Bar", o.BusinessName)
	require.True(t, o.DeliveryFee.Valid)
	assert.True(t, decimal.RequireFromString("3.00").Equal(o.DeliveryFee.Decimal))

	require.Len(t, o.Items, 2)
	assert.Equal(t, int64(101), o.Items[0].CommodityID)
	assert.Equal(t, "Ramen", o.Items[0].Name)
	assert.True(t, decimal.RequireFromString("2.50").Equal(o.Items[0].Price.Decimal))
	assert.Equal(t, "ramen.jpg", o.Items[0].ImageRef)
	assert.Equal(t, int64(102), o.Items[1].CommodityID)
	assert.Equal(t, "Gyoza", o.Items[1].Name)
}

func TestListOrders_MissingCatalogDataDegrades(t *testing.T) {
	cat := newTestCatalog()
	delete(cat.businesses, 7)
	delete(cat.commodities, 102)
	svc := newTestService(t, aliceResolver(), cat, seededStore(), Config{})

	orders, err := svc.ListOrders(context.Background(), 42, true)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	for _, o := range orders {
		assert.Empty(t, o.BusinessName)
		assert.False(t, o.DeliveryFee.Valid)
	}
	items := orders[1].Items
	require.Len(t, items, 2)
	assert.Equal(t, "Ramen", items[0].Name)
	assert.Empty(t, items[1].Name)
	assert.False(t, items[1].Price.Valid)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestListOrders_BusinessWithoutFee(t *testing.T) {
	cat := newTestCatalog()
	cat.businesses[7] = &catalog.Business{ID: 7, Name: "Noodle Bar"}
	svc := newTestService(t, aliceResolver(), cat, seededStore(), Config{})

	orders, err := svc.ListOrders(context.Background(), 42, true)
	require.NoError(t, err)
	require.NotEmpty(t, orders)
	for _, o := range orders {
		assert.Equal(t, "Noodle Bar", o.BusinessName)
		assert.False(t, o.DeliveryFee.Valid)
	}
}

func TestListOrders_NoMatches(t *testing.T) {
	svc := newTestService(t, aliceResolver(), newTestCatalog(), seededStore(), Config{})

	orders, err := svc.ListOrders(context.Background(), 1000, true)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestListOrders_StorageFailure(t *testing.T) {
	store := seededStore()
	store.findErr = errors.New("replica down")
	svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{})

	_, err := svc.ListOrders(context.Background(), 42, true)
	var sErr *StorageError
	require.ErrorAs(t, err, &sErr)
}

func TestListOrders_RoutesToReplica(t *testing.T) {
	store := seededStore()
	svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{})
	ctx := routing.Attach(context.Background())

	_, err := svc.ListOrders(ctx, 42, true)
	require.NoError(t, err)

	require.NotEmpty(t, store.routes)
	for _, r := range store.routes {
		assert.Equal(t, routing.Replica, r)
	}
	assert.Equal(t, routing.Unset, routing.CurrentRoute(ctx))
}

func TestListOrders_StableUnderConcurrency(t *testing.T) {
	store := &mockStore{}
	for i := range 20 {
		store.seed(Header{UserID: 42, BusinessID: 7, Paid: true},
			LineItem{CommodityID: 101, Quantity: i + 1},
			LineItem{CommodityID: 102, Quantity: 1},
		)
	}
	svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{Enrich: EnrichConfig{Concurrency: 8}})

	for range 5 {
		orders, err := svc.ListOrders(context.Background(), 42, true)
		require.NoError(t, err)
		require.Len(t, orders, 20)
		for i, o := range orders {
			assert.Equal(t, int64(i+1), o.ID)
			require.Len(t, o.Items, 2)
			assert.Equal(t, i+1, o.Items[0].Quantity)
			assert.Equal(t, "Ramen", o.Items[0].Name)
			assert.Equal(t, "Gyoza", o.Items[1].Name)
		}
	}
}

func TestListOrdersForSubject(t *testing.T) {
	svc := newTestService(t, aliceResolver(), newTestCatalog(), seededStore(), Config{})

	orders, err := svc.ListOrdersForSubject(context.Background(), "alice")
	require.NoError(t, err)

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	assert.Equal(t, []int64{2, 1, 4}, ids, "unpaid first, then paid")
}

func TestListOrdersForSubject_Unknown(t *testing.T) {
	svc := newTestService(t, aliceResolver(), newTestCatalog(), seededStore(), Config{})

	_, err := svc.ListOrdersForSubject(context.Background(), "nobody")
	var idErr *IdentityUnresolvedError
	require.ErrorAs(t, err, &idErr)
}

func TestGetLineItems(t *testing.T) {
	store := seededStore()
	svc := newTestService(t, aliceResolver(), newTestCatalog(), store, Config{})
	ctx := routing.Attach(context.Background())

	items, err := svc.GetLineItems(ctx, 4)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(101), items[0].CommodityID)
	assert.Equal(t, int64(102), items[1].CommodityID)
	assert.Equal(t, routing.Replica, store.routes[len(store.routes)-1])

	items, err = svc.GetLineItems(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, items)
}
