package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/food-orders/db"
	"github.com/xenking/food-orders/internal/domain/order"
	"github.com/xenking/food-orders/internal/storage/postgres"
)

type orderJSON struct {
	UserID     int64           `json:"userId"`
	BusinessID int64           `json:"businessId"`
	Paid       bool            `json:"paid"`
	PayAmount  decimal.Decimal `json:"payAmount"`
	Items      []struct {
		CommodityID int64 `json:"commodityId"`
		Quantity    int   `json:"quantity"`
	} `json:"items"`
}

func main() {
	var (
		databaseURL string
		ordersFile  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "primary PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&ordersFile, "orders-file", "", "path to an orders JSON fixture (default: embedded sample)")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, ordersFile); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, ordersFile string) error {
	fixture := db.SampleOrders
	if ordersFile != "" {
		data, err := os.ReadFile(ordersFile)
		if err != nil {
			return errors.Wrap(err, "read orders file")
		}
		fixture = data
	}

	var orders []orderJSON
	if err := json.Unmarshal(fixture, &orders); err != nil {
		return errors.Wrap(err, "parse orders JSON")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL, postgres.PoolConfig{})
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Seeding writes through the same path as order creation, on the primary.
	repo := postgres.NewOrderRepository(postgres.NewCluster(pool, nil))
	for i, o := range orders {
		id, err := seedOrder(ctx, repo, o)
		if err != nil {
			return errors.Wrapf(err, "seed order #%d", i)
		}
		lg.Info("Inserted order",
			zap.Int64("id", id),
			zap.Int64("user_id", o.UserID),
			zap.Bool("paid", o.Paid),
			zap.Int("items", len(o.Items)),
		)
	}
	return nil
}

func seedOrder(ctx context.Context, repo *postgres.OrderRepository, o orderJSON) (int64, error) {
	id, err := repo.CreateHeader(ctx, &order.Header{
		BusinessID: o.BusinessID,
		UserID:     o.UserID,
		Paid:       o.Paid,
		PayAmount:  o.PayAmount,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create header")
	}

	items := make([]order.LineItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = order.LineItem{HeaderID: id, CommodityID: it.CommodityID, Quantity: it.Quantity}
	}
	if err := repo.CreateLineItems(ctx, items); err != nil {
		return id, errors.Wrap(err, "create line items")
	}
	return id, nil
}
