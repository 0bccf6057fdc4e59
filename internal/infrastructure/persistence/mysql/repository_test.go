package mysql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/product"
	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/internal/infrastructure/config"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// 以下测试连接真实MySQL（testcontainers启动），没有Docker或-short时跳过

var (
	containerOnce sync.Once
	containerDB   *gorm.DB
	containerErr  error
	teardown      func()
)

func TestMain(m *testing.M) {
	code := m.Run()
	if teardown != nil {
		teardown()
	}
	os.Exit(code)
}

func startMySQL(ctx context.Context) (*gorm.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	c, err := tcmysql.Run(ctx,
		"mysql:8.0.36",
		tcmysql.WithDatabase("topupstore"),
		tcmysql.WithUsername("topup"),
		tcmysql.WithPassword("topup"),
	)
	if err != nil {
		return nil, err
	}
	terminate := func() { _ = c.Terminate(context.Background()) }

	host, err := c.Host(ctx)
	if err != nil {
		terminate()
		return nil, err
	}
	port, err := c.MappedPort(ctx, "3306/tcp")
	if err != nil {
		terminate()
		return nil, err
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Database: config.DatabaseConfig{
			Host:            host,
			Port:            port.Int(),
			User:            "topup",
			Password:        "topup",
			DBName:          "topupstore",
			Charset:         "utf8mb4",
			ParseTime:       true,
			Loc:             "UTC",
			MaxOpenConns:    30,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			AutoMigrate:     true,
		},
	}
	db, cleanup, err := NewDB(cfg, zap.NewNop())
	if err != nil {
		terminate()
		return nil, err
	}
	teardown = func() {
		cleanup()
		terminate()
	}
	return db, nil
}

// openTestDB 返回共享的测试库，每个测试开始前清空所有表
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("需要Docker，-short模式跳过")
	}
	containerOnce.Do(func() {
		containerDB, containerErr = startMySQL(context.Background())
	})
	if containerErr != nil {
		t.Skipf("MySQL容器不可用: %v", containerErr)
	}
	for _, table := range []string{"payments", "orders", "products", "users"} {
		require.NoError(t, containerDB.Exec("TRUNCATE TABLE "+table).Error)
	}
	return containerDB
}

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func createProduct(t *testing.T, repo product.Repository, category product.Category, stock int) *product.Product {
	t.Helper()
	p, err := product.NewProduct("660 UC", category, "", 1000, stock, "", true, fixedNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func createOrder(ctx context.Context, t *testing.T, repo order.Repository, userID, productID uint, createdAt time.Time) *order.Order {
	t.Helper()
	o, err := order.NewOrder(userID, productID, 1000, 1, "player-1", "", createdAt)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, o))
	return o
}

func TestMySQL_ConcurrentStockReservation(t *testing.T) {
	db := openTestDB(t)
	products := NewProductRepository(db)
	txm := NewTxManager(db)
	p := createProduct(t, products, product.CategoryPUBG, 5)

	var wg sync.WaitGroup
	var succeeded, rejected int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := txm.Transaction(context.Background(), func(ctx context.Context) error {
				if _, err := products.LockByID(ctx, p.ID); err != nil {
					return err
				}
				return products.TryDecrementStock(ctx, p.ID, 1)
			})
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case errors.Is(err, product.ErrInsufficientStock):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), succeeded)
	assert.Equal(t, int32(15), rejected)
	got, err := products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Stock)
}

func TestMySQL_StockAdjustments(t *testing.T) {
	db := openTestDB(t)
	products := NewProductRepository(db)
	ctx := context.Background()
	p := createProduct(t, products, product.CategorySteam, 2)

	assert.ErrorIs(t, products.TryDecrementStock(ctx, p.ID, 3), product.ErrInsufficientStock)
	require.NoError(t, products.TryDecrementStock(ctx, p.ID, 2))
	require.NoError(t, products.IncrementStock(ctx, p.ID, 4))
	assert.ErrorIs(t, products.IncrementStock(ctx, 999999, 1), product.ErrProductNotFound)
	assert.ErrorIs(t, products.TryDecrementStock(ctx, 999999, 1), product.ErrProductNotFound)

	got, err := products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)
}

func TestMySQL_TransactionRollbackAndNesting(t *testing.T) {
	db := openTestDB(t)
	products := NewProductRepository(db)
	orders := NewOrderRepository(db)
	txm := NewTxManager(db)
	ctx := context.Background()
	p := createProduct(t, products, product.CategoryFreeFire, 5)

	boom := errors.New("boom")
	err := txm.Transaction(ctx, func(ctx context.Context) error {
		createOrder(ctx, t, orders, 1, p.ID, fixedNow)
		// 嵌套调用复用外层事务，随外层一起回滚
		return txm.Transaction(ctx, func(ctx context.Context) error {
			require.NoError(t, products.TryDecrementStock(ctx, p.ID, 3))
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	got, err := products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	_, total, err := orders.List(ctx, order.ListFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)

	err = txm.Transaction(ctx, func(ctx context.Context) error {
		createOrder(ctx, t, orders, 1, p.ID, fixedNow)
		return products.TryDecrementStock(ctx, p.ID, 1)
	})
	require.NoError(t, err)
	got, err = products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)
}

func TestMySQL_PaymentUniqueness(t *testing.T) {
	db := openTestDB(t)
	payments := NewPaymentRepository(db)
	ctx := context.Background()

	first, err := payment.NewPayment(1, payment.MethodVisa, 1000, "TXN_MYSQL_A", fixedNow)
	require.NoError(t, err)
	first.GatewayResponse = map[string]interface{}{"status": "approved"}
	require.NoError(t, payments.Create(ctx, first))

	sameOrder, _ := payment.NewPayment(1, payment.MethodMada, 1000, "TXN_MYSQL_B", fixedNow)
	assert.ErrorIs(t, payments.Create(ctx, sameOrder), payment.ErrPaymentPending)

	sameTxn, _ := payment.NewPayment(2, payment.MethodMada, 1000, "TXN_MYSQL_A", fixedNow)
	assert.ErrorIs(t, payments.Create(ctx, sameTxn), payment.ErrDuplicateTransactionID)

	got, err := payments.FindByTransactionID(ctx, "TXN_MYSQL_A")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "approved", got.GatewayResponse["status"])

	require.NoError(t, payments.DeleteByOrderID(ctx, 1))
	_, err = payments.FindByOrderID(ctx, 1)
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound)
}

func TestMySQL_ListFilters(t *testing.T) {
	db := openTestDB(t)
	products := NewProductRepository(db)
	orders := NewOrderRepository(db)
	payments := NewPaymentRepository(db)
	ctx := context.Background()

	pubg := createProduct(t, products, product.CategoryPUBG, 10)
	steam := createProduct(t, products, product.CategorySteam, 10)
	o1 := createOrder(ctx, t, orders, 1, pubg.ID, fixedNow)
	o2 := createOrder(ctx, t, orders, 1, steam.ID, fixedNow.Add(time.Minute))
	o3 := createOrder(ctx, t, orders, 2, steam.ID, fixedNow.Add(2*time.Minute))

	list, total, err := orders.List(ctx, order.ListFilter{Category: string(product.CategorySteam), Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, o3.ID, list[0].ID, "按创建时间倒序")

	_, total, err = orders.List(ctx, order.ListFilter{UserID: 1, Category: string(product.CategoryPUBG), Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	for i, spec := range []struct {
		o      *order.Order
		method payment.Method
		status payment.Status
	}{
		{o1, payment.MethodVisa, payment.StatusSuccess},
		{o2, payment.MethodMada, payment.StatusFailed},
		{o3, payment.MethodVisa, payment.StatusPending},
	} {
		p, err := payment.NewPayment(spec.o.ID, spec.method, 1000, fmt.Sprintf("TXN_LIST_%d", i), fixedNow.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		p.Status = spec.status
		require.NoError(t, payments.Create(ctx, p))
	}

	mine, total, err := payments.List(ctx, payment.ListFilter{UserID: 1, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, mine, 2)
	assert.Equal(t, o2.ID, mine[0].OrderID)

	_, total, err = payments.List(ctx, payment.ListFilter{Method: payment.MethodVisa, Status: payment.StatusPending, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	paged, total, err := payments.List(ctx, payment.ListFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, paged, 1)

	pending, err := payments.ListPending(ctx, fixedNow.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, o3.ID, pending[0].OrderID)
}

func TestMySQL_UserEmailUnique(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	u := user.NewUser("buyer@example.com", "hash", "Buyer", user.RoleCustomer, fixedNow)
	require.NoError(t, users.Create(ctx, u))
	assert.ErrorIs(t, users.Create(ctx, user.NewUser("buyer@example.com", "hash", "Again", user.RoleCustomer, fixedNow)), apperrors.ErrEmailDuplicate)

	got, err := users.FindByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = users.FindByID(ctx, u.ID+100)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
