package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apporder "github.com/xiebiao/topupstore/internal/application/order"
	apppayment "github.com/xiebiao/topupstore/internal/application/payment"
	appproduct "github.com/xiebiao/topupstore/internal/application/product"
	appuser "github.com/xiebiao/topupstore/internal/application/user"
	"github.com/xiebiao/topupstore/internal/domain/event"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/internal/infrastructure/config"
	"github.com/xiebiao/topupstore/internal/infrastructure/gateway"
	"github.com/xiebiao/topupstore/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/topupstore/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/topupstore/internal/interface/http/handler"
	"github.com/xiebiao/topupstore/internal/interface/http/middleware"
	"github.com/xiebiao/topupstore/internal/interface/http/router"
	"github.com/xiebiao/topupstore/pkg/clock"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
	"github.com/xiebiao/topupstore/pkg/jwt"
)

const adminEmail = "ops@example.com"

// unknownGateway 请求已发出但拿不到结果
type unknownGateway struct{}

func (unknownGateway) Attempt(context.Context, payment.AttemptRequest) (*payment.Outcome, error) {
	return nil, errors.New("connection reset by peer")
}

func newServer(t *testing.T, gw payment.Gateway) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "test"},
		Tracing: config.TracingConfig{ServiceName: "topupstore-test"},
	}
	log := zap.NewNop()
	clk := clock.New()
	events := &event.Recorder{}

	store := memory.NewStore()
	userRepo := memory.NewUserRepository(store)
	productRepo := memory.NewProductRepository(store)
	orderRepo := memory.NewOrderRepository(store)
	paymentRepo := memory.NewPaymentRepository(store)
	txManager := memory.NewTxManager(store)

	userService := user.NewService(userRepo, clk, user.ServiceOptions{
		AdminEmails: []string{adminEmail},
		BcryptCost:  bcrypt.MinCost,
	})
	sessions := redis.NewSessionStore(client)
	jm := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)

	recorder := apppayment.NewOutcomeRecorder(orderRepo, paymentRepo, clk)
	opts := apppayment.Options{GatewayTimeout: 2 * time.Second}

	h := &router.Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService, log),
			appuser.NewLoginUseCase(userService, jm, sessions, 24*time.Hour, clk, log),
			appuser.NewLogoutUseCase(sessions, jm),
			appuser.NewGetCurrentUserUseCase(userRepo),
		),
		Product: handler.NewProductHandler(
			appproduct.NewListProductsUseCase(productRepo),
			appproduct.NewGetProductUseCase(productRepo),
			appproduct.NewPublishProductUseCase(productRepo, clk, log),
		),
		Order: handler.NewOrderHandler(
			apporder.NewCreateOrderUseCase(orderRepo, productRepo, userRepo, txManager, clk, events, log),
			apporder.NewGetOrderUseCase(orderRepo, productRepo, userRepo, paymentRepo),
			apporder.NewListOrdersUseCase(orderRepo),
			apporder.NewUpdateOrderUseCase(orderRepo, productRepo, paymentRepo, txManager, clk, events, log),
			apporder.NewDeleteOrderUseCase(orderRepo, productRepo, paymentRepo, txManager, clk, events, log),
		),
		Payment: handler.NewPaymentHandler(
			apppayment.NewInitiatePaymentUseCase(orderRepo, paymentRepo, txManager, gw, recorder, clk, events, log, opts),
			apppayment.NewListPaymentsUseCase(paymentRepo),
			apppayment.NewGetPaymentUseCase(paymentRepo, orderRepo),
			apppayment.NewUpdatePaymentUseCase(orderRepo, paymentRepo, txManager, recorder, clk, events, log),
			apppayment.NewDeletePaymentUseCase(orderRepo, paymentRepo, txManager, clk, events, log),
			apppayment.NewHandleWebhookUseCase(orderRepo, paymentRepo, txManager, recorder, apppayment.NopDeduper{}, clk, events, log),
		),
		Health: handler.NewHealthHandler(clk),
	}
	return router.New(cfg, log, h, middleware.NewAuthMiddleware(jm, sessions))
}

type envelope struct {
	Success bool                `json:"success"`
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

func do(t *testing.T, r http.Handler, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if path != "/metrics" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func assertAppError(t *testing.T, status int, env envelope, want *apperrors.AppError) {
	t.Helper()
	assert.False(t, env.Success)
	assert.Equal(t, want.Code, env.Code)
	assert.Equal(t, want.HTTPStatus(), status)
}

func registerAndLogin(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	status, _ := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": email, "password": "secret123", "name": "Tester",
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	var res struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, env, &res)
	require.NotEmpty(t, res.AccessToken)
	return res.AccessToken
}

type idBody struct {
	ID            uint   `json:"id"`
	Status        string `json:"status"`
	TotalAmount   string `json:"total_amount"`
	TransactionID string `json:"transaction_id"`
	Stock         int    `json:"stock"`
}

func publishProduct(t *testing.T, r http.Handler, adminToken string, stock int) uint {
	t.Helper()
	status, env := do(t, r, http.MethodPost, "/api/products", adminToken, gin.H{
		"name": "60 UC", "category": "PUBG", "price": "10.00", "stock": stock,
	})
	require.Equal(t, http.StatusCreated, status)
	var p idBody
	decode(t, env, &p)
	assert.Equal(t, stock, p.Stock)
	return p.ID
}

func createOrder(t *testing.T, r http.Handler, token string, productID uint, quantity int) idBody {
	t.Helper()
	status, env := do(t, r, http.MethodPost, "/api/orders", token, gin.H{
		"product_id": productID, "quantity": quantity, "player_id": "player-1",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var o idBody
	decode(t, env, &o)
	return o
}

func TestHealthAndMetrics(t *testing.T) {
	r := newServer(t, gateway.NewMockGateway(1))

	status, env := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	var body struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	decode(t, env, &body)
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Timestamp)

	status, _ = do(t, r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthRequired(t *testing.T) {
	r := newServer(t, gateway.NewMockGateway(1))

	status, env := do(t, r, http.MethodGet, "/api/orders", "", nil)
	assertAppError(t, status, env, apperrors.ErrUnauthorized)

	buyer := registerAndLogin(t, r, "buyer@example.com")
	status, env = do(t, r, http.MethodPost, "/api/products", buyer, gin.H{
		"name": "x", "category": "PUBG", "price": "1.00",
	})
	assertAppError(t, status, env, apperrors.ErrForbidden)

	status, _ = do(t, r, http.MethodPost, "/api/auth/logout", buyer, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = do(t, r, http.MethodGet, "/api/orders", buyer, nil)
	assertAppError(t, status, env, apperrors.ErrTokenExpired)
}

func TestOrderAndPaymentFlow(t *testing.T) {
	r := newServer(t, gateway.NewMockGateway(1))
	admin := registerAndLogin(t, r, adminEmail)
	buyer := registerAndLogin(t, r, "buyer@example.com")
	productID := publishProduct(t, r, admin, 5)

	o := createOrder(t, r, buyer, productID, 2)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, "20.00", o.TotalAmount)

	status, env := do(t, r, http.MethodGet, fmt.Sprintf("/api/products/%d", productID), "", nil)
	require.Equal(t, http.StatusOK, status)
	var p idBody
	decode(t, env, &p)
	assert.Equal(t, 3, p.Stock, "下单即扣减库存")

	status, env = do(t, r, http.MethodPost, "/api/payments", buyer, gin.H{
		"order_id": o.ID, "method": "visa", "amount": "19.99",
	})
	assertAppError(t, status, env, payment.ErrAmountMismatch)

	status, env = do(t, r, http.MethodPost, "/api/payments", buyer, gin.H{
		"order_id": o.ID, "method": "visa", "amount": "20.00",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var pay idBody
	decode(t, env, &pay)
	assert.Equal(t, "success", pay.Status)

	status, env = do(t, r, http.MethodPost, "/api/payments", buyer, gin.H{
		"order_id": o.ID, "method": "visa", "amount": "20.00",
	})
	assertAppError(t, status, env, payment.ErrAlreadyPaid)

	status, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/orders/%d", o.ID), buyer, nil)
	require.Equal(t, http.StatusOK, status)
	var detail struct {
		Status  string  `json:"status"`
		Payment *idBody `json:"payment"`
		Product *idBody `json:"product"`
	}
	decode(t, env, &detail)
	assert.Equal(t, "paid", detail.Status)
	require.NotNil(t, detail.Payment)
	assert.Equal(t, pay.ID, detail.Payment.ID)
	require.NotNil(t, detail.Product)

	status, env = do(t, r, http.MethodPost, "/api/payments/webhook", "", gin.H{
		"transaction_id": pay.TransactionID, "status": "failed",
	})
	assertAppError(t, status, env, payment.ErrPaymentImmutable)

	status, env = do(t, r, http.MethodDelete, fmt.Sprintf("/api/payments/%d", pay.ID), buyer, nil)
	assertAppError(t, status, env, payment.ErrPaymentImmutable)

	status, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/payments/%d", pay.ID), buyer, gin.H{"status": "failed"})
	assertAppError(t, status, env, apperrors.ErrForbidden)

	status, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/orders/%d", o.ID), admin, gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = do(t, r, http.MethodGet, "/api/orders?per_page=5", buyer, nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Total    int64 `json:"total"`
		PageSize int   `json:"page_size"`
	}
	decode(t, env, &page)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 5, page.PageSize)
}

func TestIndeterminatePaymentSettledByWebhook(t *testing.T) {
	r := newServer(t, unknownGateway{})
	admin := registerAndLogin(t, r, adminEmail)
	buyer := registerAndLogin(t, r, "buyer@example.com")
	o := createOrder(t, r, buyer, publishProduct(t, r, admin, 5), 1)

	status, env := do(t, r, http.MethodPost, "/api/payments", buyer, gin.H{
		"order_id": o.ID, "method": "mada", "amount": "10.00",
	})
	assertAppError(t, status, env, payment.ErrIndeterminateOutcome)
	assert.Equal(t, http.StatusAccepted, status)
	var pay idBody
	decode(t, env, &pay)
	assert.Equal(t, "pending", pay.Status)
	require.NotEmpty(t, pay.TransactionID)

	status, env = do(t, r, http.MethodPut, fmt.Sprintf("/api/orders/%d", o.ID), buyer, gin.H{"status": "cancelled"})
	assertAppError(t, status, env, payment.ErrPaymentPending)

	status, env = do(t, r, http.MethodPost, "/api/payments/webhook", "", gin.H{
		"transaction_id": pay.TransactionID, "status": "success", "gateway_ref": "GW-1",
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var settled struct {
		Status          string                 `json:"status"`
		GatewayResponse map[string]interface{} `json:"gateway_response"`
	}
	decode(t, env, &settled)
	assert.Equal(t, "success", settled.Status)
	assert.Equal(t, "GW-1", settled.GatewayResponse["gateway_ref"])

	// 重复回调幂等
	status, _ = do(t, r, http.MethodPost, "/api/payments/webhook", "", gin.H{
		"transaction_id": pay.TransactionID, "status": "success",
	})
	assert.Equal(t, http.StatusOK, status)

	status, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/orders/%d", o.ID), buyer, nil)
	require.Equal(t, http.StatusOK, status)
	var detail idBody
	decode(t, env, &detail)
	assert.Equal(t, "paid", detail.Status)
}

func TestWebhookValidation(t *testing.T) {
	r := newServer(t, gateway.NewMockGateway(1))

	status, env := do(t, r, http.MethodPost, "/api/payments/webhook", "", gin.H{"status": "success"})
	assertAppError(t, status, env, apperrors.ErrValidationFailed)
	assert.Contains(t, env.Errors, "transaction_id")

	status, env = do(t, r, http.MethodPost, "/api/payments/webhook", "", gin.H{
		"transaction_id": "TXN_NOPE000000", "status": "success",
	})
	assertAppError(t, status, env, payment.ErrPaymentNotFound)
}

func TestInvalidPathID(t *testing.T) {
	r := newServer(t, gateway.NewMockGateway(1))
	buyer := registerAndLogin(t, r, "buyer@example.com")

	status, env := do(t, r, http.MethodGet, "/api/orders/abc", buyer, nil)
	assertAppError(t, status, env, apperrors.ErrValidationFailed)
	assert.Contains(t, env.Errors, "id")
}

func TestPaymentAmountValidation(t *testing.T) {
	r := newServer(t, gateway.NewMockGateway(1))
	admin := registerAndLogin(t, r, adminEmail)
	buyer := registerAndLogin(t, r, "buyer@example.com")
	o := createOrder(t, r, buyer, publishProduct(t, r, admin, 5), 1)

	cases := []struct {
		name string
		body gin.H
	}{
		{"缺少金额", gin.H{"order_id": o.ID, "method": "visa"}},
		{"金额溢出", gin.H{"order_id": o.ID, "method": "visa", "amount": "184467440737095536.16"}},
		{"金额为null", gin.H{"order_id": o.ID, "method": "visa", "amount": nil}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := do(t, r, http.MethodPost, "/api/payments", buyer, tc.body)
			assertAppError(t, status, env, apperrors.ErrValidationFailed)
			assert.Equal(t, http.StatusUnprocessableEntity, status)
			assert.Contains(t, env.Errors, "amount")
		})
	}

	// 订单未被支付
	status, env := do(t, r, http.MethodGet, fmt.Sprintf("/api/orders/%d", o.ID), buyer, nil)
	require.Equal(t, http.StatusOK, status)
	var detail idBody
	decode(t, env, &detail)
	assert.Equal(t, "pending", detail.Status)

	status, env = do(t, r, http.MethodPost, "/api/products", admin, gin.H{"name": "free", "category": "Steam", "stock": 1})
	assertAppError(t, status, env, apperrors.ErrValidationFailed)
	assert.Contains(t, env.Errors, "price")
}

func TestCurrentUserAndCategories(t *testing.T) {
	r := newServer(t, gateway.NewMockGateway(1))
	buyer := registerAndLogin(t, r, "buyer@example.com")

	status, env := do(t, r, http.MethodGet, "/api/auth/user", buyer, nil)
	require.Equal(t, http.StatusOK, status)
	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decode(t, env, &me)
	assert.Equal(t, "buyer@example.com", me.Email)
	assert.Equal(t, "customer", me.Role)

	status, env = do(t, r, http.MethodGet, "/api/auth/user", "", nil)
	assertAppError(t, status, env, apperrors.ErrUnauthorized)

	status, env = do(t, r, http.MethodGet, "/api/products/categories", "", nil)
	require.Equal(t, http.StatusOK, status)
	var categories []string
	decode(t, env, &categories)
	assert.Equal(t, []string{"PUBG", "FreeFire", "GooglePlay", "iTunes", "Steam"}, categories)
}

func TestListPaymentsAndOrderCategoryFilter(t *testing.T) {
	r := newServer(t, gateway.NewMockGateway(1))
	admin := registerAndLogin(t, r, adminEmail)
	alice := registerAndLogin(t, r, "alice@example.com")
	bob := registerAndLogin(t, r, "bob@example.com")

	pubg := publishProduct(t, r, admin, 10)
	status, env := do(t, r, http.MethodPost, "/api/products", admin, gin.H{
		"name": "Steam 50", "category": "Steam", "price": "5.00", "stock": 10,
	})
	require.Equal(t, http.StatusCreated, status)
	var steam idBody
	decode(t, env, &steam)

	pay := func(token string, o idBody, method string) {
		t.Helper()
		status, env := do(t, r, http.MethodPost, "/api/payments", token, gin.H{
			"order_id": o.ID, "method": method, "amount": o.TotalAmount,
		})
		require.Equal(t, http.StatusCreated, status, env.Message)
	}
	pay(alice, createOrder(t, r, alice, pubg, 1), "visa")
	pay(alice, createOrder(t, r, alice, steam.ID, 1), "mada")
	pay(bob, createOrder(t, r, bob, pubg, 2), "visa")

	type page struct {
		List []struct {
			OrderID uint   `json:"order_id"`
			Method  string `json:"method"`
			Status  string `json:"status"`
		} `json:"list"`
		Total    int64 `json:"total"`
		PageSize int   `json:"page_size"`
	}

	status, env = do(t, r, http.MethodGet, "/api/payments", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var own page
	decode(t, env, &own)
	assert.Equal(t, int64(2), own.Total, "只能看到自己的支付")
	assert.Equal(t, 15, own.PageSize)

	status, env = do(t, r, http.MethodGet, "/api/payments?method=visa", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var visa page
	decode(t, env, &visa)
	assert.Equal(t, int64(2), visa.Total)
	for _, p := range visa.List {
		assert.Equal(t, "visa", p.Method)
		assert.Equal(t, "success", p.Status)
	}

	status, env = do(t, r, http.MethodGet, "/api/payments?status=failed", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var failed page
	decode(t, env, &failed)
	assert.Zero(t, failed.Total)

	status, env = do(t, r, http.MethodGet, "/api/payments?method=bitcoin", admin, nil)
	assertAppError(t, status, env, apperrors.ErrValidationFailed)
	assert.Contains(t, env.Errors, "method")

	status, env = do(t, r, http.MethodGet, "/api/orders?category=Steam", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var steamOrders page
	decode(t, env, &steamOrders)
	assert.Equal(t, int64(1), steamOrders.Total)

	status, env = do(t, r, http.MethodGet, "/api/orders?category=PUBG", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var bobOrders page
	decode(t, env, &bobOrders)
	assert.Equal(t, int64(1), bobOrders.Total)

	status, env = do(t, r, http.MethodGet, "/api/orders?category=Xbox", admin, nil)
	assertAppError(t, status, env, apperrors.ErrValidationFailed)
	assert.Contains(t, env.Errors, "category")
}
