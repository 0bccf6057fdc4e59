package payment_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apppayment "github.com/xiebiao/topupstore/internal/application/payment"
	"github.com/xiebiao/topupstore/internal/domain/event"
	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/payment"
	"github.com/xiebiao/topupstore/internal/domain/product"
	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/internal/infrastructure/gateway"
	"github.com/xiebiao/topupstore/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/topupstore/pkg/clock"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// mockGateway 只支持扣款
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Attempt(_ context.Context, req payment.AttemptRequest) (*payment.Outcome, error) {
	args := m.Called(req)
	out, _ := args.Get(0).(*payment.Outcome)
	return out, args.Error(1)
}

// queryingGateway 同时支持查询
type queryingGateway struct {
	mockGateway
}

func (m *queryingGateway) Query(_ context.Context, reference string) (*payment.Outcome, error) {
	args := m.Called(reference)
	out, _ := args.Get(0).(*payment.Outcome)
	return out, args.Error(1)
}

type memoryDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memoryDeduper) Processed(_ context.Context, txn, status string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[txn+":"+status], nil
}

func (d *memoryDeduper) MarkProcessed(_ context.Context, txn, status string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[txn+":"+status] = true
	return nil
}

type env struct {
	orders   order.Repository
	products product.Repository
	payments payment.Repository
	events   *event.Recorder
	clock    *clock.Fake
	gateway  *queryingGateway
	deduper  *memoryDeduper

	initiate  *apppayment.InitiatePaymentUseCase
	list      *apppayment.ListPaymentsUseCase
	webhook   *apppayment.HandleWebhookUseCase
	get       *apppayment.GetPaymentUseCase
	update    *apppayment.UpdatePaymentUseCase
	delete    *apppayment.DeletePaymentUseCase
	reconcile *apppayment.Reconciler

	customer user.Actor
	admin    user.Actor
	product  *product.Product
}

func newEnv(t *testing.T, opts ...func(*envConfig)) *env {
	t.Helper()
	cfg := envConfig{options: apppayment.Options{
		GatewayTimeout: time.Second,
		ReconcileAfter: 5 * time.Minute,
		ReconcileBatch: 10,
	}}
	for _, o := range opts {
		o(&cfg)
	}

	store := memory.NewStore()
	e := &env{
		orders:   memory.NewOrderRepository(store),
		products: memory.NewProductRepository(store),
		payments: memory.NewPaymentRepository(store),
		events:   &event.Recorder{},
		clock:    clock.NewFake(testNow),
		gateway:  &queryingGateway{},
		deduper:  &memoryDeduper{seen: map[string]bool{}},
		customer: user.Actor{UserID: 1, Role: user.RoleCustomer},
		admin:    user.Actor{UserID: 2, Role: user.RoleAdmin},
	}
	gw := cfg.gateway
	if gw == nil {
		gw = e.gateway
	}

	txm := memory.NewTxManager(store)
	log := zap.NewNop()
	recorder := apppayment.NewOutcomeRecorder(e.orders, e.payments, e.clock)

	e.initiate = apppayment.NewInitiatePaymentUseCase(e.orders, e.payments, txm, gw, recorder, e.clock, e.events, log, cfg.options)
	e.webhook = apppayment.NewHandleWebhookUseCase(e.orders, e.payments, txm, recorder, e.deduper, e.clock, e.events, log)
	e.list = apppayment.NewListPaymentsUseCase(e.payments)
	e.get = apppayment.NewGetPaymentUseCase(e.payments, e.orders)
	e.update = apppayment.NewUpdatePaymentUseCase(e.orders, e.payments, txm, recorder, e.clock, e.events, log)
	e.delete = apppayment.NewDeletePaymentUseCase(e.orders, e.payments, txm, e.clock, e.events, log)
	e.reconcile = apppayment.NewReconciler(e.orders, e.payments, txm, gw, recorder, e.clock, e.events, log, cfg.options)

	p, err := product.NewProduct("Steam 50 SAR", product.CategorySteam, "", 1000, 5, "", true, testNow)
	require.NoError(t, err)
	require.NoError(t, e.products.Create(context.Background(), p))
	e.product = p
	return e
}

type envConfig struct {
	options apppayment.Options
	gateway payment.Gateway
}

func withGateway(gw payment.Gateway) func(*envConfig) {
	return func(c *envConfig) { c.gateway = gw }
}

func withTimeout(d time.Duration) func(*envConfig) {
	return func(c *envConfig) { c.options.GatewayTimeout = d }
}

// placeOrder 按下单用例的方式写入订单并扣减库存
func (e *env) placeOrder(t *testing.T, qty int) *order.Order {
	t.Helper()
	ctx := context.Background()
	o, err := order.NewOrder(e.customer.UserID, e.product.ID, e.product.Price, qty, "76561198000000000", "", e.clock.Now())
	require.NoError(t, err)
	require.NoError(t, e.orders.Create(ctx, o))
	require.NoError(t, e.products.TryDecrementStock(ctx, e.product.ID, qty))
	return o
}

func (e *env) order(t *testing.T, id uint) *order.Order {
	t.Helper()
	o, err := e.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (e *env) stock(t *testing.T) int {
	t.Helper()
	p, err := e.products.FindByID(context.Background(), e.product.ID)
	require.NoError(t, err)
	return p.Stock
}

func (e *env) pay(o *order.Order) (*payment.Payment, error) {
	return e.initiate.Execute(context.Background(), apppayment.InitiatePaymentRequest{
		Actor:   e.customer,
		OrderID: o.ID,
		Method:  payment.MethodMada,
		Amount:  o.TotalAmount,
	})
}

func approved(txn string) *payment.Outcome {
	return &payment.Outcome{Success: true, TransactionID: txn, Metadata: map[string]interface{}{"status": "approved"}}
}

func declined() *payment.Outcome {
	return &payment.Outcome{Success: false, Metadata: map[string]interface{}{"status": "declined", "reason": "Insufficient funds"}}
}

func TestInitiate_SuccessThenAlreadyPaid(t *testing.T) {
	e := newEnv(t)
	o := e.placeOrder(t, 2)
	require.Equal(t, int64(2000), o.TotalAmount)
	require.Equal(t, 3, e.stock(t))

	e.gateway.On("Attempt", mock.MatchedBy(func(req payment.AttemptRequest) bool {
		return req.OrderID == o.ID && req.Amount == 2000 && req.Method == payment.MethodMada
	})).Return(approved("GW_0001"), nil).Once()

	p, err := e.pay(o)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, p.Status)
	assert.Equal(t, "GW_0001", p.TransactionID)
	assert.NotNil(t, p.ProcessedAt)

	assert.Equal(t, order.StatusPaid, e.order(t, o.ID).Status)
	assert.Equal(t, 3, e.stock(t), "支付成功不回补库存")
	assert.Equal(t, []string{event.PaymentSettled}, e.events.Names())

	_, err = e.pay(o)
	assert.ErrorIs(t, err, payment.ErrAlreadyPaid)
	e.gateway.AssertExpectations(t)
}

func TestInitiate_FailureThenRetry(t *testing.T) {
	e := newEnv(t)
	o := e.placeOrder(t, 1)

	e.gateway.On("Attempt", mock.Anything).Return(declined(), nil).Once()
	first, err := e.pay(o)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, first.Status)
	assert.Equal(t, order.StatusFailed, e.order(t, o.ID).Status)
	assert.Equal(t, 4, e.stock(t), "支付失败不回补库存")

	e.gateway.On("Attempt", mock.Anything).Return(approved(""), nil).Once()
	second, err := e.pay(o)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, second.Status)
	assert.NotEqual(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, order.StatusPaid, e.order(t, o.ID).Status)

	_, err = e.payments.FindByID(context.Background(), first.ID)
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound, "重新支付时删除失败的支付记录")
}

// disconnectingGateway 扣款期间调用方断开连接
type disconnectingGateway struct {
	disconnect context.CancelFunc
	ctxErr     error
}

func (g *disconnectingGateway) Attempt(ctx context.Context, req payment.AttemptRequest) (*payment.Outcome, error) {
	g.disconnect()
	g.ctxErr = ctx.Err()
	return approved("GW_" + req.Reference), nil
}

func TestInitiate_ClientDisconnectStillRecordsOutcome(t *testing.T) {
	gw := &disconnectingGateway{}
	e := newEnv(t, withGateway(gw))
	o := e.placeOrder(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw.disconnect = cancel

	p, err := e.initiate.Execute(ctx, apppayment.InitiatePaymentRequest{
		Actor:   e.customer,
		OrderID: o.ID,
		Method:  payment.MethodVisa,
		Amount:  o.TotalAmount,
	})
	require.NoError(t, err)
	assert.NoError(t, gw.ctxErr, "网关调用不随请求取消")
	assert.Equal(t, payment.StatusSuccess, p.Status)

	stored, err := e.payments.FindByOrderID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, stored.Status)
	assert.Equal(t, p.TransactionID, stored.TransactionID)
	assert.Equal(t, order.StatusPaid, e.order(t, o.ID).Status)
}

func TestInitiate_Rejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.placeOrder(t, 1)

	cancelled := e.placeOrder(t, 1)
	require.NoError(t, cancelled.TransitionTo(order.StatusCancelled, testNow))
	require.NoError(t, e.orders.Update(ctx, cancelled))

	tests := []struct {
		name    string
		req     apppayment.InitiatePaymentRequest
		wantErr error
	}{
		{"金额不一致", apppayment.InitiatePaymentRequest{Actor: e.customer, OrderID: o.ID, Method: payment.MethodVisa, Amount: o.TotalAmount - 1}, payment.ErrAmountMismatch},
		{"未知支付方式", apppayment.InitiatePaymentRequest{Actor: e.customer, OrderID: o.ID, Method: "bitcoin", Amount: o.TotalAmount}, payment.ErrInvalidMethod},
		{"订单不存在", apppayment.InitiatePaymentRequest{Actor: e.customer, OrderID: 404, Method: payment.MethodVisa, Amount: 1}, order.ErrOrderNotFound},
		{"他人订单", apppayment.InitiatePaymentRequest{Actor: user.Actor{UserID: 99, Role: user.RoleCustomer}, OrderID: o.ID, Method: payment.MethodVisa, Amount: o.TotalAmount}, apperrors.ErrForbidden},
		{"已取消订单", apppayment.InitiatePaymentRequest{Actor: e.customer, OrderID: cancelled.ID, Method: payment.MethodVisa, Amount: cancelled.TotalAmount}, payment.ErrInvalidOrderStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.initiate.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := e.payments.FindByOrderID(ctx, o.ID)
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound, "被拒绝的请求不产生支付记录")
	e.gateway.AssertNotCalled(t, "Attempt", mock.Anything)
}

func TestInitiate_GatewayTimeoutSettlesAsFailed(t *testing.T) {
	slow := gateway.NewMockGateway(1, gateway.WithDelay(time.Second))
	e := newEnv(t, withGateway(slow), withTimeout(20*time.Millisecond))
	o := e.placeOrder(t, 1)

	p, err := e.pay(o)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Equal(t, "timeout", p.GatewayResponse["reason"])
	assert.Equal(t, order.StatusFailed, e.order(t, o.ID).Status)
}

func TestInitiate_GatewayUnavailableSettlesAsFailed(t *testing.T) {
	e := newEnv(t)
	o := e.placeOrder(t, 1)
	e.gateway.On("Attempt", mock.Anything).
		Return(nil, fmt.Errorf("%w: circuit breaker is open", payment.ErrGatewayUnavailable)).Once()

	p, err := e.pay(o)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Equal(t, "gateway_unavailable", p.GatewayResponse["reason"])
}

func TestInitiate_IndeterminateThenWebhook(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.placeOrder(t, 2)
	e.gateway.On("Attempt", mock.Anything).Return(nil, errors.New("connection reset by peer")).Once()

	p, err := e.pay(o)
	require.ErrorIs(t, err, payment.ErrIndeterminateOutcome)
	require.NotNil(t, p)
	assert.Equal(t, payment.StatusPending, p.Status)
	assert.Equal(t, "unknown", p.GatewayResponse["status"])
	assert.Equal(t, order.StatusPending, e.order(t, o.ID).Status)
	assert.Empty(t, e.events.Names())

	_, err = e.pay(o)
	assert.ErrorIs(t, err, payment.ErrPaymentPending, "结果未知时不能重复发起")

	res, err := e.webhook.Execute(ctx, apppayment.WebhookRequest{
		TransactionID: p.TransactionID,
		Status:        payment.StatusSuccess,
		Payload:       map[string]interface{}{"event": "charge.succeeded"},
	})
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, payment.StatusSuccess, res.Payment.Status)
	assert.Equal(t, "charge.succeeded", res.Payment.GatewayResponse["event"])
	assert.Equal(t, order.StatusPaid, e.order(t, o.ID).Status)
	assert.Equal(t, []string{event.PaymentSettled}, e.events.Names())

	replay, err := e.webhook.Execute(ctx, apppayment.WebhookRequest{TransactionID: p.TransactionID, Status: payment.StatusSuccess})
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Len(t, e.events.Names(), 1, "重复回调不再发布事件")

	_, err = e.webhook.Execute(ctx, apppayment.WebhookRequest{TransactionID: p.TransactionID, Status: payment.StatusFailed})
	assert.ErrorIs(t, err, payment.ErrPaymentImmutable)
	assert.Equal(t, order.StatusPaid, e.order(t, o.ID).Status)
}

func TestWebhook_Rejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.webhook.Execute(ctx, apppayment.WebhookRequest{TransactionID: "TXN_UNKNOWN", Status: payment.StatusSuccess})
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound)

	_, err = e.webhook.Execute(ctx, apppayment.WebhookRequest{TransactionID: "TXN_X", Status: payment.StatusPending})
	assert.ErrorIs(t, err, payment.ErrInvalidStatus)

	_, err = e.webhook.Execute(ctx, apppayment.WebhookRequest{Status: payment.StatusSuccess})
	assert.ErrorIs(t, err, payment.ErrInvalidTransactionID)
}

func TestWebhook_ConcurrentDeliveriesSettleOnce(t *testing.T) {
	e := newEnv(t)
	o := e.placeOrder(t, 1)
	p, err := payment.NewPayment(o.ID, payment.MethodPaypal, o.TotalAmount, "TXN_CONCURRENT", testNow)
	require.NoError(t, err)
	require.NoError(t, e.payments.Create(context.Background(), p))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.webhook.Execute(context.Background(), apppayment.WebhookRequest{
				TransactionID: "TXN_CONCURRENT",
				Status:        payment.StatusSuccess,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, order.StatusPaid, e.order(t, o.ID).Status)
	assert.Equal(t, []string{event.PaymentSettled}, e.events.Names())
}

func TestUpdatePayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	newPending := func(t *testing.T, txn string) (*order.Order, *payment.Payment) {
		o := e.placeOrder(t, 1)
		p, err := payment.NewPayment(o.ID, payment.MethodApplePay, o.TotalAmount, txn, testNow)
		require.NoError(t, err)
		require.NoError(t, e.payments.Create(ctx, p))
		return o, p
	}
	statusPtr := func(s payment.Status) *payment.Status { return &s }

	t.Run("仅管理员可修改", func(t *testing.T) {
		_, p := newPending(t, "TXN_UPD_0001")
		_, err := e.update.Execute(ctx, apppayment.UpdatePaymentRequest{Actor: e.customer, PaymentID: p.ID, Status: statusPtr(payment.StatusSuccess)})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("人工确认成功同步订单", func(t *testing.T) {
		o, p := newPending(t, "TXN_UPD_0002")
		txn := "GW_MANUAL_01"
		updated, err := e.update.Execute(ctx, apppayment.UpdatePaymentRequest{
			Actor: e.admin, PaymentID: p.ID, Status: statusPtr(payment.StatusSuccess), TransactionID: &txn,
		})
		require.NoError(t, err)
		assert.Equal(t, payment.StatusSuccess, updated.Status)
		assert.Equal(t, txn, updated.TransactionID)
		assert.Equal(t, order.StatusPaid, e.order(t, o.ID).Status)

		_, err = e.update.Execute(ctx, apppayment.UpdatePaymentRequest{Actor: e.admin, PaymentID: p.ID, GatewayResponse: map[string]interface{}{"a": 1}})
		assert.ErrorIs(t, err, payment.ErrPaymentImmutable)
	})

	t.Run("不能改回pending", func(t *testing.T) {
		_, p := newPending(t, "TXN_UPD_0003")
		_, err := e.update.Execute(ctx, apppayment.UpdatePaymentRequest{Actor: e.admin, PaymentID: p.ID, Status: statusPtr("refunded")})
		assert.ErrorIs(t, err, payment.ErrInvalidStatus)

		p.Status = payment.StatusFailed
		require.NoError(t, e.payments.Update(ctx, p))
		_, err = e.update.Execute(ctx, apppayment.UpdatePaymentRequest{Actor: e.admin, PaymentID: p.ID, Status: statusPtr(payment.StatusPending)})
		assert.ErrorIs(t, err, payment.ErrInvalidTransition)
	})

	t.Run("只改元数据不影响订单", func(t *testing.T) {
		o, p := newPending(t, "TXN_UPD_0004")
		updated, err := e.update.Execute(ctx, apppayment.UpdatePaymentRequest{
			Actor: e.admin, PaymentID: p.ID, GatewayResponse: map[string]interface{}{"note": "checked"},
		})
		require.NoError(t, err)
		assert.Equal(t, payment.StatusPending, updated.Status)
		assert.Equal(t, "checked", updated.GatewayResponse["note"])
		assert.Equal(t, order.StatusPending, e.order(t, o.ID).Status)
	})
}

func TestGetAndDeletePayment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	o := e.placeOrder(t, 1)
	e.gateway.On("Attempt", mock.Anything).Return(declined(), nil).Once()
	failed, err := e.pay(o)
	require.NoError(t, err)

	stranger := user.Actor{UserID: 99, Role: user.RoleCustomer}
	_, err = e.get.Execute(ctx, stranger, failed.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	detail, err := e.get.Execute(ctx, e.customer, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, detail.Order.ID)

	assert.ErrorIs(t, e.delete.Execute(ctx, stranger, failed.ID), apperrors.ErrForbidden)
	require.NoError(t, e.delete.Execute(ctx, e.customer, failed.ID))
	assert.Contains(t, e.events.Names(), event.PaymentDeleted)

	e.gateway.On("Attempt", mock.Anything).Return(approved(""), nil).Once()
	paid, err := e.pay(o)
	require.NoError(t, err)
	assert.ErrorIs(t, e.delete.Execute(ctx, e.admin, paid.ID), payment.ErrPaymentImmutable)
}

func TestListPayments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.gateway.On("Attempt", mock.Anything).Return(approved(""), nil).Once()
	_, err := e.pay(e.placeOrder(t, 1))
	require.NoError(t, err)
	e.gateway.On("Attempt", mock.Anything).Return(declined(), nil).Once()
	_, err = e.pay(e.placeOrder(t, 1))
	require.NoError(t, err)

	res, err := e.list.Execute(ctx, apppayment.ListPaymentsRequest{Actor: e.customer})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 15, res.PageSize)

	res, err = e.list.Execute(ctx, apppayment.ListPaymentsRequest{Actor: e.customer, Status: payment.StatusFailed})
	require.NoError(t, err)
	require.Len(t, res.Payments, 1)
	assert.Equal(t, payment.StatusFailed, res.Payments[0].Status)

	// 普通用户传user_id无效
	stranger := user.Actor{UserID: 99, Role: user.RoleCustomer}
	res, err = e.list.Execute(ctx, apppayment.ListPaymentsRequest{Actor: stranger, UserID: e.customer.UserID})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	res, err = e.list.Execute(ctx, apppayment.ListPaymentsRequest{Actor: e.admin, UserID: e.customer.UserID, Method: payment.MethodMada, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	assert.Equal(t, 100, res.PageSize)

	_, err = e.list.Execute(ctx, apppayment.ListPaymentsRequest{Actor: e.admin, Method: "bitcoin"})
	assert.ErrorIs(t, err, payment.ErrInvalidMethod)
	_, err = e.list.Execute(ctx, apppayment.ListPaymentsRequest{Actor: e.admin, Status: "refunded"})
	assert.ErrorIs(t, err, payment.ErrInvalidStatus)
}

func TestReconciler_RunOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	settle := e.placeOrder(t, 1)
	unknown := e.placeOrder(t, 1)
	e.gateway.On("Attempt", mock.Anything).Return(nil, errors.New("EOF")).Twice()
	ps, err := e.pay(settle)
	require.ErrorIs(t, err, payment.ErrIndeterminateOutcome)
	pu, err := e.pay(unknown)
	require.ErrorIs(t, err, payment.ErrIndeterminateOutcome)

	report, err := e.reconcile.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Checked, "未超过等待时间的支付不参与对账")

	e.clock.Advance(10 * time.Minute)
	e.gateway.On("Query", ps.TransactionID).Return(approved("GW_LATE"), nil).Once()
	e.gateway.On("Query", pu.TransactionID).Return(nil, payment.ErrOutcomeUnknown).Once()

	report, err = e.reconcile.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, apppayment.ReconcileReport{Checked: 2, Settled: 1, Unresolved: 1}, report)

	assert.Equal(t, order.StatusPaid, e.order(t, settle.ID).Status)
	assert.Equal(t, order.StatusPending, e.order(t, unknown.ID).Status)
	settled, err := e.payments.FindByID(ctx, ps.ID)
	require.NoError(t, err)
	assert.Equal(t, "GW_LATE", settled.TransactionID)
	e.gateway.AssertExpectations(t)
}

func TestReconciler_GatewayWithoutQuery(t *testing.T) {
	e := newEnv(t, withGateway(&mockGateway{}))
	report, err := e.reconcile.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, apppayment.ReconcileReport{}, report)
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.reconcile.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("对账任务未在取消后退出")
	}
}
