package order

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xiebiao/topupstore/internal/domain/event"
	"github.com/xiebiao/topupstore/internal/domain/order"
	"github.com/xiebiao/topupstore/internal/domain/product"
	"github.com/xiebiao/topupstore/internal/domain/tx"
	"github.com/xiebiao/topupstore/internal/domain/user"
	"github.com/xiebiao/topupstore/pkg/clock"
	apperrors "github.com/xiebiao/topupstore/pkg/errors"
	"github.com/xiebiao/topupstore/pkg/metrics"
	"github.com/xiebiao/topupstore/pkg/tracing"
)

// CreateOrderUseCase 创建订单用例
// 订单写入与库存扣减在同一事务内完成，二者要么都发生，要么都不发生
type CreateOrderUseCase struct {
	orderRepo   order.Repository
	productRepo product.Repository
	userRepo    user.Repository
	txManager   tx.Manager
	clock       clock.Clock
	events      event.Publisher
	logger      *zap.Logger
}

// NewCreateOrderUseCase 创建下单用例
func NewCreateOrderUseCase(
	orderRepo order.Repository,
	productRepo product.Repository,
	userRepo user.Repository,
	txManager tx.Manager,
	clk clock.Clock,
	events event.Publisher,
	logger *zap.Logger,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		clock:       clk,
		events:      events,
		logger:      logger,
	}
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	Actor     user.Actor
	UserID    uint // 为0时为调用者本人下单
	ProductID uint
	Quantity  int
	PlayerID  string
	Notes     string
}

// Execute 执行下单
//
// 防止超卖：
//  1. SELECT ... FOR UPDATE 锁定商品行
//  2. 检查上架状态与库存
//  3. 按锁定时的价格计算总价并写入订单
//  4. 条件扣减库存（stock >= quantity）
//  5. COMMIT释放锁
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (*order.Order, error) {
	ctx, span := tracing.StartSpan(ctx, "order.create")
	defer span.End()

	userID := req.UserID
	if userID == 0 {
		userID = req.Actor.UserID
	}
	if userID != req.Actor.UserID {
		if !req.Actor.IsAdmin() {
			return nil, apperrors.ErrForbidden
		}
		if _, err := uc.userRepo.FindByID(ctx, userID); err != nil {
			return nil, err
		}
	}

	if req.Quantity < order.MinQuantity || req.Quantity > order.MaxQuantity {
		metrics.IncOrderFailed("invalid")
		return nil, order.ErrInvalidQuantity
	}

	var created *order.Order
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		p, err := uc.productRepo.LockByID(txCtx, req.ProductID)
		if err != nil {
			return err
		}
		if err := p.CheckSupply(req.Quantity); err != nil {
			return err
		}

		o, err := order.NewOrder(userID, p.ID, p.Price, req.Quantity, req.PlayerID, req.Notes, uc.clock.Now())
		if err != nil {
			return err
		}
		if err := uc.orderRepo.Create(txCtx, o); err != nil {
			return err
		}
		if err := uc.productRepo.TryDecrementStock(txCtx, p.ID, req.Quantity); err != nil {
			return err
		}

		created = o
		return nil
	})
	if err != nil {
		metrics.IncOrderFailed(failureReason(err))
		uc.logger.Info("下单失败",
			zap.Uint("user_id", userID),
			zap.Uint("product_id", req.ProductID),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	uc.logger.Info("订单已创建",
		zap.Uint("order_id", created.ID),
		zap.Uint("user_id", created.UserID),
		zap.Int64("total_amount", created.TotalAmount))
	publish(ctx, uc.events, uc.logger, event.New(event.OrderCreated, uc.clock.Now(), orderPayload(created)))

	return created, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, product.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, product.ErrProductUnavailable):
		return "unavailable"
	case errors.Is(err, product.ErrProductNotFound):
		return "product_not_found"
	case apperrors.IsCode(err, apperrors.ErrCodeValidationFailed):
		return "invalid"
	default:
		return "error"
	}
}
