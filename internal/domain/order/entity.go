package order

import (
	"strings"
	"time"
)

// Status 订单状态
type Status string

const (
	StatusPending   Status = "pending"   // 待支付（已预占库存）
	StatusPaid      Status = "paid"      // 已支付
	StatusCompleted Status = "completed" // 已完成（终态）
	StatusFailed    Status = "failed"    // 支付失败，可重新支付
	StatusCancelled Status = "cancelled" // 已取消（终态）
)

// transitions 合法的状态流转表
// 所有写路径（支付结果、人工修改）都必须经过这张表
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusFailed, StatusCancelled},
	StatusPaid:      {StatusCompleted, StatusFailed},
	StatusFailed:    {StatusPaid, StatusFailed},
	StatusCompleted: {},
	StatusCancelled: {},
}

// Valid 是否为已知状态
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal 终态订单不可再修改
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo 查流转表
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

const (
	MinQuantity    = 1
	MaxQuantity    = 100
	MaxPlayerIDLen = 255
	MaxNotesLen    = 500
)

// Order 订单实体
// TotalAmount在创建时按 单价×数量 计算（分），之后不再重算
type Order struct {
	ID          uint
	UserID      uint
	ProductID   uint
	Quantity    int
	TotalAmount int64
	PlayerID    string
	Notes       string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrder 创建待支付订单
func NewOrder(userID, productID uint, unitPrice int64, quantity int, playerID, notes string, now time.Time) (*Order, error) {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	if err := validatePlayerID(playerID); err != nil {
		return nil, err
	}
	if len(notes) > MaxNotesLen {
		return nil, ErrInvalidNotes
	}

	return &Order{
		UserID:      userID,
		ProductID:   productID,
		Quantity:    quantity,
		TotalAmount: unitPrice * int64(quantity),
		PlayerID:    strings.TrimSpace(playerID),
		Notes:       notes,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func validatePlayerID(playerID string) error {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" || len(playerID) > MaxPlayerIDLen {
		return ErrInvalidPlayerID
	}
	return nil
}

// TransitionTo 按流转表修改状态
func (o *Order) TransitionTo(target Status, now time.Time) error {
	if !o.Status.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	o.Status = target
	o.UpdatedAt = now
	return nil
}

// CanPay 是否可以发起支付（待支付或上次支付失败）
func (o *Order) CanPay() bool {
	return o.Status.CanTransitionTo(StatusPaid)
}

// ApplyPaymentOutcome 支付结果驱动的状态变更：成功→paid，失败→failed
func (o *Order) ApplyPaymentOutcome(success bool, now time.Time) error {
	if success {
		return o.TransitionTo(StatusPaid, now)
	}
	return o.TransitionTo(StatusFailed, now)
}

// CanDelete 已支付或已完成的订单不可删除
func (o *Order) CanDelete() error {
	if o.Status == StatusPaid || o.Status == StatusCompleted {
		return ErrOrderNotDeletable
	}
	return nil
}

// HoldsStock 待支付订单占用着库存，删除或取消时需要回补
func (o *Order) HoldsStock() bool {
	return o.Status == StatusPending
}

// IsOwnedBy 检查订单是否属于指定用户
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID == userID
}

// Patch 人工修改订单的补丁，nil字段表示不修改
type Patch struct {
	Status   *Status
	PlayerID *string
	Notes    *string
}

// PatchResult 记录补丁带来的副作用
type PatchResult struct {
	Changed        bool
	StatusChanged  bool
	ReleasedStock  bool // 取消待支付订单，需要回补库存
	PreviousStatus Status
}

// ApplyPatch 应用人工修改
// 终态订单拒绝任何修改；状态只能人工改为cancelled（从pending）或completed（从paid），
// paid/failed只能由支付结果驱动
func (o *Order) ApplyPatch(p Patch, now time.Time) (PatchResult, error) {
	result := PatchResult{PreviousStatus: o.Status}

	if o.Status.IsTerminal() {
		return result, ErrOrderImmutable
	}

	if p.PlayerID != nil {
		if err := validatePlayerID(*p.PlayerID); err != nil {
			return result, err
		}
	}
	if p.Notes != nil && len(*p.Notes) > MaxNotesLen {
		return result, ErrInvalidNotes
	}

	if p.Status != nil && *p.Status != o.Status {
		target := *p.Status
		if !target.Valid() {
			return result, ErrInvalidStatus
		}
		if target != StatusCancelled && target != StatusCompleted {
			return result, ErrInvalidStatusTransition
		}
		releases := o.HoldsStock() && target == StatusCancelled
		if err := o.TransitionTo(target, now); err != nil {
			return result, err
		}
		result.Changed = true
		result.StatusChanged = true
		result.ReleasedStock = releases
	}

	if p.PlayerID != nil {
		if v := strings.TrimSpace(*p.PlayerID); v != o.PlayerID {
			o.PlayerID = v
			result.Changed = true
		}
	}
	if p.Notes != nil && *p.Notes != o.Notes {
		o.Notes = *p.Notes
		result.Changed = true
	}

	if result.Changed {
		o.UpdatedAt = now
	}
	return result, nil
}
