package product

import (
	"strings"
	"time"
)

// Category 商品分类（游戏币 / 礼品卡）
type Category string

const (
	CategoryPUBG       Category = "PUBG"
	CategoryFreeFire   Category = "FreeFire"
	CategoryGooglePlay Category = "GooglePlay"
	CategoryITunes     Category = "iTunes"
	CategorySteam      Category = "Steam"
)

// Categories 全部分类
func Categories() []Category {
	return []Category{CategoryPUBG, CategoryFreeFire, CategoryGooglePlay, CategoryITunes, CategorySteam}
}

// Valid 是否为已知分类
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Product 商品实体
// Price以"分"存储，避免浮点误差
type Product struct {
	ID          uint
	Name        string
	Category    Category
	Description string
	Price       int64
	Stock       int
	ImageURL    string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct 创建商品（工厂方法，校验基本字段）
func NewProduct(name string, category Category, description string, price int64, stock int, imageURL string, active bool, now time.Time) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return nil, ErrInvalidName
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	return &Product{
		Name:        name,
		Category:    category,
		Description: description,
		Price:       price,
		Stock:       stock,
		ImageURL:    imageURL,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsAvailable 上架且有库存
func (p *Product) IsAvailable() bool {
	return p.IsActive && p.Stock > 0
}

// CheckSupply 下单前校验：先判断是否上架，再判断库存
func (p *Product) CheckSupply(quantity int) error {
	if !p.IsActive {
		return ErrProductUnavailable
	}
	if p.Stock < quantity {
		return ErrInsufficientStock
	}
	return nil
}

// PriceFor 计算quantity件商品的总价（分）
func (p *Product) PriceFor(quantity int) int64 {
	return p.Price * int64(quantity)
}
