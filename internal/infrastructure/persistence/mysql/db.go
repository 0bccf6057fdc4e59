package mysql

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/topupstore/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 1. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 2. debug模式打印SQL
// 3. auto_migrate=true时自动迁移表结构
// 返回的cleanup关闭底层连接池
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	log.Info("数据库连接成功", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	cleanup := func() {
		if err := sqlDB.Close(); err != nil {
			log.Warn("关闭数据库连接失败", zap.Error(err))
		}
	}
	return db, cleanup, nil
}

// AutoMigrate 自动迁移表结构
// AutoMigrate只会创建表、添加字段和索引，生产环境应使用版本化的迁移脚本
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&ProductModel{},
		&OrderModel{},
		&PaymentModel{},
	)
}

// UserModel GORM用户模型
// domain/user/entity.go是领域实体，不依赖GORM；Repository负责两者之间的转换
type UserModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Name      string         `gorm:"size:50;not null;comment:姓名"`
	Role      string         `gorm:"size:20;not null;default:customer;comment:角色"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// ProductModel GORM商品模型
// 价格以"分"存储；is_active不设default，否则false会被GORM当作零值忽略
type ProductModel struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:255;not null;comment:商品名称"`
	Category    string    `gorm:"index:idx_category_active;size:32;not null;comment:分类"`
	Description string    `gorm:"type:text;comment:描述"`
	Price       int64     `gorm:"not null;comment:价格(分)"`
	Stock       int       `gorm:"not null;comment:库存数量"`
	ImageURL    string    `gorm:"size:500;comment:图片URL"`
	IsActive    bool      `gorm:"index:idx_category_active;not null;comment:是否上架"`
	CreatedAt   time.Time `gorm:"comment:创建时间"`
	UpdatedAt   time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (ProductModel) TableName() string {
	return "products"
}

// OrderModel GORM订单模型
// total_amount在创建时写入，之后不再更新
type OrderModel struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"index;not null;comment:买家用户ID"`
	ProductID   uint      `gorm:"index;not null;comment:商品ID"`
	Quantity    int       `gorm:"not null;comment:购买数量"`
	TotalAmount int64     `gorm:"not null;comment:订单总金额(分)"`
	PlayerID    string    `gorm:"size:255;not null;comment:玩家ID"`
	Notes       string    `gorm:"size:500;comment:备注"`
	Status      string    `gorm:"index;size:20;not null;comment:订单状态"`
	CreatedAt   time.Time `gorm:"index;comment:创建时间"`
	UpdatedAt   time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

// PaymentModel GORM支付模型
// order_id唯一：一个订单同一时刻只有一条支付记录
// transaction_id唯一：回调按交易号关联
type PaymentModel struct {
	ID              uint           `gorm:"primaryKey"`
	OrderID         uint           `gorm:"uniqueIndex:uk_payments_order_id;not null;comment:订单ID"`
	Method          string         `gorm:"size:20;not null;comment:支付方式"`
	Amount          int64          `gorm:"not null;comment:支付金额(分)"`
	Status          string         `gorm:"index:idx_status_created;size:20;not null;comment:支付状态"`
	TransactionID   string         `gorm:"uniqueIndex:uk_payments_transaction_id;size:64;not null;comment:交易号"`
	GatewayResponse datatypes.JSON `gorm:"comment:网关响应"`
	ProcessedAt     *time.Time     `gorm:"comment:结算时间"`
	CreatedAt       time.Time      `gorm:"index:idx_status_created;comment:创建时间"`
	UpdatedAt       time.Time      `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (PaymentModel) TableName() string {
	return "payments"
}
