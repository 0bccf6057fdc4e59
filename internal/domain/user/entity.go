package user

import (
	"time"
)

// Role 用户角色
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User 用户实体
// Password为bcrypt哈希值，领域实体不带GORM tag
type User struct {
	ID        uint
	Email     string
	Password  string
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户（工厂方法）
func NewUser(email, hashedPassword, name string, role Role, now time.Time) *User {
	return &User{
		Email:     email,
		Password:  hashedPassword,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Actor 当前请求的调用者（来自JWT）
type Actor struct {
	UserID uint
	Role   Role
}

// IsAdmin 管理员可以访问所有用户的订单和支付
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess 只能访问自己的资源，管理员除外
func (a Actor) CanAccess(ownerID uint) bool {
	return a.IsAdmin() || a.UserID == ownerID
}
