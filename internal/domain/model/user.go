package model

import "time"

type Role string

const (
	//出品者（農家）
	RoleFarmer Role = "FARMER"
	//購入者
	RoleBuyer Role = "BUYER"
)

// 登録時に選んだroleはアカウントの寿命の間変更できない
func IsValidRole(r Role) bool {
	return r == RoleFarmer || r == RoleBuyer
}

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"type:varchar(100);not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	Role         Role   `gorm:"type:varchar(20);not null"`
	TokenVersion int    `gorm:"not null;default:0"`
	IsActive     bool   `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
