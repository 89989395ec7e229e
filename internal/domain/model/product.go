package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品カテゴリ（固定リスト）
var ProductCategories = []string{
	"vegetables", "fruits", "dairy", "grains", "meat", "poultry", "other",
}

// 販売単位（固定リスト）
var ProductUnits = []string{
	"kg", "lb", "dozen", "piece", "bunch", "liter", "gallon",
}

func IsValidCategory(c string) bool {
	for _, v := range ProductCategories {
		if v == c {
			return true
		}
	}
	return false
}

func IsValidUnit(u string) bool {
	for _, v := range ProductUnits {
		if v == u {
			return true
		}
	}
	return false
}

// 農家1人が所有する出品。
// Stockは注文エンジンの条件付きUPDATEと在庫設定だけが書く。
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     int64           `gorm:"not null;index" json:"owner_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"type:varchar(50);not null;index" json:"category"`
	Unit        string          `gorm:"type:varchar(20);not null" json:"unit"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	Stock       int64           `gorm:"not null" json:"stock"`
	IsAvailable bool            `gorm:"not null;default:false" json:"is_available"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
