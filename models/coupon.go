package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponType represents the type of discount a registry coupon provides.
type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFlat       CouponType = "flat"
)

// Coupon is a registry coupon stored in Postgres. Only used when the registry
// policy is enabled; the default policy accepts any non-empty code.
type Coupon struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code          string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Type          CouponType      `gorm:"type:varchar(20);not null" json:"type"`
	Value         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"value"`
	MaxDiscount   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"max_discount"` // 0 = uncapped
	MinOrderValue decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"min_order_value"`
	UsageLimit    int             `gorm:"not null;default:0" json:"usage_limit"` // 0 = unlimited
	UsedCount     int             `gorm:"not null;default:0" json:"used_count"`
	ExpiresAt     time.Time       `gorm:"not null" json:"expires_at"`
	Active        bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// ApplyCouponRequest is the payload for POST /cart/coupon.
type ApplyCouponRequest struct {
	Code string `json:"code"`
}
