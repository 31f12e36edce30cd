package collateral

import (
	"errors"
	"time"
)

var ErrBundleNotFound = errors.New("collateral bundle not found")

// Bundle is an opaque, owner-transferable container of underlying assets.
// The ledger never looks inside; it only moves whole-bundle ownership
// between the vault, the borrower and the lender.
type Bundle struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	BundleID  string    `gorm:"column:bundle_id;size:64;not null;uniqueIndex:ux_bundles_bundle_id" json:"bundle_id"`
	Owner     string    `gorm:"column:owner;size:64;not null" json:"owner"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Bundle) TableName() string { return "collateral_bundles" }
