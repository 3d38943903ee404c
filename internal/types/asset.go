package types

import (
	"time"
)

const (
	AssetTypeImage = "image"
	AssetTypeVideo = "video"
)

// Asset is the persisted record of a produced artifact. Prompt is stored
// normalized (trimmed, lowercased); (prompt, model, asset_type) is the
// cache fingerprint. Duplicates are allowed; lookups take the newest.
type Asset struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null;column:user_id" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	JobID     string    `gorm:"index;not null;column:job_id" json:"job_id"`
	FilePath  string    `gorm:"not null;column:file_path" json:"file_path"`
	Prompt    string    `gorm:"not null;index:idx_asset_fingerprint,priority:1;column:prompt" json:"prompt"`
	Model     string    `gorm:"not null;index:idx_asset_fingerprint,priority:2;column:model" json:"model"`
	AssetType string    `gorm:"not null;index:idx_asset_fingerprint,priority:3;column:asset_type" json:"asset_type"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Asset) TableName() string {
	return "asset"
}
