package types

import (
	"time"

	"gorm.io/datatypes"
)

// Durable job statuses. The in-memory mirror additionally uses
// JobStatusPending before the row is picked up (see jobs.Registry).
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

const (
	JobTypeTextToImage  = "text-to-image"
	JobTypeTextToVideo  = "text-to-video"
	JobTypeImageToVideo = "image-to-video"
)

type Job struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID        string         `gorm:"uniqueIndex;not null;column:job_id" json:"job_id"`
	UserID       uint           `gorm:"index;not null;column:user_id" json:"user_id"`
	User         *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	JobType      string         `gorm:"not null;column:job_type" json:"job_type"`
	Prompt       string         `gorm:"not null;column:prompt" json:"prompt"`
	Model        string         `gorm:"not null;column:model" json:"model"`
	Options      datatypes.JSON `gorm:"column:options;type:jsonb" json:"options,omitempty"`
	ImagePath    string         `gorm:"column:image_path" json:"image_path,omitempty"`
	MimeType     string         `gorm:"column:mime_type" json:"mime_type,omitempty"`
	Status       string         `gorm:"not null;default:'queued';index:idx_job_status_updated,priority:1;column:status" json:"status"`
	AssetID      *uint          `gorm:"column:asset_id" json:"asset_id,omitempty"`
	ResultURL    string         `gorm:"column:result_url" json:"result_url,omitempty"`
	ErrorMessage string         `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;index:idx_job_status_updated,priority:2" json:"updated_at"`
}

func (Job) TableName() string {
	return "job"
}

func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
