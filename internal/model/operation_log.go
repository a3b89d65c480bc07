package model

import (
	"time"

	"gorm.io/datatypes"
)

// OperationLog is one audit-trail row for a mutating admin action.
// Writes are best-effort; nothing reads these rows on the request path.
type OperationLog struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	OperatorID   uint           `json:"operator_id" gorm:"index"`
	OperatorName string         `json:"operator_name" gorm:"type:varchar(100)"`
	Action       string         `json:"action" gorm:"type:varchar(50);index"`
	TargetType   string         `json:"target_type,omitempty" gorm:"type:varchar(50)"`
	TargetID     string         `json:"target_id,omitempty" gorm:"type:varchar(50)"`
	IP           string         `json:"ip,omitempty" gorm:"type:varchar(64)"`
	Result       string         `json:"result" gorm:"type:varchar(20);default:'success'"`
	Details      datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"created_at"`
}
