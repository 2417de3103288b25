package model

import (
	"time"

	"gorm.io/datatypes"
)

// Interaction is one answered question, kept in the embedded memory store.
type Interaction struct {
	Id            uint           `gorm:"primaryKey;autoIncrement"`
	UserId        string         `gorm:"type:text;not null;index:idx_user_session,priority:1"`
	SessionId     string         `gorm:"type:text;not null;index:idx_user_session,priority:2"`
	Question      string         `gorm:"type:text;not null"`
	SQLQuery      string         `gorm:"column:sql_query;type:text"`
	Result        datatypes.JSON `gorm:"type:text"`
	Success       bool           `gorm:"not null;default:false"`
	ExecutionTime float64        `gorm:"not null;default:0"`
	Metadata      datatypes.JSON `gorm:"type:text"`
	Timestamp     time.Time      `gorm:"autoCreateTime;index"`
}

func (Interaction) TableName() string {
	return "conversation_history"
}
