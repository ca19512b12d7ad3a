package models

import "time"

// Actor is a backoffice identity (operator, tenant admin or agent). Actors are
// managed elsewhere; this service only reads them.
type Actor struct {
	ID        string `gorm:"primaryKey;type:varchar(64)"`
	Username  string `gorm:"type:varchar(128);not null"`
	Role      Role   `gorm:"type:varchar(32);not null"`
	TenantID  string `gorm:"type:varchar(64);not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Actor) TableName() string { return "actors" }
