package model

import "time"

// Cafe24Token is the persisted OAuth grant for a mall
type Cafe24Token struct {
	MallID       string    `gorm:"type:varchar(100);primaryKey" json:"mall_id"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
