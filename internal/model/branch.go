package model

import "time"

// Branch 分堂
type Branch struct {
	ID             uint64 `gorm:"primaryKey"`
	Name           string `gorm:"type:varchar(255);not null"`
	IsHeadquarters bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Branch) TableName() string {
	return "branches"
}

// MissionalCommunity 分堂下的小组 (MC)
type MissionalCommunity struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(255);not null"`
	BranchID  uint64 `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MissionalCommunity) TableName() string {
	return "missional_communities"
}
