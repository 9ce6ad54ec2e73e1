package model

import "time"

type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleBranchAdmin Role = "branch_admin"
	RoleMCLeader    Role = "mc_leader"
	RoleMember      Role = "member"
)

// User 教会成员目录（只读，由主系统维护）
type User struct {
	ID        uint64  `gorm:"primaryKey"`
	Name      string  `gorm:"type:varchar(255);not null"`
	Email     string  `gorm:"type:varchar(255)"`
	Role      Role    `gorm:"type:varchar(32);not null;default:member"`
	BranchID  *uint64 `gorm:"index"`
	MCID      *uint64 `gorm:"column:mc_id;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}
