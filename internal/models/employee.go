package models

import "time"

// Employee is a member of the manager hierarchy. A root manager references itself.
type Employee struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID    int64     `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	IsActive  bool      `gorm:"column:user_state;not null" json:"user_state"`
	ManagerID int64     `gorm:"column:user_manager;not null;index" json:"user_manager"`
	Email     string    `gorm:"column:user_mail;size:100;not null;check:chk_employee_user_mail,user_mail <> ''" json:"user_mail"`
	CreatedAt time.Time `json:"created_at"`

	Manager *Employee `gorm:"foreignKey:ManagerID;references:UserID" json:"-"`
}

// TableName overrides the table name for Employee
func (Employee) TableName() string {
	return "employee"
}
