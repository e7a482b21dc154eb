package domain

import (
	"time"

	"github.com/nippysky/marobi/pkg/common"
	"gorm.io/gorm"
)

type SysConfig struct {
	ID        int64     `json:"id,string"   form:"id"`
	Sort      int       `json:"sort"  form:"sort"`
	Type      string    `gorm:"index" json:"type" form:"type"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Value     string    `json:"value" form:"value"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (SysConfig) TableName() string {
	return "sys_config"
}

func (c *SysConfig) BeforeCreate(*gorm.DB) error {
	if c.ID == 0 {
		c.ID = common.UUIDint64()
	}
	return nil
}

const (
	StaffSuper   = "super"
	StaffManager = "manager"
	StaffClerk   = "clerk"
)

// Staff is a back-office operator allowed to log offline sales and manage the catalog.
type Staff struct {
	ID        int64     `json:"id,string" form:"id"`
	Realname  string    `json:"realname" form:"realname"`
	Mobile    string    `json:"mobile" form:"mobile"`
	Email     string    `json:"email" form:"email"`
	Username  string    `gorm:"size:64;uniqueIndex" json:"username" form:"username"`
	Password  string    `json:"-" form:"password"`
	Level     string    `gorm:"size:16" json:"level" form:"level"`
	Status    string    `gorm:"size:16" json:"status" form:"status"`
	Remark    string    `json:"remark" form:"remark"`
	LastLogin time.Time `json:"last_login" form:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Staff) TableName() string {
	return "sys_staff"
}

func (s *Staff) BeforeCreate(*gorm.DB) error {
	if s.ID == 0 {
		s.ID = common.UUIDint64()
	}
	return nil
}

type AuditLog struct {
	ID        int64     `json:"id,string"`
	OprName   string    `gorm:"size:64" json:"opr_name"`
	OprIp     string    `gorm:"size:64" json:"opr_ip"`
	OptAction string    `gorm:"size:64" json:"opt_action"`
	OptDesc   string    `json:"opt_desc"`
	OptTime   time.Time `gorm:"index" json:"opt_time"`
}

// TableName Specify table name
func (AuditLog) TableName() string {
	return "sys_audit_log"
}

func (l *AuditLog) BeforeCreate(*gorm.DB) error {
	if l.ID == 0 {
		l.ID = common.UUIDint64()
	}
	return nil
}
