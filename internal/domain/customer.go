package domain

import (
	"strings"
	"time"

	"github.com/nippysky/marobi/pkg/common"
	"gorm.io/gorm"
)

// Customer is a registered buyer.
type Customer struct {
	ID         int64     `gorm:"primaryKey" json:"id,string" form:"id"`
	FirstName  string    `gorm:"size:100" json:"first_name" form:"first_name"`
	LastName   string    `gorm:"size:100" json:"last_name" form:"last_name"`
	Email      string    `gorm:"size:200;uniqueIndex" json:"email" form:"email"`
	Phone      string    `gorm:"size:50" json:"phone" form:"phone"`
	Address    string    `json:"address" form:"address"`
	City       string    `gorm:"size:100" json:"city" form:"city"`
	State      string    `gorm:"size:100" json:"state" form:"state"`
	Country    string    `gorm:"size:100" json:"country" form:"country"`
	PostalCode string    `gorm:"size:20" json:"postal_code" form:"postal_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "customer"
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.ID == 0 {
		c.ID = common.UUIDint64()
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return nil
}

func (c *Customer) Contact() ContactInfo {
	return ContactInfo{
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		City:       c.City,
		State:      c.State,
		Country:    c.Country,
		PostalCode: c.PostalCode,
	}
}

// ContactUpdates maps the non-empty contact fields to columns. Email is the
// customer's identity and is never changed this way.
func ContactUpdates(ci ContactInfo) map[string]interface{} {
	updates := map[string]interface{}{}
	set := func(col, v string) {
		if v = strings.TrimSpace(v); v != "" {
			updates[col] = v
		}
	}
	set("first_name", ci.FirstName)
	set("last_name", ci.LastName)
	set("phone", ci.Phone)
	set("address", ci.Address)
	set("city", ci.City)
	set("state", ci.State)
	set("country", ci.Country)
	set("postal_code", ci.PostalCode)
	return updates
}
