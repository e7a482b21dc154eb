package domain

import (
	"time"

	"github.com/nippysky/marobi/pkg/common"
	"gorm.io/gorm"
)

const (
	ReceiptPending = "pending"
	ReceiptSent    = "sent"
	ReceiptFailed  = "failed"
)

// ReceiptDelivery tracks the order receipt email for one order.
type ReceiptDelivery struct {
	ID         int64      `gorm:"primaryKey" json:"id,string"`
	OrderID    string     `gorm:"size:32;index" json:"order_id"`
	Recipient  string     `gorm:"size:200" json:"recipient"`
	MessageID  string     `gorm:"size:64" json:"message_id"`
	Status     string     `gorm:"size:16;index" json:"status"`
	ErrorMsg   string     `json:"error_msg"`
	RetryCount int        `json:"retry_count"`
	SentAt     *time.Time `json:"sent_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (ReceiptDelivery) TableName() string {
	return "receipt_delivery"
}

func (r *ReceiptDelivery) BeforeCreate(*gorm.DB) error {
	if r.ID == 0 {
		r.ID = common.UUIDint64()
	}
	return nil
}
