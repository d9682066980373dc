package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the processing state of a stored transaction
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// Transaction is the durable record of one accepted notification.
// Status and ProcessedAt belong to downstream processing; this module only
// ever writes StatusPending.
type Transaction struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ProviderID     string          `gorm:"type:varchar(64);not null;uniqueIndex:ux_webhook_transactions_provider_id" json:"provider_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency       string          `gorm:"type:varchar(3);not null" json:"currency"`
	CreatedAtTime  int64           `gorm:"not null" json:"created_at_time"`
	EventTimestamp int64           `gorm:"not null;index:ix_webhook_transactions_event_timestamp" json:"event_timestamp"`
	Cause          string          `gorm:"type:text" json:"cause"`
	FullName       string          `gorm:"type:varchar(255)" json:"full_name"`
	AccountName    string          `gorm:"type:varchar(255)" json:"account_name"`
	InvoiceURL     string          `gorm:"type:varchar(512)" json:"invoice_url"`
	Signature      string          `gorm:"type:varchar(255)" json:"signature"`
	Status         Status          `gorm:"type:varchar(10);not null;default:'pending';index:ix_webhook_transactions_status" json:"status"`
	ReceivedAt     time.Time       `gorm:"autoCreateTime;not null" json:"received_at"`
	ProcessedAt    *time.Time      `gorm:"default:null" json:"processed_at,omitempty"`
}

// TableName pins the table name used by GormStore
func (Transaction) TableName() string {
	return "webhook_transactions"
}
