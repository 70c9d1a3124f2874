package entity

import "time"

// InvoiceCounter holds the last issued invoice sequence for one calendar day.
type InvoiceCounter struct {
	DateKey   string    `gorm:"size:8;primaryKey" json:"date_key"`
	LastSeq   int64     `gorm:"not null;default:0" json:"last_seq"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the InvoiceCounter model
func (InvoiceCounter) TableName() string {
	return "invoice_counters"
}
