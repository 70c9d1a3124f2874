package entity

import (
	"time"

	"github.com/sangkips/restaurant-pos-api/internal/domain/enum"
)

// Printer types understood by the device factory.
const (
	PrinterTypeUSB     = "usb"
	PrinterTypeFile    = "file"
	PrinterTypeNetwork = "network"
	PrinterTypeNone    = "none"
)

// RestaurantSettings is the stored configuration row. There is only ever one.
type RestaurantSettings struct {
	ID                uint           `gorm:"primaryKey" json:"-"`
	RestaurantName    string         `gorm:"size:255;not null" json:"restaurant_name"`
	RestaurantAddress string         `gorm:"size:500" json:"restaurant_address"`
	RestaurantPhone   string         `gorm:"size:50" json:"restaurant_phone"`
	GSTNumber         *string        `gorm:"size:15" json:"gst_number,omitempty"`
	GSTType           enum.TaxRegime `gorm:"default:0" json:"gst_type"`
	FooterText        string         `gorm:"size:500" json:"footer_text"`
	PrinterType       string         `gorm:"size:20;default:'none'" json:"printer_type"`
	PaperWidth        string         `gorm:"size:10;default:'58mm'" json:"paper_width"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TableName returns the table name for the RestaurantSettings model
func (RestaurantSettings) TableName() string {
	return "restaurant_settings"
}

// Settings is the read-only snapshot handed to print jobs.
type Settings struct {
	RestaurantName    string            `json:"restaurant_name"`
	RestaurantAddress string            `json:"restaurant_address"`
	RestaurantPhone   string            `json:"restaurant_phone"`
	GSTNumber         string            `json:"gst_number,omitempty"`
	GSTType           enum.TaxRegime    `json:"gst_type"`
	FooterText        string            `json:"footer_text"`
	PrinterType       string            `json:"printer_type"`
	PaperWidth        enum.PrintDialect `json:"paper_width"`
}
