package request

import "github.com/sangkips/restaurant-pos-api/internal/domain/enum"

// UpdateSettingsRequest is the request body for PUT /settings.
type UpdateSettingsRequest struct {
	RestaurantName    string         `json:"restaurant_name" binding:"required,max=255"`
	RestaurantAddress string         `json:"restaurant_address" binding:"max=500"`
	RestaurantPhone   string         `json:"restaurant_phone" binding:"max=50"`
	GSTNumber         string         `json:"gst_number"`
	GSTType           enum.TaxRegime `json:"gst_type"`
	FooterText        string         `json:"footer_text" binding:"max=500"`
	PrinterType       string         `json:"printer_type"`
	PaperWidth        string         `json:"paper_width" binding:"required"`
}
