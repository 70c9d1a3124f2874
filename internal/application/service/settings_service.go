package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/sangkips/restaurant-pos-api/internal/domain/enum"
	"github.com/sangkips/restaurant-pos-api/internal/domain/repository"
	"github.com/sangkips/restaurant-pos-api/pkg/apperror"
	"go.uber.org/zap"
)

// gstinPattern is the 15 character GSTIN layout: state code, PAN, entity
// number, the letter Z and a check character.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

var printerTypes = map[string]bool{
	entity.PrinterTypeUSB:     true,
	entity.PrinterTypeFile:    true,
	entity.PrinterTypeNetwork: true,
	entity.PrinterTypeNone:    true,
}

// SettingsService handles restaurant settings
type SettingsService struct {
	settingsRepo repository.SettingsRepository
	defaults     entity.Settings
	log          *zap.Logger
}

// NewSettingsService creates a new settings service. defaults are served
// until settings are saved for the first time.
func NewSettingsService(settingsRepo repository.SettingsRepository, defaults entity.Settings, log *zap.Logger) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		defaults:     defaults,
		log:          log,
	}
}

// Load returns the current settings snapshot.
func (s *SettingsService) Load(ctx context.Context) (entity.Settings, error) {
	row, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return entity.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if row == nil {
		s.log.Debug("no stored settings, using defaults")
		return s.defaults, nil
	}
	return snapshot(row)
}

// UpdateSettingsInput represents the input for updating settings
type UpdateSettingsInput struct {
	RestaurantName    string
	RestaurantAddress string
	RestaurantPhone   string
	GSTNumber         string
	GSTType           enum.TaxRegime
	FooterText        string
	PrinterType       string
	PaperWidth        string
}

// Update validates and stores the settings, returning the new snapshot.
func (s *SettingsService) Update(ctx context.Context, input *UpdateSettingsInput) (entity.Settings, error) {
	var errs []apperror.FieldError

	name := strings.TrimSpace(input.RestaurantName)
	if name == "" {
		errs = append(errs, apperror.FieldError{Field: "restaurant_name", Message: "restaurant name is required"})
	}
	gstin := strings.ToUpper(strings.TrimSpace(input.GSTNumber))
	if gstin != "" && !gstinPattern.MatchString(gstin) {
		errs = append(errs, apperror.FieldError{Field: "gst_number", Message: "must be a 15 character GSTIN"})
	}
	if !input.GSTType.Valid() {
		errs = append(errs, apperror.FieldError{Field: "gst_type", Message: "unknown GST type"})
	}
	printerType := strings.ToLower(strings.TrimSpace(input.PrinterType))
	if printerType == "" {
		printerType = entity.PrinterTypeNone
	}
	if !printerTypes[printerType] {
		errs = append(errs, apperror.FieldError{Field: "printer_type", Message: "use usb, file, network or none"})
	}
	dialect, err := enum.ParsePrintDialect(input.PaperWidth)
	if err != nil {
		errs = append(errs, apperror.FieldError{Field: "paper_width", Message: err.Error()})
	}
	if len(errs) > 0 {
		return entity.Settings{}, apperror.NewValidationError(errs)
	}

	row := &entity.RestaurantSettings{
		RestaurantName:    name,
		RestaurantAddress: strings.TrimSpace(input.RestaurantAddress),
		RestaurantPhone:   strings.TrimSpace(input.RestaurantPhone),
		GSTType:           input.GSTType,
		FooterText:        strings.TrimSpace(input.FooterText),
		PrinterType:       printerType,
		PaperWidth:        dialect.String(),
	}
	if gstin != "" {
		row.GSTNumber = &gstin
	}
	if err := s.settingsRepo.Save(ctx, row); err != nil {
		return entity.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	s.log.Info("settings updated",
		zap.String("gst_type", row.GSTType.String()),
		zap.String("paper_width", row.PaperWidth),
		zap.String("printer_type", row.PrinterType),
	)
	return snapshot(row)
}

func snapshot(row *entity.RestaurantSettings) (entity.Settings, error) {
	dialect, err := enum.ParsePrintDialect(row.PaperWidth)
	if err != nil {
		return entity.Settings{}, fmt.Errorf("stored settings: %w", err)
	}
	if !row.GSTType.Valid() {
		return entity.Settings{}, fmt.Errorf("stored settings: invalid GST type %d", int(row.GSTType))
	}
	out := entity.Settings{
		RestaurantName:    row.RestaurantName,
		RestaurantAddress: row.RestaurantAddress,
		RestaurantPhone:   row.RestaurantPhone,
		GSTType:           row.GSTType,
		FooterText:        row.FooterText,
		PrinterType:       row.PrinterType,
		PaperWidth:        dialect,
	}
	if row.GSTNumber != nil {
		out.GSTNumber = *row.GSTNumber
	}
	return out, nil
}
