package config

import (
	"log"
	"strconv"
	"time"
	_ "time/tzdata" // INVOICE_TIMEZONE must resolve in slim images

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Printer    PrinterConfig
	Invoice    InvoiceConfig
	Redis      RedisConfig
	Restaurant RestaurantConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

// JWTConfig holds the key used to verify bearer tokens. Tokens are issued
// by the back office, not by this service.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type PrinterConfig struct {
	Type         string // usb, file, network or none
	VendorID     uint16
	ProductID    uint16
	USBConfig    int
	USBInterface int
	USBEndpoint  int
	DevicePath   string
	Address      string
	StepTimeout  time.Duration
}

type InvoiceConfig struct {
	CounterBackend string // postgres, redis or memory
	Timezone       string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RestaurantConfig seeds settings until they are saved through the API.
type RestaurantConfig struct {
	Name       string
	Address    string
	Phone      string
	GSTNumber  string
	GSTType    string
	FooterText string
	PaperWidth string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "restaurant-pos-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "restaurant_pos")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_USB_CONFIG", 1)
	viper.SetDefault("PRINTER_USB_INTERFACE", 0)
	viper.SetDefault("PRINTER_USB_ENDPOINT", 1)
	viper.SetDefault("PRINTER_DEVICE_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("PRINTER_STEP_TIMEOUT", "5s")
	viper.SetDefault("INVOICE_COUNTER_BACKEND", "postgres")
	viper.SetDefault("INVOICE_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_PREFIX", "pos")
	viper.SetDefault("RESTAURANT_NAME", "My Restaurant")
	viper.SetDefault("RESTAURANT_GST_TYPE", "regular")
	viper.SetDefault("RESTAURANT_FOOTER_TEXT", "Thank you! Visit again.")
	viper.SetDefault("PAPER_WIDTH", "80mm")

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Printer: PrinterConfig{
			Type:         viper.GetString("PRINTER_TYPE"),
			VendorID:     usbID("PRINTER_USB_VENDOR_ID"),
			ProductID:    usbID("PRINTER_USB_PRODUCT_ID"),
			USBConfig:    viper.GetInt("PRINTER_USB_CONFIG"),
			USBInterface: viper.GetInt("PRINTER_USB_INTERFACE"),
			USBEndpoint:  viper.GetInt("PRINTER_USB_ENDPOINT"),
			DevicePath:   viper.GetString("PRINTER_DEVICE_PATH"),
			Address:      viper.GetString("PRINTER_ADDRESS"),
			StepTimeout:  viper.GetDuration("PRINTER_STEP_TIMEOUT"),
		},
		Invoice: InvoiceConfig{
			CounterBackend: viper.GetString("INVOICE_COUNTER_BACKEND"),
			Timezone:       viper.GetString("INVOICE_TIMEZONE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			Prefix:   viper.GetString("REDIS_PREFIX"),
		},
		Restaurant: RestaurantConfig{
			Name:       viper.GetString("RESTAURANT_NAME"),
			Address:    viper.GetString("RESTAURANT_ADDRESS"),
			Phone:      viper.GetString("RESTAURANT_PHONE"),
			GSTNumber:  viper.GetString("RESTAURANT_GST_NUMBER"),
			GSTType:    viper.GetString("RESTAURANT_GST_TYPE"),
			FooterText: viper.GetString("RESTAURANT_FOOTER_TEXT"),
			PaperWidth: viper.GetString("PAPER_WIDTH"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// Location resolves the invoice time zone, falling back to UTC.
func (c *InvoiceConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Warning: invalid INVOICE_TIMEZONE %q, using UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}

// usbID reads a USB vendor or product id written in hex (0x0416) or decimal.
func usbID(key string) uint16 {
	raw := viper.GetString(key)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 0, 16)
	if err != nil {
		log.Printf("Warning: invalid %s %q: %v", key, raw, err)
		return 0
	}
	return uint16(id)
}
