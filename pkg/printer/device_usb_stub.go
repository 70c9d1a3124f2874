//go:build !usb

package printer

import (
	"context"
	"fmt"
)

// usbUnavailable stands in for the libusb device in builds without the usb
// tag. Every job stops at Open as NoDeviceAvailable and falls back.
type usbUnavailable struct {
	cfg USBConfig
}

// NewUSBDevice returns a device that always reports the printer as missing.
// Build with -tags usb for raw USB printing.
func NewUSBDevice(cfg USBConfig) BulkDevice {
	return &usbUnavailable{cfg: cfg.withDefaults()}
}

func (d *usbUnavailable) Open(ctx context.Context) error {
	return fmt.Errorf("%w: usb %04x:%04x: built without usb support", ErrNoDevice, d.cfg.VendorID, d.cfg.ProductID)
}

func (d *usbUnavailable) Configure(ctx context.Context) error { return ErrNoDevice }

func (d *usbUnavailable) Claim(ctx context.Context) error { return ErrNoDevice }

func (d *usbUnavailable) TransferOut(ctx context.Context, data []byte) (int, error) {
	return 0, ErrNoDevice
}

func (d *usbUnavailable) Close() error { return nil }

func (d *usbUnavailable) IsConnected(ctx context.Context) bool { return false }
