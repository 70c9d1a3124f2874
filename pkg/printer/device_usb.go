//go:build usb

package printer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gousb"
)

// usbDevice talks to the printer through libusb, bypassing any kernel
// printer driver (which is detached for the duration of the job).
type usbDevice struct {
	cfg USBConfig

	ctx    *gousb.Context
	dev    *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	ep     *gousb.OutEndpoint
}

// NewUSBDevice creates a raw USB bulk device. Only built with -tags usb,
// which needs cgo and libusb-1.0.
func NewUSBDevice(cfg USBConfig) BulkDevice {
	return &usbDevice{cfg: cfg.withDefaults()}
}

func (d *usbDevice) Open(ctx context.Context) error {
	d.ctx = gousb.NewContext()
	dev, err := d.ctx.OpenDeviceWithVIDPID(gousb.ID(d.cfg.VendorID), gousb.ID(d.cfg.ProductID))
	if err != nil {
		_ = d.Close()
		return usbError("open", err)
	}
	if dev == nil {
		_ = d.Close()
		return fmt.Errorf("%w: %04x:%04x", ErrNoDevice, d.cfg.VendorID, d.cfg.ProductID)
	}
	d.dev = dev
	if err := dev.SetAutoDetach(true); err != nil {
		_ = d.Close()
		return usbError("auto detach", err)
	}
	return nil
}

func (d *usbDevice) Configure(ctx context.Context) error {
	cfg, err := d.dev.Config(d.cfg.Config)
	if err != nil {
		return usbError(fmt.Sprintf("config %d", d.cfg.Config), err)
	}
	d.config = cfg
	return nil
}

func (d *usbDevice) Claim(ctx context.Context) error {
	intf, err := d.config.Interface(d.cfg.Interface, d.cfg.AltSetting)
	if err != nil {
		return usbError(fmt.Sprintf("interface %d/%d", d.cfg.Interface, d.cfg.AltSetting), err)
	}
	d.intf = intf
	ep, err := intf.OutEndpoint(d.cfg.Endpoint)
	if err != nil {
		return usbError(fmt.Sprintf("endpoint %d", d.cfg.Endpoint), err)
	}
	d.ep = ep
	return nil
}

func (d *usbDevice) TransferOut(ctx context.Context, data []byte) (int, error) {
	n, err := d.ep.WriteContext(ctx, data)
	if err != nil {
		return n, usbError("bulk write", err)
	}
	return n, nil
}

// Close releases the interface, configuration, device and libusb context,
// in that order. It is safe after any failed step, and a failed Open has
// already released whatever it acquired.
func (d *usbDevice) Close() error {
	var errs []error
	if d.intf != nil {
		d.intf.Close()
		d.intf, d.ep = nil, nil
	}
	if d.config != nil {
		errs = append(errs, d.config.Close())
		d.config = nil
	}
	if d.dev != nil {
		errs = append(errs, d.dev.Close())
		d.dev = nil
	}
	if d.ctx != nil {
		errs = append(errs, d.ctx.Close())
		d.ctx = nil
	}
	return errors.Join(errs...)
}

func (d *usbDevice) IsConnected(ctx context.Context) bool {
	usb := gousb.NewContext()
	defer usb.Close()
	dev, err := usb.OpenDeviceWithVIDPID(gousb.ID(d.cfg.VendorID), gousb.ID(d.cfg.ProductID))
	if err != nil || dev == nil {
		return false
	}
	dev.Close()
	return true
}

// usbError maps libusb status codes onto the transport sentinels.
func usbError(op string, err error) error {
	var code gousb.Error
	if errors.As(err, &code) {
		switch code {
		case gousb.ErrorAccess:
			return fmt.Errorf("%w: usb %s: %v", ErrPermission, op, err)
		case gousb.ErrorNoDevice, gousb.ErrorNotFound:
			return fmt.Errorf("%w: usb %s: %v", ErrNoDevice, op, err)
		}
	}
	return fmt.Errorf("usb %s: %w", op, err)
}
