package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// Device types accepted by NewDeviceFromConfig.
const (
	TypeUSB     = "usb"
	TypeFile    = "file"
	TypeNetwork = "network"
	TypeNone    = "none"
)

// DeviceConfig selects and addresses a printer device.
type DeviceConfig struct {
	Type       string
	USB        USBConfig
	DevicePath string // e.g. /dev/usb/lp0
	Address    string // e.g. 192.168.1.100:9100
}

// USBConfig addresses a printer on the USB bus.
type USBConfig struct {
	VendorID   uint16
	ProductID  uint16
	Config     int // configuration number, usually 1
	Interface  int // printer class interface, usually 0
	AltSetting int
	Endpoint   int // bulk OUT endpoint number, usually 1
}

func (c USBConfig) withDefaults() USBConfig {
	if c.Config == 0 {
		c.Config = 1
	}
	if c.Endpoint == 0 {
		c.Endpoint = 1
	}
	return c
}

// NewDeviceFromConfig creates the device for cfg.Type. Type "none" (or
// empty) returns a nil device: no transport is registered and every receipt
// goes to the fallback renderer.
func NewDeviceFromConfig(cfg DeviceConfig) (BulkDevice, error) {
	switch cfg.Type {
	case TypeUSB:
		if cfg.USB.VendorID == 0 || cfg.USB.ProductID == 0 {
			return nil, fmt.Errorf("printer: vendor and product id are required for usb printer type")
		}
		return NewUSBDevice(cfg.USB), nil
	case TypeFile:
		if cfg.DevicePath == "" {
			return nil, fmt.Errorf("printer: device path is required for file printer type")
		}
		return NewFileDevice(cfg.DevicePath), nil
	case TypeNetwork:
		if cfg.Address == "" {
			return nil, fmt.Errorf("printer: address is required for network printer type")
		}
		return NewNetworkDevice(cfg.Address), nil
	case TypeNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("printer: unknown printer type %q (use usb, file, network, or none)", cfg.Type)
	}
}

// --- File device (kernel printer class driver, e.g. /dev/usb/lp0) ---

type fileDevice struct {
	path string
	f    *os.File
}

// NewFileDevice creates a device that writes to a printer device file.
// The kernel driver owns configuration and the interface claim, so those
// steps only check that the handle is open.
func NewFileDevice(path string) BulkDevice {
	return &fileDevice{path: path}
}

func (d *fileDevice) Open(ctx context.Context) error {
	f, err := os.OpenFile(d.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", d.path, err)
	}
	d.f = f
	return nil
}

func (d *fileDevice) Configure(ctx context.Context) error {
	if d.f == nil {
		return fmt.Errorf("%s is not open", d.path)
	}
	return nil
}

func (d *fileDevice) Claim(ctx context.Context) error {
	return d.Configure(ctx)
}

func (d *fileDevice) TransferOut(ctx context.Context, data []byte) (int, error) {
	n, err := d.f.Write(data)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", d.path, err)
	}
	return n, nil
}

func (d *fileDevice) Close() error {
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

func (d *fileDevice) IsConnected(ctx context.Context) bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// --- Network device (raw TCP, e.g. 192.168.1.100:9100) ---

type networkDevice struct {
	address string
	conn    net.Conn
}

// NewNetworkDevice creates a device that connects via TCP.
// Address should include port, e.g. "192.168.1.100:9100".
func NewNetworkDevice(address string) BulkDevice {
	return &networkDevice{address: address}
}

func (d *networkDevice) Open(ctx context.Context) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", d.address)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.As(err, &dnsErr) {
			return fmt.Errorf("%w: %s: %v", ErrNoDevice, d.address, err)
		}
		return fmt.Errorf("connect %s: %w", d.address, err)
	}
	d.conn = conn
	return nil
}

func (d *networkDevice) Configure(ctx context.Context) error {
	if d.conn == nil {
		return fmt.Errorf("%s is not connected", d.address)
	}
	if tcp, ok := d.conn.(*net.TCPConn); ok {
		return tcp.SetNoDelay(true)
	}
	return nil
}

// Claim is a no-op: a raw port 9100 socket is exclusive once accepted.
func (d *networkDevice) Claim(ctx context.Context) error {
	return nil
}

func (d *networkDevice) TransferOut(ctx context.Context, data []byte) (int, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = d.conn.SetWriteDeadline(deadline)
	} else {
		_ = d.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	}
	n, err := d.conn.Write(data)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", d.address, err)
	}
	return n, nil
}

func (d *networkDevice) Close() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

func (d *networkDevice) IsConnected(ctx context.Context) bool {
	dialer := net.Dialer{Timeout: 2 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", d.address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
