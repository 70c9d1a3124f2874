//go:build usb

package printer

import (
	"testing"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeviceFromConfigUSB(t *testing.T) {
	dev, err := NewDeviceFromConfig(DeviceConfig{Type: TypeUSB, USB: USBConfig{VendorID: 0x0416, ProductID: 0x5011}})
	require.NoError(t, err)
	require.IsType(t, &usbDevice{}, dev)
	assert.Equal(t, 1, dev.(*usbDevice).cfg.Config)
	assert.Equal(t, 1, dev.(*usbDevice).cfg.Endpoint)
}

func TestUSBErrorClassification(t *testing.T) {
	assert.ErrorIs(t, usbError("open", gousb.ErrorAccess), ErrPermission)
	assert.ErrorIs(t, usbError("open", gousb.ErrorNoDevice), ErrNoDevice)
	assert.ErrorIs(t, usbError("open", gousb.ErrorNotFound), ErrNoDevice)

	err := usbError("bulk write", gousb.ErrorTimeout)
	assert.NotErrorIs(t, err, ErrNoDevice)
	assert.ErrorIs(t, err, gousb.ErrorTimeout)
}
