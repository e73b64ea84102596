// Package bbusb talks to a BitBabbler entropy source over libusb. The device
// is an FTDI chip driven in MPSSE mode; random bytes are clocked in with a
// single read command per batch.
package bbusb

import (
	"fmt"

	"github.com/google/gousb"
)

// FTDI vendor/product for BitBabbler
const (
	ftdiVendorID = 0x0403
	bbProductID  = 0x7840
)

// DefaultBitrate is the MPSSE bit clock used when none is given.
const DefaultBitrate = 2_500_000

// DeviceInfo describes a detected BitBabbler.
type DeviceInfo struct {
	Bus          int
	Address      int
	FriendlyName string
	HardwareID   string
}

func (d DeviceInfo) String() string {
	if d.FriendlyName != "" {
		return fmt.Sprintf("%s (bus %d, addr %d)", d.FriendlyName, d.Bus, d.Address)
	}
	return fmt.Sprintf("%s (bus %d, addr %d)", d.HardwareID, d.Bus, d.Address)
}

func isBitBabbler(desc *gousb.DeviceDesc) bool {
	return desc.Vendor == gousb.ID(ftdiVendorID) && desc.Product == gousb.ID(bbProductID)
}

// Enumerate lists connected BitBabbler devices.
func Enumerate() ([]DeviceInfo, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(isBitBabbler)
	defer func() {
		for _, d := range devs {
			_ = d.Close()
		}
	}()
	if err != nil && len(devs) == 0 {
		return nil, fmt.Errorf("enumerating usb: %w", err)
	}
	out := make([]DeviceInfo, 0, len(devs))
	for _, d := range devs {
		info := DeviceInfo{
			Bus:        d.Desc.Bus,
			Address:    d.Desc.Address,
			HardwareID: fmt.Sprintf("USB\\VID_%04X&PID_%04X", ftdiVendorID, bbProductID),
		}
		if name, perr := d.Product(); perr == nil {
			info.FriendlyName = name
		}
		out = append(out, info)
	}
	return out, nil
}

// Detect returns whether a BitBabbler is connected.
func Detect() (bool, error) {
	devs, err := Enumerate()
	if err != nil {
		return false, err
	}
	return len(devs) > 0, nil
}
