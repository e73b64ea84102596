package truerng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.bug.st/serial/enumerator"
)

func TestIsTrueRNG(t *testing.T) {
	cases := []struct {
		name string
		port *enumerator.PortDetails
		want bool
	}{
		{"nil", nil, false},
		{"usb product", &enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, Product: "TrueRNG V3"}, true},
		{"usb serial", &enumerator.PortDetails{Name: "COM4", IsUSB: true, SerialNumber: "TrueRNGpro"}, true},
		{"vid pid", &enumerator.PortDetails{Name: "/dev/ttyACM1", IsUSB: true, VID: "16d0", PID: "0aa0"}, true},
		{"other vendor", &enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001", Product: "FT232R"}, false},
		{"non usb prefix ignored", &enumerator.PortDetails{Name: "COM1", Product: "TrueRNG"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isTrueRNG(tc.port))
		})
	}
}

func TestSession_CloseNil(t *testing.T) {
	var s *Session
	assert.NoError(t, s.Close())
}
