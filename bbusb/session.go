package bbusb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// mpsse commands
const (
	mpsseNoClkDiv5     = 0x8A
	mpsseNoAdaptiveClk = 0x97
	mpsseNo3PhaseClk   = 0x8D
	mpsseSetDataLow    = 0x80
	mpsseSetDataHigh   = 0x82
	mpsseSetClkDivisor = 0x86
	mpsseNoLoopback    = 0x85
	mpsseSendImmediate = 0x87

	// read bytes in, MSB first, sample on +ve edge
	mpsseDataByteInPosMSB = 0x20
)

// ftdi SIO vendor requests
const (
	ftdiReqReset        = 0x00
	ftdiReqSetFlowCtrl  = 0x02
	ftdiReqSetEventChar = 0x06
	ftdiReqSetErrorChar = 0x07
	ftdiReqSetLatency   = 0x09
	ftdiReqSetBitmode   = 0x0B

	ftdiResetSIO     = 0
	ftdiFlowRtsCts   = 0x0100
	ftdiBitmodeReset = 0x0000
	ftdiBitmodeMpsse = 0x0200
)

// ReadTimeout bounds a single ReadBits call.
const ReadTimeout = 3 * time.Second

// Session is an open BitBabbler with MPSSE initialized.
//
//	s, _ := Open(0, 0)
//	defer s.Close()
//	bits, _ := s.ReadBits(2048)
type Session struct {
	ctx       *gousb.Context
	dev       *gousb.Device
	cfg       *gousb.Config
	intf      *gousb.Interface
	inEp      *gousb.InEndpoint
	outEp     *gousb.OutEndpoint
	maxPacket int
}

// Open opens the first BitBabbler and initializes MPSSE.
// bitrate 0 selects DefaultBitrate; latencyMs 0 selects 1ms.
func Open(bitrate uint, latencyMs uint8) (*Session, error) {
	if bitrate == 0 {
		bitrate = DefaultBitrate
	}
	if latencyMs == 0 {
		latencyMs = 1
	}

	s := &Session{ctx: gousb.NewContext()}
	if err := s.open(bitrate, latencyMs); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) open(bitrate uint, latencyMs uint8) error {
	var err error
	s.dev, err = s.ctx.OpenDeviceWithVIDPID(gousb.ID(ftdiVendorID), gousb.ID(bbProductID))
	if err != nil {
		return fmt.Errorf("open usb device: %w", err)
	}
	if s.dev == nil {
		return errors.New("BitBabbler device not found")
	}
	_ = s.dev.SetAutoDetach(true)

	if s.cfg, err = s.dev.Config(1); err != nil {
		return fmt.Errorf("usb config: %w", err)
	}
	if s.intf, err = s.cfg.Interface(0, 0); err != nil {
		return fmt.Errorf("usb interface: %w", err)
	}
	for _, ep := range s.intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if ep.Direction == gousb.EndpointDirectionIn {
			s.inEp, err = s.intf.InEndpoint(ep.Number)
		} else {
			s.outEp, err = s.intf.OutEndpoint(ep.Number)
		}
		if err != nil {
			return fmt.Errorf("usb endpoint %d: %w", ep.Number, err)
		}
	}
	if s.inEp == nil || s.outEp == nil {
		return errors.New("bulk endpoints not found")
	}
	s.maxPacket = s.inEp.Desc.MaxPacketSize
	return s.initMPSSE(bitrate, latencyMs)
}

func (s *Session) initMPSSE(bitrate uint, latencyMs uint8) error {
	steps := []func() error{
		func() error { return s.control(ftdiReqReset, ftdiResetSIO) },
		s.purgeRead,
		func() error { return s.control(ftdiReqSetEventChar, 0) },
		func() error { return s.control(ftdiReqSetErrorChar, 0) },
		func() error { return s.control(ftdiReqSetLatency, uint16(latencyMs)) },
		func() error { return s.controlIndex(ftdiReqSetFlowCtrl, 0, ftdiFlowRtsCts|1) },
		func() error { return s.control(ftdiReqSetBitmode, ftdiBitmodeReset) },
		func() error { return s.control(ftdiReqSetBitmode, ftdiBitmodeMpsse) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("ftdi init: %w", err)
		}
	}
	time.Sleep(50 * time.Millisecond)

	// Sync on bogus opcodes 0xAA/0xAB; the chip echoes 0xFA <cmd>. One retry.
	if !(s.checkSync(0xAA) && s.checkSync(0xAB)) && !(s.checkSync(0xAA) && s.checkSync(0xAB)) {
		return errors.New("MPSSE sync failed")
	}

	clkDiv := uint16(30_000_000/bitrate - 1)
	cmd := []byte{
		mpsseNoClkDiv5,
		mpsseNoAdaptiveClk,
		mpsseNo3PhaseClk,
		mpsseSetDataLow, 0x00, 0x0B, // CLK, DO, CS as outputs
		mpsseSetDataHigh, 0x00, 0x00,
		mpsseSetClkDivisor, byte(clkDiv & 0xFF), byte(clkDiv >> 8),
		mpsseNoLoopback,
	}
	if _, err := s.outEp.Write(cmd); err != nil {
		return fmt.Errorf("mpsse setup: %w", err)
	}
	time.Sleep(30 * time.Millisecond)
	return s.purgeRead()
}

// Close releases USB resources.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	if s.intf != nil {
		s.intf.Close()
	}
	var err error
	if s.cfg != nil {
		err = s.cfg.Close()
	}
	if s.dev != nil {
		err = errors.Join(err, s.dev.Close())
	}
	if s.ctx != nil {
		err = errors.Join(err, s.ctx.Close())
	}
	return err
}

// ReadBits reads bitCount bits packed MSB-first; trailing bits of the last
// byte are zeroed.
func (s *Session) ReadBits(bitCount int) ([]byte, error) {
	if bitCount <= 0 {
		return nil, errors.New("bits must be > 0")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ReadTimeout)
	defer cancel()

	buf := make([]byte, (bitCount+7)/8)
	n, err := s.ReadRandom(ctx, buf)
	if err != nil {
		return nil, err
	}
	buf = buf[:n]
	if extra := (8 - (bitCount % 8)) % 8; extra != 0 && len(buf) == (bitCount+7)/8 {
		buf[len(buf)-1] &= byte(0xFF << extra)
	}
	return buf, nil
}

// maxReadChunk is the largest transfer one MPSSE read command can request;
// its length field holds n-1 in 16 bits.
const maxReadChunk = 1 << 16

// ReadRandom fills buf with random bytes, issuing one read command per
// maxReadChunk bytes. The FTDI prefixes every packet with a 2-byte modem
// status which is stripped.
func (s *Session) ReadRandom(ctx context.Context, buf []byte) (int, error) {
	return readChunked(buf, func(chunk []byte) (int, error) {
		return s.readChunk(ctx, chunk)
	})
}

// readChunked fills buf through read, never passing it more than
// maxReadChunk bytes at once.
func readChunked(buf []byte, read func([]byte) (int, error)) (int, error) {
	got := 0
	for got < len(buf) {
		end := min(got+maxReadChunk, len(buf))
		n, err := read(buf[got:end])
		got += n
		if err != nil {
			return got, err
		}
	}
	return got, nil
}

func (s *Session) readChunk(ctx context.Context, buf []byte) (int, error) {
	n := len(buf)
	if _, err := s.outEp.Write(readCommand(n)); err != nil {
		return 0, err
	}

	got := 0
	tmp := make([]byte, roundUp(n, s.maxPacket)+s.maxPacket)
	for got < n {
		m, err := s.inEp.ReadContext(ctx, tmp)
		if err != nil {
			return got, err
		}
		got += unpackPackets(buf[got:], tmp[:m], s.maxPacket)
	}
	return got, nil
}

// readCommand asks for n bytes, 1 <= n <= maxReadChunk, clocked in MSB first.
func readCommand(n int) []byte {
	return []byte{mpsseDataByteInPosMSB, byte((n - 1) & 0xFF), byte((n - 1) >> 8), mpsseSendImmediate}
}

// unpackPackets copies the payload of each maxPacket-sized chunk of src into
// dst, skipping the 2-byte status header of each chunk. It returns the number
// of payload bytes copied.
func unpackPackets(dst, src []byte, maxPacket int) int {
	if maxPacket <= 2 {
		maxPacket = len(src)
	}
	copied := 0
	for off := 0; off < len(src) && copied < len(dst); off += maxPacket {
		end := off + maxPacket
		if end > len(src) {
			end = len(src)
		}
		if end-off <= 2 {
			break
		}
		copied += copy(dst[copied:], src[off+2:end])
	}
	return copied
}

func (s *Session) control(req uint8, value uint16) error {
	return s.controlIndex(req, value, 1)
}

func (s *Session) controlIndex(req uint8, value, index uint16) error {
	typ := uint8(gousb.ControlOut) | uint8(gousb.ControlVendor) | uint8(gousb.ControlDevice)
	_, err := s.dev.Control(typ, req, value, index, nil)
	return err
}

func (s *Session) purgeRead() error {
	buf := make([]byte, 8192)
	for i := 0; i < 10; i++ {
		n, _ := s.inEp.Read(buf)
		if n <= 2 {
			break
		}
	}
	return nil
}

func (s *Session) checkSync(cmd byte) bool {
	if _, err := s.outEp.Write([]byte{cmd, mpsseSendImmediate}); err != nil {
		return false
	}
	buf := make([]byte, 512)
	for i := 0; i < 10; i++ {
		n, _ := s.inEp.Read(buf)
		if n == 4 && buf[2] == 0xFA && buf[3] == cmd {
			return true
		}
	}
	return false
}

func roundUp(n, size int) int {
	if size <= 0 || n%size == 0 {
		return n
	}
	return (n/size + 1) * size
}
