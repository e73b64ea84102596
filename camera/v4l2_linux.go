//go:build linux && (amd64 || arm64)

package camera

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	bufTypeVideoCapture = 1
	memoryMmap          = 1
	fieldAny            = 0

	capVideoCapture = 0x00000001
	capStreaming    = 0x04000000

	// buffers queued with the driver
	numBuffers = 4
	// how often a blocked Frame rechecks its context
	pollInterval = 100 * time.Millisecond
)

// struct v4l2_capability
type v4l2Capability struct {
	Driver       [16]byte
	Card         [32]byte
	BusInfo      [32]byte
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
	Reserved     [3]uint32
}

// struct v4l2_pix_format
type v4l2PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	BytesPerLine uint32
	SizeImage    uint32
	Colorspace   uint32
	Priv         uint32
	Flags        uint32
	YcbcrEnc     uint32
	Quantization uint32
	XferFunc     uint32
}

// struct v4l2_format; the union is pointer aligned.
type v4l2Format struct {
	Type uint32
	_    uint32
	Fmt  [200]byte
}

// struct v4l2_requestbuffers
type v4l2RequestBuffers struct {
	Count        uint32
	Type         uint32
	Memory       uint32
	Capabilities uint32
	Flags        uint8
	Reserved     [3]uint8
}

// struct v4l2_buffer
type v4l2Buffer struct {
	Index         uint32
	Type          uint32
	BytesUsed     uint32
	Flags         uint32
	Field         uint32
	_             uint32
	TimestampSec  int64
	TimestampUsec int64
	Timecode      [16]byte
	Sequence      uint32
	Memory        uint32
	M             uint64 // mmap offset in the low word
	Length        uint32
	Reserved2     uint32
	RequestFD     int32
	_             uint32
}

// struct v4l2_captureparm inside struct v4l2_streamparm
type v4l2CaptureParm struct {
	Capability   uint32
	CaptureMode  uint32
	Numerator    uint32
	Denominator  uint32
	ExtendedMode uint32
	ReadBuffers  uint32
	Reserved     [4]uint32
}

type v4l2StreamParm struct {
	Type uint32
	Parm [200]byte
}

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | uintptr('V')<<8 | nr
}

const (
	iocWrite = 1
	iocRead  = 2
)

var (
	vidiocQueryCap  = ioc(iocRead, 0, unsafe.Sizeof(v4l2Capability{}))
	vidiocSFmt      = ioc(iocRead|iocWrite, 5, unsafe.Sizeof(v4l2Format{}))
	vidiocReqBufs   = ioc(iocRead|iocWrite, 8, unsafe.Sizeof(v4l2RequestBuffers{}))
	vidiocQueryBuf  = ioc(iocRead|iocWrite, 9, unsafe.Sizeof(v4l2Buffer{}))
	vidiocQBuf      = ioc(iocRead|iocWrite, 15, unsafe.Sizeof(v4l2Buffer{}))
	vidiocDQBuf     = ioc(iocRead|iocWrite, 17, unsafe.Sizeof(v4l2Buffer{}))
	vidiocStreamOn  = ioc(iocWrite, 18, unsafe.Sizeof(int32(0)))
	vidiocStreamOff = ioc(iocWrite, 19, unsafe.Sizeof(int32(0)))
	vidiocSParm     = ioc(iocRead|iocWrite, 22, unsafe.Sizeof(v4l2StreamParm{}))
)

func fourcc(f Format) uint32 {
	s := string(f)
	if f == FormatMJPEG {
		s = "MJPG"
	}
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		default:
			return errno
		}
	}
}

type v4l2Device struct {
	fd     int
	width  int
	height int
	format Format
	bufs   [][]byte
}

// Open opens a V4L2 capture device and starts an mmap stream.
func Open(cfg Config) (Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	d := &v4l2Device{fd: fd, format: cfg.Format}
	if err := d.start(cfg); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("%s: %w", cfg.Device, err)
	}
	return d, nil
}

func (d *v4l2Device) start(cfg Config) error {
	var caps v4l2Capability
	if err := ioctl(d.fd, vidiocQueryCap, unsafe.Pointer(&caps)); err != nil {
		return fmt.Errorf("query capabilities: %w", err)
	}
	if caps.Capabilities&capVideoCapture == 0 || caps.Capabilities&capStreaming == 0 {
		return errors.New("device does not support streaming capture")
	}

	fmtReq := v4l2Format{Type: bufTypeVideoCapture}
	pix := (*v4l2PixFormat)(unsafe.Pointer(&fmtReq.Fmt[0]))
	pix.Width = uint32(cfg.Width)
	pix.Height = uint32(cfg.Height)
	pix.PixelFormat = fourcc(cfg.Format)
	pix.Field = fieldAny
	if err := ioctl(d.fd, vidiocSFmt, unsafe.Pointer(&fmtReq)); err != nil {
		return fmt.Errorf("set format: %w", err)
	}
	if pix.PixelFormat != fourcc(cfg.Format) {
		return fmt.Errorf("format %s rejected by driver", cfg.Format)
	}
	d.width, d.height = int(pix.Width), int(pix.Height)

	parm := v4l2StreamParm{Type: bufTypeVideoCapture}
	cp := (*v4l2CaptureParm)(unsafe.Pointer(&parm.Parm[0]))
	cp.Numerator, cp.Denominator = 1, uint32(cfg.FPS)
	// Frame rate is advisory; not every driver accepts it.
	_ = ioctl(d.fd, vidiocSParm, unsafe.Pointer(&parm))

	req := v4l2RequestBuffers{Count: numBuffers, Type: bufTypeVideoCapture, Memory: memoryMmap}
	if err := ioctl(d.fd, vidiocReqBufs, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("request buffers: %w", err)
	}
	if req.Count == 0 {
		return errors.New("driver allocated no buffers")
	}
	for i := uint32(0); i < req.Count; i++ {
		buf := v4l2Buffer{Index: i, Type: bufTypeVideoCapture, Memory: memoryMmap}
		if err := ioctl(d.fd, vidiocQueryBuf, unsafe.Pointer(&buf)); err != nil {
			return fmt.Errorf("query buffer %d: %w", i, err)
		}
		mem, err := unix.Mmap(d.fd, int64(uint32(buf.M)), int(buf.Length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return fmt.Errorf("mmap buffer %d: %w", i, err)
		}
		d.bufs = append(d.bufs, mem)
		if err := ioctl(d.fd, vidiocQBuf, unsafe.Pointer(&buf)); err != nil {
			return fmt.Errorf("queue buffer %d: %w", i, err)
		}
	}
	typ := int32(bufTypeVideoCapture)
	if err := ioctl(d.fd, vidiocStreamOn, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("stream on: %w", err)
	}
	return nil
}

// Frame dequeues one filled buffer, copies it out and requeues it.
func (d *v4l2Device) Frame(ctx context.Context) (Frame, error) {
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		n, err := unix.Poll(fds, int(pollInterval/time.Millisecond))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return Frame{}, fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			continue
		}

		buf := v4l2Buffer{Type: bufTypeVideoCapture, Memory: memoryMmap}
		if err := ioctl(d.fd, vidiocDQBuf, unsafe.Pointer(&buf)); err != nil {
			if errors.Is(err, unix.EAGAIN) {
				continue
			}
			return Frame{}, fmt.Errorf("dequeue buffer: %w", err)
		}
		mem := d.bufs[buf.Index]
		used := int(buf.BytesUsed)
		if used > len(mem) {
			used = len(mem)
		}
		f := Frame{
			Width:    d.width,
			Height:   d.height,
			Format:   d.format,
			Data:     append([]byte(nil), mem[:used]...),
			Captured: time.Now(),
		}
		if err := ioctl(d.fd, vidiocQBuf, unsafe.Pointer(&buf)); err != nil {
			return Frame{}, fmt.Errorf("requeue buffer: %w", err)
		}
		return f, nil
	}
}

// Close stops the stream and releases the buffers and descriptor.
func (d *v4l2Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	typ := int32(bufTypeVideoCapture)
	_ = ioctl(d.fd, vidiocStreamOff, unsafe.Pointer(&typ))
	var err error
	for _, b := range d.bufs {
		err = errors.Join(err, unix.Munmap(b))
	}
	d.bufs = nil
	err = errors.Join(err, unix.Close(d.fd))
	d.fd = -1
	return err
}

// List returns the V4L2 device nodes present on the system.
func List() ([]string, error) {
	paths, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
