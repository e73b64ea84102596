// Package camera captures frames for the candle trial. Device abstracts
// the capture backend so trials do not depend on how frames are obtained.
package camera

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strconv"
	"time"
)

// ErrUnsupported is returned by Open on platforms without a capture backend.
var ErrUnsupported = errors.New("camera: capture not supported on this platform")

// Format is the pixel format a frame is delivered in.
type Format string

const (
	FormatMJPEG Format = "MJPEG"
	FormatYUYV  Format = "YUYV"
)

// Config selects the capture device and stream format.
type Config struct {
	Device string `yaml:"device"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	FPS    int    `yaml:"fps"`
	Format Format `yaml:"format"`
}

// DefaultConfig is the second video device at 640x480 MJPEG, 1 frame per second.
func DefaultConfig() Config {
	return Config{Device: "/dev/video1", Width: 640, Height: 480, FPS: 1, Format: FormatMJPEG}
}

// Validate rejects unusable stream settings.
func (c Config) Validate() error {
	if c.Device == "" {
		return errors.New("camera: device is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("camera: invalid size %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("camera: invalid fps %d", c.FPS)
	}
	if c.Format != FormatMJPEG && c.Format != FormatYUYV {
		return fmt.Errorf("camera: unsupported format %q", c.Format)
	}
	return nil
}

// Device is an open capture stream.
type Device interface {
	// Frame blocks until the next frame is available.
	Frame(ctx context.Context) (Frame, error)
	Close() error
}

// Frame is a single captured image as delivered by the device.
type Frame struct {
	Width    int
	Height   int
	Format   Format
	Data     []byte
	Captured time.Time
}

// Pixels returns the frame as packed 8-bit RGB. MJPEG frames are decoded,
// with the default Huffman tables supplied when the camera left them out;
// other formats are returned as delivered.
func (f Frame) Pixels() ([]byte, error) {
	if f.Format != FormatMJPEG {
		return f.Data, nil
	}
	img, err := jpeg.Decode(bytes.NewReader(withHuffmanTables(f.Data)))
	if err != nil {
		return nil, fmt.Errorf("decode mjpeg frame: %w", err)
	}
	return rgb(img), nil
}

func rgb(img image.Image) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8))
		}
	}
	return out
}

// WriteText writes the debug form of the frame:
//
//	Frame { width: 640, height: 480, format: MJPEG, data: [12, 0, 255, ...] }
//
// where data holds the RGB pixels.
func (f Frame) WriteText(w io.Writer) error {
	px, err := f.Pixels()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Frame { width: %d, height: %d, format: %s, data: [", f.Width, f.Height, f.Format)
	var num []byte
	for i, p := range px {
		if i > 0 {
			bw.WriteString(", ")
		}
		num = strconv.AppendUint(num[:0], uint64(p), 10)
		bw.Write(num)
	}
	bw.WriteString("] }")
	return bw.Flush()
}
