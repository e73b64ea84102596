package camera

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_WriteTextRaw(t *testing.T) {
	f := Frame{Width: 2, Height: 1, Format: FormatYUYV, Data: []byte{0, 128, 255, 7}}
	var buf bytes.Buffer
	require.NoError(t, f.WriteText(&buf))
	assert.Equal(t, "Frame { width: 2, height: 1, format: YUYV, data: [0, 128, 255, 7] }", buf.String())
}

func TestFrame_WriteTextMJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 90, A: 255})
		}
	}
	var enc bytes.Buffer
	require.NoError(t, jpeg.Encode(&enc, img, &jpeg.Options{Quality: 100}))

	f := Frame{Width: 4, Height: 2, Format: FormatMJPEG, Data: enc.Bytes()}
	px, err := f.Pixels()
	require.NoError(t, err)
	assert.Len(t, px, 4*2*3)

	var buf bytes.Buffer
	require.NoError(t, f.WriteText(&buf))
	text := buf.String()
	assert.True(t, strings.HasPrefix(text, "Frame { width: 4, height: 2, format: MJPEG, data: ["))
	assert.True(t, strings.HasSuffix(text, "] }"))
	assert.Equal(t, 4*2*3-1, strings.Count(text, ", ")-3)
}

func TestFrame_CorruptMJPEG(t *testing.T) {
	f := Frame{Format: FormatMJPEG, Data: []byte("not a jpeg")}
	assert.Error(t, f.WriteText(&bytes.Buffer{}))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.Device = ""
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Width = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.FPS = -1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Format = "H264"
	assert.Error(t, bad.Validate())
}

// stripDHT removes every DHT segment ahead of SOS, the way UVC cameras
// deliver MJPEG.
func stripDHT(t *testing.T, data []byte) []byte {
	t.Helper()
	out := append([]byte{}, data[:2]...)
	i := 2
	for data[i+1] != markerSOS {
		n := 2 + (int(data[i+2])<<8 | int(data[i+3]))
		if data[i+1] != markerDHT {
			out = append(out, data[i:i+n]...)
		}
		i += n
	}
	return append(out, data[i:]...)
}

func colourJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: uint8(x ^ y), A: 255})
		}
	}
	var enc bytes.Buffer
	require.NoError(t, jpeg.Encode(&enc, img, &jpeg.Options{Quality: 90}))
	return enc.Bytes()
}

func TestFrame_PixelsWithoutHuffmanTables(t *testing.T) {
	full := colourJPEG(t, 16, 16)
	stripped := stripDHT(t, full)
	require.NotContains(t, string(stripped), string([]byte{0xFF, markerDHT}))
	_, err := jpeg.Decode(bytes.NewReader(stripped))
	require.Error(t, err)

	want, err := Frame{Format: FormatMJPEG, Data: full}.Pixels()
	require.NoError(t, err)
	got, err := Frame{Format: FormatMJPEG, Data: stripped}.Pixels()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWithHuffmanTables(t *testing.T) {
	assert.Len(t, defaultDHT, 420)

	full := colourJPEG(t, 8, 8)
	assert.Equal(t, full, withHuffmanTables(full))

	junk := []byte("not a jpeg")
	assert.Equal(t, junk, withHuffmanTables(junk))

	stripped := stripDHT(t, full)
	fixed := withHuffmanTables(stripped)
	assert.Len(t, fixed, len(stripped)+len(defaultDHT))
	assert.True(t, bytes.Contains(fixed, defaultDHT))
}
