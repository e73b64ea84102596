//go:build !linux || !(amd64 || arm64)

package camera

// Open is unavailable without the V4L2 backend.
func Open(cfg Config) (Device, error) {
	return nil, ErrUnsupported
}

// List returns no devices without the V4L2 backend.
func List() ([]string, error) { return nil, nil }
