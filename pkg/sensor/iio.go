package sensor

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// IIOReader reads raw ADC channels exposed by the Linux industrial I/O
// subsystem, e.g. /sys/bus/iio/devices/iio:device0/in_voltage3_raw.
type IIOReader struct {
	fs     afero.Fs
	device string
}

// NewIIOReader creates a reader for device on fs.
func NewIIOReader(fs afero.Fs, device string) *IIOReader {
	return &IIOReader{fs: fs, device: device}
}

// ReadRaw reads in_voltage<input>_raw.
func (r *IIOReader) ReadRaw(input int) (int, error) {
	name := path.Join(r.device, fmt.Sprintf("in_voltage%d_raw", input))
	data, err := afero.ReadFile(r.fs, name)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}
