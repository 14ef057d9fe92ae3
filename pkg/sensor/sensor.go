// Package sensor polls the arm's analog inputs: the soil moisture probes and
// the light sensor.
package sensor

// MoistureCount is the number of moisture probes.
const MoistureCount = 4

// Snapshot is one reading of every analog input. Values are raw ADC counts.
type Snapshot struct {
	Moisture [MoistureCount]int
	Light    int
}

// AnalogReader reads a single raw value from an input.
type AnalogReader interface {
	ReadRaw(input int) (int, error)
}

// Config maps the logical sensors to ADC inputs.
type Config struct {
	IIODevice      string             `json:"iio_device"`
	MoistureInputs [MoistureCount]int `json:"moisture_inputs"`
	LightInput     int                `json:"light_input"`
}

// DefaultConfig wires moisture probes to inputs 0-3 and light to input 4.
func DefaultConfig() Config {
	return Config{
		IIODevice:      "/sys/bus/iio/devices/iio:device0",
		MoistureInputs: [MoistureCount]int{0, 1, 2, 3},
		LightInput:     4,
	}
}

// Source produces snapshots from an AnalogReader.
type Source struct {
	reader AnalogReader
	cfg    Config
}

// NewSource creates a source.
func NewSource(reader AnalogReader, cfg Config) *Source {
	return &Source{reader: reader, cfg: cfg}
}

// ReadAll takes a fresh snapshot. An input that fails to read reports 0.
func (s *Source) ReadAll() Snapshot {
	var snap Snapshot
	for i, input := range s.cfg.MoistureInputs {
		snap.Moisture[i] = s.read(input)
	}
	snap.Light = s.read(s.cfg.LightInput)
	return snap
}

func (s *Source) read(input int) int {
	v, err := s.reader.ReadRaw(input)
	if err != nil {
		return 0
	}
	return v
}
