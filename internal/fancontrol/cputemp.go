package fancontrol

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultTempPath is the first thermal zone, the SoC on most boards.
const DefaultTempPath = "/sys/class/thermal/thermal_zone0/temp"

// parseTempC accepts millidegrees (52345) and plain degrees (52).
func parseTempC(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("fancontrol: temperature empty")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("fancontrol: parse temperature %q: %w", s, err)
	}
	if n > 1000 || n < -1000 {
		return float64(n) / 1000.0, nil
	}
	return float64(n), nil
}

// TempReader returns a function reading a thermal zone in degrees Celsius.
func TempReader(path string) func() (float64, error) {
	if path == "" {
		path = DefaultTempPath
	}
	return func() (float64, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("fancontrol: read temperature: %w", err)
		}
		return parseTempC(string(b))
	}
}
