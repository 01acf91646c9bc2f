package engine

import "strings"

// lowPowerMemoryThresholdMB is the device memory at or below which
// animation cost is gated down.
const lowPowerMemoryThresholdMB = 3072

// lowPowerBrands are device brands treated as low-end regardless of
// reported memory.
var lowPowerBrands = map[string]bool{
	"infinix": true,
	"tecno":   true,
	"itel":    true,
}

// DeviceProbe reports device characteristics. Implementations wrap the
// platform's device-info API.
type DeviceProbe interface {
	TotalMemoryMB() (int, error)
	Brand() (string, error)
}

// DetectLowPowerMode queries the device probe and flips the low-power
// flag. A failed probe defaults to full power rather than blocking.
func (s *Store) DetectLowPowerMode(probe DeviceProbe) bool {
	lowPower := false

	if memoryMB, err := probe.TotalMemoryMB(); err == nil && memoryMB > 0 && memoryMB <= lowPowerMemoryThresholdMB {
		lowPower = true
	}
	if brand, err := probe.Brand(); err == nil && lowPowerBrands[strings.ToLower(brand)] {
		lowPower = true
	}

	s.mu.Lock()
	s.state.LowPowerMode = lowPower
	s.mu.Unlock()
	s.dirty()

	return lowPower
}
