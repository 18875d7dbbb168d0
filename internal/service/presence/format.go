package presence

import "fmt"

// FormatSpeed renders a speed in meters per second as km/h with one decimal.
func FormatSpeed(metersPerSecond float64) string {
	return fmt.Sprintf("%.1f km/h", metersPerSecond*3.6)
}

// FormatCoordinates renders a position with five decimals per axis.
func FormatCoordinates(lat, lon float64) string {
	return fmt.Sprintf("%.5f, %.5f", lat, lon)
}
