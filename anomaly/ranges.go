package anomaly

import "agridefender/models"

// featureRange is the [Min,Max] band considered normal for a feature.
// Values exactly at a bound are in range.
type featureRange struct {
	Min float64
	Max float64
}

// normalRanges defines per-sensor-type normal operating bands. Loaded once,
// never mutated.
var normalRanges = map[models.SensorType]map[string]featureRange{
	models.SensorSoil: {
		"moisture":    {20.0, 60.0},  // percent
		"ph":          {5.5, 7.5},    // pH scale
		"temperature": {10.0, 35.0},  // Celsius
		"nitrogen":    {20.0, 80.0},  // ppm
		"phosphorus":  {10.0, 50.0},  // ppm
		"potassium":   {75.0, 250.0}, // ppm
	},
	models.SensorWeather: {
		"temperature":    {5.0, 35.0},  // Celsius
		"humidity":       {30.0, 80.0}, // percent
		"precipitation":  {0.0, 25.0},  // mm
		"wind_speed":     {0.0, 30.0},  // m/s
		"wind_direction": {0.0, 360.0}, // degrees
	},
}
