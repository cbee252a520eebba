package models

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ThreatType tags the biological agent class behind a detection.
type ThreatType string

const (
	ThreatFungal    ThreatType = "FUNGAL"
	ThreatBacterial ThreatType = "BACTERIAL"
	ThreatViral     ThreatType = "VIRAL"
	ThreatPest      ThreatType = "PEST"
	ThreatUnknown   ThreatType = "UNKNOWN"
	ThreatBioweapon ThreatType = "BIOWEAPON"
)

// ThreatLevel grades detection and prediction severity.
type ThreatLevel string

const (
	LevelLow      ThreatLevel = "LOW"
	LevelMedium   ThreatLevel = "MEDIUM"
	LevelHigh     ThreatLevel = "HIGH"
	LevelCritical ThreatLevel = "CRITICAL"
)

// SensorType identifies which ingest pipeline produced a reading.
type SensorType string

const (
	SensorSoil    SensorType = "soil"
	SensorWeather SensorType = "weather"
	SensorImage   SensorType = "image"
)

// SensorReading is a raw reading handed to the anomaly classifier.
type SensorReading struct {
	SensorID   string             `json:"sensor_id"`
	SensorType SensorType         `json:"sensor_type"`
	Features   map[string]float64 `json:"features"`
	Location   *geojson.Geometry  `json:"location,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// ThreatDetection is the classifier's output record. Immutable once created;
// later correction is an operator concern outside this core.
type ThreatDetection struct {
	ID              string            `json:"id"`
	ThreatType      ThreatType        `json:"threat_type"`
	ThreatLevel     ThreatLevel       `json:"threat_level"`
	Confidence      float64           `json:"confidence"`
	DetectionTime   time.Time         `json:"detection_time"`
	Location        *geojson.Geometry `json:"location"`
	AffectedArea    *geojson.Geometry `json:"affected_area,omitempty"`
	Description     string            `json:"description"`
	Recommendations []string          `json:"recommendations"`
	SourceData      []string          `json:"source_data"`
}

// SpreadPrediction is one day of a geographic spread forecast.
type SpreadPrediction struct {
	ID             string            `json:"id"`
	ThreatID       string            `json:"threat_id"`
	Day            int               `json:"day"`
	PredictionTime time.Time         `json:"prediction_time"`
	ThreatLevel    ThreatLevel       `json:"threat_level"`
	Confidence     float64           `json:"confidence"`
	Probability    float64           `json:"probability"`
	Location       *geojson.Geometry `json:"location"`
	AffectedArea   *geojson.Geometry `json:"affected_area"`
	SpreadVelocity float64           `json:"spread_velocity"`
}

// Weather holds the conditions used to adjust geographic spread rates.
// Temperature in Celsius, humidity in percent, wind speed in m/s, wind
// direction in degrees, precipitation in mm.
type Weather struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`
	Precipitation float64 `json:"precipitation"`
}

// DefaultWeather is the documented fallback when no reading is available.
func DefaultWeather() Weather {
	return Weather{
		Temperature:   25.0,
		Humidity:      60.0,
		WindSpeed:     5.0,
		WindDirection: 180.0,
		Precipitation: 0.0,
	}
}

// NewPoint wraps a lon/lat pair as a GeoJSON Point geometry.
func NewPoint(lon, lat float64) *geojson.Geometry {
	return geojson.NewGeometry(orb.Point{lon, lat})
}

// PointCoordinates extracts lon/lat from a GeoJSON geometry. The second
// return value is false when the geometry is missing or not a Point.
func PointCoordinates(g *geojson.Geometry) (lon, lat float64, ok bool) {
	if g == nil {
		return 0, 0, false
	}
	point, isPoint := g.Geometry().(orb.Point)
	if !isPoint {
		return 0, 0, false
	}
	return point.Lon(), point.Lat(), true
}
