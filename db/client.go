package db

import (
	"path/filepath"
	"strings"

	"agridefender/models"
	"agridefender/utils"
)

// Client is the persistence surface the worker and HTTP/socket layers use.
// Two implementations exist: SQLite (default, zero-setup) and MongoDB.
type Client interface {
	Close() error

	StoreDetection(detection *models.ThreatDetection) error
	GetDetection(id string) (*models.ThreatDetection, bool, error)
	GetAllDetections() ([]models.ThreatDetection, error)
	GetDetectionsByLocation(lat, lng, radiusKm float64) ([]models.ThreatDetection, error)
	TotalDetections() (int, error)

	StorePredictions(predictions []models.SpreadPrediction) error
	GetPredictionsByThreat(threatID string) ([]models.SpreadPrediction, error)
}

// NewClient picks the backing store from DB_TYPE ("sqlite" or "mongo").
func NewClient() (Client, error) {
	dbType := strings.ToLower(utils.GetEnv("DB_TYPE", "sqlite"))

	switch dbType {
	case "mongo", "mongodb":
		uri := utils.GetEnv("DB_URI", "mongodb://localhost:27017")
		name := utils.GetEnv("DB_NAME", "agridefender")
		return NewMongoClient(uri, name)
	default:
		path := utils.GetEnv("SQLITE_DB_PATH", filepath.Join("db", "agridefender.db"))
		return NewSQLiteClient(path)
	}
}
