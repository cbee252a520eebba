package db

import (
	"context"
	"fmt"
	"math"
	"time"

	"agridefender/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoClient struct {
	client *mongo.Client
	db     *mongo.Database
}

// Geometries are kept as GeoJSON strings so both backends store the same
// representation.
type detectionDoc struct {
	ID              string    `bson:"_id"`
	ThreatType      string    `bson:"threat_type"`
	ThreatLevel     string    `bson:"threat_level"`
	Confidence      float64   `bson:"confidence"`
	DetectionTime   time.Time `bson:"detection_time"`
	Location        *string   `bson:"location,omitempty"`
	AffectedArea    *string   `bson:"affected_area,omitempty"`
	Description     string    `bson:"description"`
	Recommendations []string  `bson:"recommendations,omitempty"`
	SourceData      []string  `bson:"source_data,omitempty"`
}

type predictionDoc struct {
	ID             string    `bson:"_id"`
	ThreatID       string    `bson:"threat_id"`
	Day            int       `bson:"day"`
	PredictionTime time.Time `bson:"prediction_time"`
	ThreatLevel    string    `bson:"threat_level"`
	Confidence     float64   `bson:"confidence"`
	Probability    float64   `bson:"probability"`
	Location       *string   `bson:"location,omitempty"`
	AffectedArea   *string   `bson:"affected_area,omitempty"`
	SpreadVelocity float64   `bson:"spread_velocity"`
}

func NewMongoClient(uri, dbName string) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %s", err)
	}

	db := client.Database(dbName)

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer indexCancel()
	_, err = db.Collection("predictions").Indexes().CreateOne(indexCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "threat_id", Value: 1}, {Key: "day", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating prediction index: %s", err)
	}

	return &MongoClient{client: client, db: db}, nil
}

func (m *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoClient) StoreDetection(detection *models.ThreatDetection) error {
	doc, err := toDetectionDoc(detection)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = m.db.Collection("detections").InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("error storing detection: %s", err)
	}
	return nil
}

func (m *MongoClient) GetDetection(id string) (*models.ThreatDetection, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var doc detectionDoc
	err := m.db.Collection("detections").FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error querying detection: %s", err)
	}

	detection, err := fromDetectionDoc(&doc)
	if err != nil {
		return nil, false, err
	}
	return detection, true, nil
}

func (m *MongoClient) GetAllDetections() ([]models.ThreatDetection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "detection_time", Value: -1}})
	cursor, err := m.db.Collection("detections").Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying detections: %s", err)
	}
	defer cursor.Close(ctx)

	var detections []models.ThreatDetection
	for cursor.Next(ctx) {
		var doc detectionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding detection: %s", err)
		}
		detection, err := fromDetectionDoc(&doc)
		if err != nil {
			return nil, err
		}
		detections = append(detections, *detection)
	}
	return detections, cursor.Err()
}

func (m *MongoClient) GetDetectionsByLocation(lat, lng, radiusKm float64) ([]models.ThreatDetection, error) {
	all, err := m.GetAllDetections()
	if err != nil {
		return nil, err
	}

	latDelta := radiusKm / 111.0
	lngDelta := radiusKm / (111.0 * math.Cos(lat*math.Pi/180.0))

	var matched []models.ThreatDetection
	for _, d := range all {
		dLng, dLat, ok := models.PointCoordinates(d.Location)
		if !ok {
			continue
		}
		if math.Abs(dLat-lat) < latDelta && math.Abs(dLng-lng) < lngDelta {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

func (m *MongoClient) TotalDetections() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.db.Collection("detections").CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("error counting detections: %s", err)
	}
	return int(count), nil
}

func (m *MongoClient) StorePredictions(predictions []models.SpreadPrediction) error {
	if len(predictions) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(predictions))
	for i := range predictions {
		doc, err := toPredictionDoc(&predictions[i])
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := m.db.Collection("predictions").InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("error storing predictions: %s", err)
	}
	return nil
}

func (m *MongoClient) GetPredictionsByThreat(threatID string) ([]models.SpreadPrediction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "day", Value: 1}})
	cursor, err := m.db.Collection("predictions").Find(ctx, bson.M{"threat_id": threatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying predictions: %s", err)
	}
	defer cursor.Close(ctx)

	var predictions []models.SpreadPrediction
	for cursor.Next(ctx) {
		var doc predictionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding prediction: %s", err)
		}
		prediction, err := fromPredictionDoc(&doc)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, *prediction)
	}
	return predictions, cursor.Err()
}

func toDetectionDoc(d *models.ThreatDetection) (*detectionDoc, error) {
	location, err := marshalGeometry(d.Location)
	if err != nil {
		return nil, fmt.Errorf("error marshaling location: %s", err)
	}
	area, err := marshalGeometry(d.AffectedArea)
	if err != nil {
		return nil, fmt.Errorf("error marshaling affected area: %s", err)
	}
	return &detectionDoc{
		ID:              d.ID,
		ThreatType:      string(d.ThreatType),
		ThreatLevel:     string(d.ThreatLevel),
		Confidence:      d.Confidence,
		DetectionTime:   d.DetectionTime,
		Location:        location,
		AffectedArea:    area,
		Description:     d.Description,
		Recommendations: d.Recommendations,
		SourceData:      d.SourceData,
	}, nil
}

func fromDetectionDoc(doc *detectionDoc) (*models.ThreatDetection, error) {
	location, err := unmarshalGeometry(doc.Location)
	if err != nil {
		return nil, err
	}
	area, err := unmarshalGeometry(doc.AffectedArea)
	if err != nil {
		return nil, err
	}
	return &models.ThreatDetection{
		ID:              doc.ID,
		ThreatType:      models.ThreatType(doc.ThreatType),
		ThreatLevel:     models.ThreatLevel(doc.ThreatLevel),
		Confidence:      doc.Confidence,
		DetectionTime:   doc.DetectionTime,
		Location:        location,
		AffectedArea:    area,
		Description:     doc.Description,
		Recommendations: doc.Recommendations,
		SourceData:      doc.SourceData,
	}, nil
}

func toPredictionDoc(p *models.SpreadPrediction) (*predictionDoc, error) {
	location, err := marshalGeometry(p.Location)
	if err != nil {
		return nil, fmt.Errorf("error marshaling location: %s", err)
	}
	area, err := marshalGeometry(p.AffectedArea)
	if err != nil {
		return nil, fmt.Errorf("error marshaling affected area: %s", err)
	}
	return &predictionDoc{
		ID:             p.ID,
		ThreatID:       p.ThreatID,
		Day:            p.Day,
		PredictionTime: p.PredictionTime,
		ThreatLevel:    string(p.ThreatLevel),
		Confidence:     p.Confidence,
		Probability:    p.Probability,
		Location:       location,
		AffectedArea:   area,
		SpreadVelocity: p.SpreadVelocity,
	}, nil
}

func fromPredictionDoc(doc *predictionDoc) (*models.SpreadPrediction, error) {
	location, err := unmarshalGeometry(doc.Location)
	if err != nil {
		return nil, err
	}
	area, err := unmarshalGeometry(doc.AffectedArea)
	if err != nil {
		return nil, err
	}
	return &models.SpreadPrediction{
		ID:             doc.ID,
		ThreatID:       doc.ThreatID,
		Day:            doc.Day,
		PredictionTime: doc.PredictionTime,
		ThreatLevel:    models.ThreatLevel(doc.ThreatLevel),
		Confidence:     doc.Confidence,
		Probability:    doc.Probability,
		Location:       location,
		AffectedArea:   area,
		SpreadVelocity: doc.SpreadVelocity,
	}, nil
}
