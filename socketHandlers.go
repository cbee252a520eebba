package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"

	"agridefender/advisory"
	"agridefender/db"
	"agridefender/models"
	"agridefender/utils"
	"agridefender/worker"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"
)

type socketController struct {
	worker  *worker.Worker
	store   db.Client
	advisor *advisory.GeminiClient
}

func newSocketController(w *worker.Worker, store db.Client, advisor *advisory.GeminiClient) *socketController {
	return &socketController{worker: w, store: store, advisor: advisor}
}

func (c *socketController) emitSystemInfo(socket socketio.Conn) {
	total, err := c.store.TotalDetections()
	if err != nil {
		log.Printf("[Socket] Failed to count detections: %v\n", err)
		return
	}
	socket.Emit("systemInfo", map[string]interface{}{
		"totalDetections": total,
		"advisoryEnabled": c.advisor != nil,
	})
}

func (c *socketController) handleNewSensorReading(socket socketio.Conn, payload string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	log.Printf("[handleNewSensorReading] Starting for socket %s, data length: %d\n", socket.ID(), len(payload))

	if payload == "" {
		logger.ErrorContext(ctx, "no data received in newSensorReading event")
		socket.Emit("processingError", map[string]string{"message": "no sensor data received"})
		return
	}

	var reading models.SensorReading
	if err := json.Unmarshal([]byte(payload), &reading); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse sensor payload", slog.Any("error", err))
		socket.Emit("processingError", map[string]string{"message": "invalid sensor payload"})
		return
	}

	logger.InfoContext(ctx, "received sensor reading",
		slog.String("socketID", socket.ID()),
		slog.String("sensorID", reading.SensorID),
		slog.String("sensorType", string(reading.SensorType)),
		slog.Int("featureCount", len(reading.Features)),
	)

	detection, err := c.worker.ProcessReading(&reading)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to process sensor reading", slog.Any("error", err))
		socket.Emit("processingError", map[string]string{"message": "failed to process reading"})
		return
	}

	if detection == nil {
		socket.Emit("readingProcessed", map[string]interface{}{
			"sensorId": reading.SensorID,
			"threat":   false,
		})
		return
	}

	// Broadcasts already went out through the publisher; answer the
	// submitting socket directly as well.
	socket.Emit("readingProcessed", map[string]interface{}{
		"sensorId":  reading.SensorID,
		"threat":    true,
		"detection": detection,
	})
	log.Printf("[handleNewSensorReading] Emitted detection %s for socket %s\n", detection.ID, socket.ID())
}

func (c *socketController) handleRequestAdvisory(socket socketio.Conn, threatID string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	if c.advisor == nil {
		socket.Emit("advisoryError", map[string]string{"message": "advisory service not configured"})
		return
	}

	detection, found, err := c.store.GetDetection(threatID)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to load detection for advisory", slog.Any("error", err))
		socket.Emit("advisoryError", map[string]string{"message": "failed to load detection"})
		return
	}
	if !found {
		socket.Emit("advisoryError", map[string]string{"message": "unknown threat id"})
		return
	}

	briefing, err := c.advisor.BriefDetection(detection)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to generate advisory", slog.Any("error", err))
		socket.Emit("advisoryError", map[string]string{"message": "failed to generate advisory"})
		return
	}

	socket.Emit("advisory", map[string]string{
		"threatId": threatID,
		"briefing": briefing,
	})
}

// socketPublisher fans pipeline output out to every connected client.
type socketPublisher struct {
	server *socketio.Server
}

func (p *socketPublisher) PublishDetection(detection *models.ThreatDetection) error {
	p.server.BroadcastToNamespace("/", "threatDetection", detection)
	return nil
}

func (p *socketPublisher) PublishPredictions(threatID string, predictions []models.SpreadPrediction) error {
	p.server.BroadcastToNamespace("/", "spreadPredictions", map[string]interface{}{
		"threatId":    threatID,
		"predictions": predictions,
	})
	return nil
}
