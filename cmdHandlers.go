package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agridefender/advisory"
	"agridefender/db"
	"agridefender/models"
	"agridefender/utils"
	"agridefender/weather"
	"agridefender/worker"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/mdobak/go-xerrors"
)

type apiError struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

func newSensorReadingHandler(pipeline *worker.Worker) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var reading models.SensorReading
		if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
			logger.ErrorContext(ctx, "failed to parse request body", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid sensor payload")
			return
		}
		if reading.SensorID == "" {
			writeJSONError(w, http.StatusBadRequest, "sensor_id is required")
			return
		}

		detection, err := pipeline.ProcessReading(&reading)
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "failed to process sensor reading", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to process reading")
			return
		}

		if detection == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"threat": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"threat":    true,
			"detection": detection,
		})
	}
}

func newDetectionsHandler(store db.Client) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		// Optional spatial filter: ?lat=..&lng=..&radius_km=..
		query := r.URL.Query()
		if query.Get("lat") != "" && query.Get("lng") != "" {
			lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
			lng, lngErr := strconv.ParseFloat(query.Get("lng"), 64)
			if latErr != nil || lngErr != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid coordinates")
				return
			}
			radiusKm := 10.0
			if raw := query.Get("radius_km"); raw != "" {
				parsed, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					writeJSONError(w, http.StatusBadRequest, "invalid radius")
					return
				}
				radiusKm = parsed
			}

			detections, err := store.GetDetectionsByLocation(lat, lng, radiusKm)
			if err != nil {
				logger.ErrorContext(ctx, "failed to query detections by location", slog.Any("error", err))
				writeJSONError(w, http.StatusInternalServerError, "failed to load detections")
				return
			}
			writeJSON(w, http.StatusOK, detections)
			return
		}

		detections, err := store.GetAllDetections()
		if err != nil {
			logger.ErrorContext(ctx, "failed to load detections", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load detections")
			return
		}
		writeJSON(w, http.StatusOK, detections)
	}
}

func newPredictionsHandler(store db.Client) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		threatID := r.URL.Query().Get("threat_id")
		if threatID == "" {
			writeJSONError(w, http.StatusBadRequest, "threat_id is required")
			return
		}

		predictions, err := store.GetPredictionsByThreat(threatID)
		if err != nil {
			logger.ErrorContext(ctx, "failed to load predictions", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load predictions")
			return
		}
		writeJSON(w, http.StatusOK, predictions)
	}
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	store, err := db.NewClient()
	if err != nil {
		log.Fatalf("failed to open detection store: %v", err)
	}
	defer store.Close()

	weatherClient := weather.NewClient("")
	if err := weatherClient.HealthCheck(); err != nil {
		log.Printf("WARNING: %v\n", err)
		log.Println("The server will start but spread predictions will use default weather conditions.")
	} else {
		log.Println("Weather service is available")
	}

	var advisor *advisory.GeminiClient
	if strings.EqualFold(utils.GetEnv("ADVISORY_ENABLED", "true"), "true") {
		advisor, err = advisory.NewGeminiClient()
		if err != nil {
			log.Printf("Advisory service disabled: %v\n", err)
			advisor = nil
		}
	}

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	pipeline := worker.New(store, weatherClient, &socketPublisher{server: server})
	if err := pipeline.StartStatsJob(); err != nil {
		log.Printf("Failed to start stats job: %v\n", err)
	}
	defer pipeline.StopStatsJob()

	controller := newSocketController(pipeline, store, advisor)

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		connURL := socket.URL()
		log.Printf("CONNECTED: %s, transport: %s, remote addr: %s\n", socket.ID(), connURL.String(), socket.RemoteAddr())
		controller.emitSystemInfo(socket)
		return nil
	})

	server.OnEvent("/", "requestSystemInfo", func(socket socketio.Conn) {
		controller.emitSystemInfo(socket)
	})

	server.OnEvent("/", "newSensorReading", func(socket socketio.Conn, msg string) {
		log.Printf("=== newSensorReading event received from %s, data length: %d ===\n", socket.ID(), len(msg))
		// Run handler in goroutine to prevent blocking, with panic recovery
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic in handleNewSensorReading for socket %s: %v\n", socket.ID(), r)
					socket.Emit("processingError", map[string]string{"message": "internal server error during processing"})
				}
			}()
			controller.handleNewSensorReading(socket, msg)
		}()
	})

	server.OnEvent("/", "requestAdvisory", func(socket socketio.Conn, threatID string) {
		go controller.handleRequestAdvisory(socket, threatID)
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	serveHTTPS := protocol == "https"

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/readings", newSensorReadingHandler(pipeline))
	mux.HandleFunc("/api/detections", newDetectionsHandler(store))
	mux.HandleFunc("/api/predictions", newPredictionsHandler(store))
	mux.Handle("/", http.FileServer(http.Dir("static")))

	serveHTTP(server, serveHTTPS, port, mux)
}

func serveHTTP(socketServer *socketio.Server, serveHTTPS bool, port string, handler http.Handler) {
	if handler == nil {
		handler = socketServer
	}
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		cert_key := utils.GetEnv("CERT_KEY", "")
		cert_file := utils.GetEnv("CERT_FILE", "")
		if cert_key == "" || cert_file == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(cert_file, cert_key); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}
