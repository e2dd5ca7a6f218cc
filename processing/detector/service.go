package processing

import (
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"net/url"
	"sync"
	"time"

	"attendance/internal/models"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const reconnectDelay = 2 * time.Second

// RemoteDetector ships JPEG frames to a model server over a WebSocket and
// receives a JSON array of detections per frame.
type RemoteDetector struct {
	serverURL string

	InputFrames  chan image.Image
	OutputResult chan []models.DetectionResult

	stopOnce sync.Once
	stopChan chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewRemoteDetector(host string) *RemoteDetector {
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}

	return newRemoteDetector(u.String())
}

func newRemoteDetector(serverURL string) *RemoteDetector {
	return &RemoteDetector{
		serverURL:    serverURL,
		InputFrames:  make(chan image.Image, 5),
		OutputResult: make(chan []models.DetectionResult, 5),
		stopChan:     make(chan struct{}),
	}
}

func (d *RemoteDetector) Input() chan<- image.Image               { return d.InputFrames }
func (d *RemoteDetector) Output() <-chan []models.DetectionResult { return d.OutputResult }

func (d *RemoteDetector) Start() {
	go d.runLoop()
}

func (d *RemoteDetector) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopChan)

		d.mu.Lock()
		if d.conn != nil {
			d.conn.Close()
		}
		d.mu.Unlock()
	})
}

func (d *RemoteDetector) stopped() bool {
	select {
	case <-d.stopChan:
		return true
	default:
		return false
	}
}

func (d *RemoteDetector) runLoop() {
	logger := log.WithField("server", d.serverURL)

	for !d.stopped() {
		logger.Info("connecting to detector server")
		conn, _, err := websocket.DefaultDialer.Dial(d.serverURL, nil)
		if err != nil {
			logger.WithError(err).Warnf("connection failed, retrying in %s", reconnectDelay)
			select {
			case <-d.stopChan:
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}

		d.mu.Lock()
		d.conn = conn
		d.mu.Unlock()

		if d.stopped() {
			conn.Close()
			return
		}

		logger.Info("connected to detector server")

		errChan := make(chan error, 2)
		connDone := make(chan struct{})
		go d.writeLoop(conn, connDone, errChan)
		go d.readLoop(conn, errChan)

		select {
		case err = <-errChan:
			logger.WithError(err).Warn("connection lost")
		case <-d.stopChan:
		}
		close(connDone)
		conn.Close()
	}
}

func (d *RemoteDetector) writeLoop(conn *websocket.Conn, done <-chan struct{}, errChan chan<- error) {
	for {
		select {
		case <-done:
			return
		case img := <-d.InputFrames:
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, img, nil); err != nil {
				log.WithError(err).Warn("jpeg encode failed")
				continue
			}

			if err := conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
				errChan <- err
				return
			}
		}
	}
}

func (d *RemoteDetector) readLoop(conn *websocket.Conn, errChan chan<- error) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			errChan <- err
			return
		}

		var results []models.DetectionResult
		if err := json.Unmarshal(message, &results); err != nil {
			log.WithError(err).Warn("invalid detection payload")
			continue
		}

		select {
		case d.OutputResult <- results:
		default:
		}
	}
}
