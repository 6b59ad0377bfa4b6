package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/natadecua/SNOOP/internal/gateway"
	"github.com/natadecua/SNOOP/internal/logging"
	"github.com/natadecua/SNOOP/internal/model"
)

const wsWriteWait = 10 * time.Second

// scanStream serialises writes to one WebSocket connection. After the
// first failed write the peer is considered gone and later events are dropped.
type scanStream struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	broken bool
}

func (st *scanStream) send(ev ScanEvent) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.broken {
		return websocket.ErrCloseSent
	}
	_ = st.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := st.conn.WriteJSON(ev); err != nil {
		st.broken = true
		return err
	}
	return nil
}

// handleRunScanWS godoc
// @Summary Run a scan and stream its output
// @Description Upgrades to a WebSocket, emits one "line" event per output line and a final "result" event.
// @Tags scans
// @Param network query string true "Network range"
// @Param interface query string true "Interface name"
// @Success 101 {object} ScanEvent
// @Router /ws/run-scan [get]
func (s *Server) handleRunScanWS(w http.ResponseWriter, r *http.Request) {
	req := gateway.ScanRequest{
		Network:   r.URL.Query().Get("network"),
		Interface: r.URL.Query().Get("interface"),
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	stream := &scanStream{conn: conn}
	onLine := func(src model.Stream, line string) {
		_ = stream.send(ScanEvent{Type: EventLine, Stream: string(src), Text: line})
	}

	res, err := s.orchestrator.RunScan(r.Context(), req, onLine)

	final := ScanEvent{Type: EventResult, HTTPStatus: statusFor(err), Success: err == nil}
	if res != nil {
		final.ScanID = res.ID
		final.Outcome = res.Outcome
	}
	if err != nil {
		final.Error = err.Error()
	}
	if err := stream.send(final); err != nil {
		s.logger.Info("websocket client left before scan result", logging.F("scan_id", final.ScanID))
		return
	}

	stream.mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "scan finished"),
		time.Now().Add(wsWriteWait))
	stream.mu.Unlock()
}
