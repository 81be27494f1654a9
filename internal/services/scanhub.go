package services

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type ScanEvent struct {
	HistoryID    string    `json:"historyId"`
	ActivityID   string    `json:"activityId"`
	ActivityName string    `json:"activityName"`
	StdCode      string    `json:"stdCode"`
	StudentName  string    `json:"studentName"`
	Code         string    `json:"code"`
	Hours        float64   `json:"hours"`
	Manual       bool      `json:"manual"`
	ScannedAt    time.Time `json:"scannedAt"`
}

// ScanHub fans successful redemptions out to websocket subscribers. A
// subscriber registered with an activity id only sees that activity's scans.
type ScanHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string
	ch      chan ScanEvent
}

func NewScanHub() *ScanHub {
	return &ScanHub{
		clients: map[*websocket.Conn]string{},
		ch:      make(chan ScanEvent, 64),
	}
}

func (h *ScanHub) Run(ctx context.Context) {
	for {
		select {
		case event := <-h.ch:
			h.deliver(event)
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *ScanHub) deliver(event ScanEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, activityID := range h.clients {
		if activityID != "" && activityID != event.ActivityID {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Publish never blocks; events are dropped when the buffer is full.
func (h *ScanHub) Publish(event ScanEvent) {
	if h == nil {
		return
	}
	select {
	case h.ch <- event:
	default:
	}
}

func (h *ScanHub) Add(conn *websocket.Conn, activityID string) {
	h.mu.Lock()
	h.clients[conn] = activityID
	h.mu.Unlock()
}

func (h *ScanHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *ScanHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
