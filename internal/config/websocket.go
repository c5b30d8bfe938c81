package config

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	Upgrader  websocket.Upgrader
	WriteWait time.Duration
}

func NewWebSocket() (*WebSocket, error) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	writeWait, err := duration("WS_WRITE_WAIT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	ws := &WebSocket{
		Upgrader:  upgrader,
		WriteWait: writeWait,
	}

	return ws, nil
}
