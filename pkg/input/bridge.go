package input

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// touchMessage is the JSON frame the device-side bridge accepts.
type touchMessage struct {
	Type    string `json:"type"`
	Action  string `json:"action"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Pointer int    `json:"pointer"`
}

// BridgeTransport sends touch events as JSON over a websocket to a
// device-side input bridge.
type BridgeTransport struct {
	url    string
	logger *slog.Logger

	wsMu sync.Mutex
	ws   *websocket.Conn

	closeOnce sync.Once
	done      chan struct{}
}

// DialBridge connects to the bridge at url (ws:// or wss://).
func DialBridge(url string, logger *slog.Logger) (*BridgeTransport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("input: dial bridge %s: %w", url, err)
	}

	b := &BridgeTransport{
		url:    url,
		logger: logger,
		ws:     ws,
		done:   make(chan struct{}),
	}

	ws.SetPingHandler(func(appData string) error {
		b.wsMu.Lock()
		defer b.wsMu.Unlock()
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	go b.drain()
	go b.keepAlive()

	return b, nil
}

// PressStart sends a touch-down.
func (b *BridgeTransport) PressStart(x, y, id int) error {
	return b.send("down", x, y, id)
}

// PressMove sends a touch-move.
func (b *BridgeTransport) PressMove(x, y, id int) error {
	return b.send("move", x, y, id)
}

// PressRelease sends a touch-up.
func (b *BridgeTransport) PressRelease(x, y, id int) error {
	return b.send("up", x, y, id)
}

// Close sends a close frame and shuts the connection.
func (b *BridgeTransport) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		b.wsMu.Lock()
		defer b.wsMu.Unlock()
		b.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = b.ws.Close()
		b.ws = nil
	})
	return err
}

func (b *BridgeTransport) send(action string, x, y, id int) error {
	msg := touchMessage{Type: "touch", Action: action, X: x, Y: y, Pointer: id}

	b.wsMu.Lock()
	defer b.wsMu.Unlock()
	if b.ws == nil {
		return ErrNotConnected
	}
	b.ws.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := b.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("input: bridge write: %w", err)
	}
	return nil
}

// drain reads and discards bridge acknowledgements so control frames are processed.
func (b *BridgeTransport) drain() {
	for {
		b.wsMu.Lock()
		ws := b.ws
		b.wsMu.Unlock()
		if ws == nil {
			return
		}
		if _, _, err := ws.ReadMessage(); err != nil {
			select {
			case <-b.done:
			default:
				b.logger.Warn("input bridge read failed", "url", b.url, "error", err)
			}
			return
		}
	}
}

func (b *BridgeTransport) keepAlive() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.wsMu.Lock()
			if b.ws != nil {
				if err := b.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					b.wsMu.Unlock()
					return
				}
			}
			b.wsMu.Unlock()
		}
	}
}
