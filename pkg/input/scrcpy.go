package input

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"
)

// scrcpy control message layout for an injected touch event.
const (
	scrcpyMsgInjectTouch = 2

	scrcpyActionDown = 0
	scrcpyActionUp   = 1
	scrcpyActionMove = 2

	scrcpyTouchLen = 32

	scrcpyPressureFull  = 0xffff
	scrcpyButtonPrimary = 1
)

// ScrcpyTransport writes touch events to a scrcpy server control socket.
type ScrcpyTransport struct {
	addr   string
	width  uint16
	height uint16

	// WriteTimeout bounds each control message write.
	WriteTimeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

// DialScrcpy connects to the control socket at addr. width and height are the
// device screen size the coordinates refer to.
func DialScrcpy(addr string, width, height int) (*ScrcpyTransport, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("input: dial scrcpy control %s: %w", addr, err)
	}
	return NewScrcpyTransport(conn, width, height), nil
}

// NewScrcpyTransport wraps an already established control connection.
func NewScrcpyTransport(conn net.Conn, width, height int) *ScrcpyTransport {
	return &ScrcpyTransport{
		addr:         conn.RemoteAddr().String(),
		width:        uint16(width),
		height:       uint16(height),
		WriteTimeout: 2 * time.Second,
		conn:         conn,
	}
}

// PressStart sends a touch-down.
func (s *ScrcpyTransport) PressStart(x, y, id int) error {
	return s.send(scrcpyActionDown, x, y, id)
}

// PressMove sends a touch-move.
func (s *ScrcpyTransport) PressMove(x, y, id int) error {
	return s.send(scrcpyActionMove, x, y, id)
}

// PressRelease sends a touch-up.
func (s *ScrcpyTransport) PressRelease(x, y, id int) error {
	return s.send(scrcpyActionUp, x, y, id)
}

// Close closes the control socket.
func (s *ScrcpyTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *ScrcpyTransport) send(action byte, x, y, id int) error {
	msg := encodeTouch(action, x, y, id, s.width, s.height)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	if s.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}
	if _, err := s.conn.Write(msg); err != nil {
		return fmt.Errorf("input: scrcpy write to %s: %w", s.addr, err)
	}
	return nil
}

func encodeTouch(action byte, x, y, id int, width, height uint16) []byte {
	buf := make([]byte, scrcpyTouchLen)
	buf[0] = scrcpyMsgInjectTouch
	buf[1] = action
	binary.BigEndian.PutUint64(buf[2:10], uint64(id))
	binary.BigEndian.PutUint32(buf[10:14], uint32(int32(x)))
	binary.BigEndian.PutUint32(buf[14:18], uint32(int32(y)))
	binary.BigEndian.PutUint16(buf[18:20], width)
	binary.BigEndian.PutUint16(buf[20:22], height)

	pressure := uint16(scrcpyPressureFull)
	if action == scrcpyActionUp {
		pressure = 0
	}
	binary.BigEndian.PutUint16(buf[22:24], pressure)
	binary.BigEndian.PutUint32(buf[24:28], scrcpyButtonPrimary)
	binary.BigEndian.PutUint32(buf[28:32], scrcpyButtonPrimary)
	return buf
}
