package input

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
)

func TestEncodeTouch(t *testing.T) {
	msg := encodeTouch(scrcpyActionMove, 640, 360, PointerMove, 1280, 720)

	if len(msg) != scrcpyTouchLen {
		t.Fatalf("len = %d, want %d", len(msg), scrcpyTouchLen)
	}
	if msg[0] != scrcpyMsgInjectTouch {
		t.Errorf("type = %d", msg[0])
	}
	if msg[1] != scrcpyActionMove {
		t.Errorf("action = %d", msg[1])
	}
	if id := binary.BigEndian.Uint64(msg[2:10]); id != PointerMove {
		t.Errorf("pointer = %d", id)
	}
	if x := int32(binary.BigEndian.Uint32(msg[10:14])); x != 640 {
		t.Errorf("x = %d", x)
	}
	if y := int32(binary.BigEndian.Uint32(msg[14:18])); y != 360 {
		t.Errorf("y = %d", y)
	}
	if w := binary.BigEndian.Uint16(msg[18:20]); w != 1280 {
		t.Errorf("width = %d", w)
	}
	if h := binary.BigEndian.Uint16(msg[20:22]); h != 720 {
		t.Errorf("height = %d", h)
	}
	if p := binary.BigEndian.Uint16(msg[22:24]); p != scrcpyPressureFull {
		t.Errorf("pressure = %#x", p)
	}
}

func TestEncodeTouchReleaseHasNoPressure(t *testing.T) {
	msg := encodeTouch(scrcpyActionUp, 1, 1, PointerTap, 10, 10)
	if p := binary.BigEndian.Uint16(msg[22:24]); p != 0 {
		t.Errorf("pressure = %#x, want 0", p)
	}
}

func TestScrcpyTransportWrites(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	tr := NewScrcpyTransport(client, 1168, 540)

	got := make(chan []byte, 3)
	go func() {
		for i := 0; i < 3; i++ {
			buf := make([]byte, scrcpyTouchLen)
			if _, err := io.ReadFull(server, buf); err != nil {
				close(got)
				return
			}
			got <- buf
		}
	}()

	if err := tr.PressStart(10, 20, PointerTap); err != nil {
		t.Fatalf("PressStart: %v", err)
	}
	if err := tr.PressMove(30, 40, PointerTap); err != nil {
		t.Fatalf("PressMove: %v", err)
	}
	if err := tr.PressRelease(30, 40, PointerTap); err != nil {
		t.Fatalf("PressRelease: %v", err)
	}

	wantActions := []byte{scrcpyActionDown, scrcpyActionMove, scrcpyActionUp}
	for i, want := range wantActions {
		msg, ok := <-got
		if !ok {
			t.Fatal("reader stopped early")
		}
		if msg[1] != want {
			t.Errorf("message %d action = %d, want %d", i, msg[1], want)
		}
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tr.PressStart(0, 0, PointerTap); !errors.Is(err, ErrNotConnected) {
		t.Errorf("after Close err = %v, want ErrNotConnected", err)
	}
}
