package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/teslashibe/go-dungeon/internal/log"
	"github.com/teslashibe/go-dungeon/pkg/engine"
)

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient implements the parts of mqtt.Client the emitter uses.
type fakeClient struct {
	mqtt.Client

	connected bool
	token     *fakeToken
	msgs      []published
}

func (c *fakeClient) IsConnected() bool { return c.connected }
func (c *fakeClient) Disconnect(uint)   { c.connected = false }
func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.msgs = append(c.msgs, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return c.token
}

func TestMQTTEmitter(t *testing.T) {
	client := &fakeClient{connected: true, token: &fakeToken{}}
	em := NewMQTTEmitter(DefaultMQTTConfig(), client, log.Discard())

	ev := New(RoomEntered, "run-1", "wu_shen", 3, time.Unix(0, 0))
	if err := em.Emit(ev); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(client.msgs) != 1 {
		t.Fatalf("published %d messages", len(client.msgs))
	}
	msg := client.msgs[0]
	if msg.topic != "dungeon/events/room_entered" || msg.qos != 1 {
		t.Errorf("topic/qos = %s/%d", msg.topic, msg.qos)
	}
	var got Event
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.ID != ev.ID || got.Room != 3 || got.Hero != "wu_shen" {
		t.Errorf("payload = %+v", got)
	}
	if em.Stats().Published["dungeon/events/room_entered"] != 1 {
		t.Errorf("Stats = %+v", em.Stats())
	}
}

func TestMQTTEmitterErrors(t *testing.T) {
	boom := errors.New("broker said no")
	tests := []struct {
		name   string
		client *fakeClient
		want   error
	}{
		{"disconnected", &fakeClient{token: &fakeToken{}}, ErrNotConnected},
		{"publish error", &fakeClient{connected: true, token: &fakeToken{err: boom}}, boom},
		{"timeout", &fakeClient{connected: true, token: &fakeToken{timeout: true}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			em := NewMQTTEmitter(DefaultMQTTConfig(), tt.client, log.Discard())
			err := em.Emit(New(Reward, "r", "axl", 1, time.Now()))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if em.Stats().Errors != 1 {
				t.Errorf("Errors = %d", em.Stats().Errors)
			}
		})
	}
}

func TestMulti(t *testing.T) {
	var got []Type
	ok := EmitterFunc(func(e Event) error { got = append(got, e.Type); return nil })
	bad := EmitterFunc(func(Event) error { return errors.New("down") })

	err := Multi{ok, bad, ok, NewLogEmitter(log.Discard())}.Emit(New(Retry, "r", "axl", 0, time.Now()))
	if err == nil {
		t.Error("expected joined error")
	}
	if len(got) != 2 {
		t.Errorf("delivered to %d emitters, want 2", len(got))
	}
}

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) Emit(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collector) types() []Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Type, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

func snap(action engine.Action, runID string, room int) engine.Snapshot {
	return engine.Snapshot{
		Hero:    "nai_ma",
		Dungeon: "bwj",
		Action:  action,
		State:   engine.RunState{RunID: runID, Room: room},
	}
}

func TestObserverMilestones(t *testing.T) {
	c := &collector{}
	o := NewObserver(c, 16, log.Discard())

	o.Observe(snap(engine.ActionNone, "a", 0))
	o.Observe(snap(engine.ActionFight, "a", 0))
	o.Observe(snap(engine.ActionRoomEntered, "a", 1))
	o.Observe(snap(engine.ActionReward, "a", 1))
	o.Observe(snap(engine.ActionComplete, "a", 1))
	o.Observe(snap(engine.ActionRetry, "b", 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o.Run(ctx)

	want := []Type{RunStarted, RoomEntered, Reward, RunCompleted, Retry, RunStarted}
	got := c.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	if c.events[5].RunID != "b" || c.events[1].Room != 1 || c.events[0].Dungeon != "bwj" {
		t.Errorf("event fields wrong: %+v", c.events)
	}
}

func TestObserverDropsWhenFull(t *testing.T) {
	o := NewObserver(&collector{}, 1, log.Discard())
	o.Observe(snap(engine.ActionReward, "a", 0))
	if o.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", o.Dropped())
	}
}
