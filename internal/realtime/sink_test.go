package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(finished bool, err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if finished {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool { <-t.done; return true }

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient records publishes; every other mqtt.Client method is unused
type fakeClient struct {
	mqtt.Client
	sent  []published
	token *fakeToken
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return c.token
}

var sinkTime = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

func tripEvent() Event {
	return Event{UserID: "user-1", DeviceID: "phone", Trip: &TripEvent{
		Kind: TripStarted, Latitude: 52.52, Longitude: 13.405, Timestamp: sinkTime,
	}}
}

func regionEvent() Event {
	return Event{UserID: "user-1", DeviceID: "phone", Region: &RegionTransition{
		RegionID: "office", Kind: TransitionExit, Latitude: 52.5, Longitude: 13.3, Timestamp: sinkTime,
	}}
}

func testMQTTSink(token *fakeToken) (*MQTTSink, *fakeClient) {
	client := &fakeClient{token: token}
	cfg := DefaultMQTTConfig()
	cfg.Timeout = 20 * time.Millisecond
	return &MQTTSink{client: client, cfg: cfg, logger: zap.NewNop()}, client
}

func TestMQTTTopic(t *testing.T) {
	s, _ := testMQTTSink(nil)
	assert.Equal(t, "trailglass/user-1/trips", s.Topic(tripEvent()))
	assert.Equal(t, "trailglass/user-1/regions", s.Topic(regionEvent()))

	s.cfg.TopicPrefix = "home/live"
	assert.Equal(t, "home/live/user-1/regions", s.Topic(regionEvent()))
}

func TestMQTTPublishPayload(t *testing.T) {
	s, client := testMQTTSink(newFakeToken(true, nil))

	require.NoError(t, s.Publish(context.Background(), tripEvent()))
	require.NoError(t, s.Publish(context.Background(), regionEvent()))
	require.Len(t, client.sent, 2)

	trip := client.sent[0]
	assert.Equal(t, "trailglass/user-1/trips", trip.topic)
	assert.Equal(t, byte(1), trip.qos)
	assert.JSONEq(t, `{
		"userId": "user-1",
		"deviceId": "phone",
		"trip": {"kind": "TRIP_STARTED", "latitude": 52.52, "longitude": 13.405, "timestamp": "2024-06-03T09:30:00Z"}
	}`, string(trip.payload))

	var region map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(client.sent[1].payload, &region))
	assert.NotContains(t, region, "trip")
	assert.JSONEq(t, `{"regionId": "office", "kind": "EXIT", "latitude": 52.5, "longitude": 13.3, "timestamp": "2024-06-03T09:30:00Z"}`,
		string(region["region"]))
}

func TestMQTTPublishFailures(t *testing.T) {
	broker := errors.New("not authorized")
	s, _ := testMQTTSink(newFakeToken(true, broker))
	assert.ErrorIs(t, s.Publish(context.Background(), tripEvent()), broker)

	s, _ = testMQTTSink(newFakeToken(false, nil))
	assert.ErrorContains(t, s.Publish(context.Background(), tripEvent()), "timeout")

	s.cfg.Timeout = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Publish(ctx, tripEvent()), context.Canceled)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewLogSink(zap.New(core))

	require.NoError(t, s.Publish(context.Background(), tripEvent()))
	require.NoError(t, s.Publish(context.Background(), regionEvent()))

	entries := logs.All()
	require.Len(t, entries, 2)
	trip := entries[0].ContextMap()
	assert.Equal(t, "Live event", entries[0].Message)
	assert.Equal(t, "user-1", trip["user_id"])
	assert.Equal(t, "TRIP_STARTED", trip["kind"])
	assert.Equal(t, 52.52, trip["latitude"])

	region := entries[1].ContextMap()
	assert.Equal(t, "EXIT", region["kind"])
	assert.Equal(t, "office", region["region_id"])

	assert.NoError(t, NewLogSink(nil).Publish(context.Background(), tripEvent()))
}
