package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/lgap.go/pkg/framework"
	"github.com/robotalks/lgap.go/pkg/lgap"
	"github.com/robotalks/lgap.go/pkg/mqtt"
	"github.com/robotalks/lgap.go/pkg/msgs"
	"github.com/robotalks/lgap.go/pkg/zone"
)

type testPub struct {
	topic   string
	payload []byte
	qos     byte
	retain  bool
}

type testQueue struct {
	pubs []testPub
	subs []string
}

func (q *testQueue) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	q.pubs = append(q.pubs, testPub{topic: topic, payload: payload, qos: qos, retain: retain})
	return &paho.DummyToken{}
}

func (q *testQueue) Sub(topic string, handler mqtt.Handler) *mqtt.Subscription {
	q.subs = append(q.subs, topic)
	return nil
}

type testStats lgap.Stats

func (s testStats) Stats() lgap.Stats { return lgap.Stats(s) }

var testNow = time.Unix(1700000000, 0)

func newTestBridge() (*Bridge, *testQueue, *fx.Loop) {
	zones := zone.List{zone.New(1, "office"), zone.New(3, "bedroom")}
	for _, z := range zones {
		z.Clock = func() time.Time { return testNow }
	}
	q := &testQueue{}
	b := New(q, "lgap/test", zones)
	loop := fx.NewLoop()
	loop.Clock = func() time.Time { return testNow }
	loop.AddController(fx.PrLvInput, fx.ControlFunc(b.applyWrites))
	loop.AddController(fx.PrLvOutput, fx.ControlFunc(b.publish))
	return b, q, loop
}

func TestTopics(t *testing.T) {
	require.Equal(t, "lgap/a/meta", MetaTopic("lgap/a"))
	require.Equal(t, "lgap/a/stats", StatsTopic("lgap/a"))
	require.Equal(t, "lgap/a/zones/3/status", StatusTopic("lgap/a", 3))
	require.Equal(t, "lgap/a/zones/0/write", WriteTopic("lgap/a", 0))

	id, ok := ZoneFromTopic("lgap/a", "lgap/a/zones/12/write")
	require.True(t, ok)
	require.Equal(t, 12, id)
	_, ok = ZoneFromTopic("lgap/a", "lgap/a/zones/x/write")
	require.False(t, ok)
	_, ok = ZoneFromTopic("lgap/a", "lgap/b/zones/1/write")
	require.False(t, ok)
}

func TestBridgePublishesStatus(t *testing.T) {
	b, q, loop := newTestBridge()
	resp := lgap.NewFrame(7, 3, []byte{0x21})
	b.Zones[1].OnResponse(resp)
	loop.RunOnce(context.Background())

	require.Len(t, q.pubs, 1)
	pub := q.pubs[0]
	require.Equal(t, "lgap/test/zones/3/status", pub.topic)
	require.True(t, pub.retain)
	msg, err := msgs.Decode(pub.payload)
	require.NoError(t, err)
	require.Equal(t, &msgs.ZoneStatus{
		Zone:      3,
		Name:      "bedroom",
		RequestId: 7,
		Frame:     resp.Bytes(),
		Timestamp: testNow.Unix() * 1000,
		Updates:   1,
	}, msg)

	q.pubs = nil
	loop.RunOnce(context.Background())
	require.Empty(t, q.pubs)
}

func TestBridgeAppliesWrites(t *testing.T) {
	b, _, loop := newTestBridge()
	h := b.writeHandler(loop)

	data, err := msgs.Encode(&msgs.ZoneWrite{Zone: 1, Payload: []byte{0x0a, 0x0b}})
	require.NoError(t, err)
	h("lgap/test/zones/1/write", data)
	require.False(t, b.Zones[0].PendingWrite())

	loop.RunOnce(context.Background())
	require.True(t, b.Zones[0].PendingWrite())
	require.Equal(t, []byte{0x0a, 0x0b}, b.Zones[0].Payload()[:2])
	require.False(t, b.Zones[1].PendingWrite())
}

func TestBridgeRejectsBadWrites(t *testing.T) {
	b, _, loop := newTestBridge()
	h := b.writeHandler(loop)

	mismatch, err := msgs.Encode(&msgs.ZoneWrite{Zone: 3})
	require.NoError(t, err)
	unknown, err := msgs.Encode(&msgs.ZoneWrite{Zone: 9})
	require.NoError(t, err)
	status, err := msgs.Encode(&msgs.ZoneStatus{Zone: 1})
	require.NoError(t, err)

	h("lgap/test/zones/1/write", mismatch)
	h("lgap/test/zones/9/write", unknown)
	h("lgap/test/zones/1/write", status)
	h("lgap/test/zones/1/write", []byte{0xff})
	h("lgap/test/zones/1/write", nil)
	loop.RunOnce(context.Background())
	for _, z := range b.Zones {
		require.False(t, z.PendingWrite())
	}
}

func TestBridgePublishesStats(t *testing.T) {
	b, q, loop := newTestBridge()
	b.Stats = testStats{Requests: 5, Responses: 4, Timeouts: 1}
	b.StatsInterval = time.Second

	loop.RunOnce(context.Background())
	require.Len(t, q.pubs, 1)
	require.Equal(t, "lgap/test/stats", q.pubs[0].topic)
	msg, err := msgs.Decode(q.pubs[0].payload)
	require.NoError(t, err)
	require.Equal(t, &msgs.BusStats{Requests: 5, Responses: 4, Timeouts: 1}, msg)

	loop.RunOnce(context.Background())
	require.Len(t, q.pubs, 1)

	loop.Clock = func() time.Time { return testNow.Add(time.Second) }
	loop.RunOnce(context.Background())
	require.Len(t, q.pubs, 2)
}

func TestBridgeMeta(t *testing.T) {
	b, q, _ := newTestBridge()
	b.Meta.Port = "/dev/ttyUSB0"
	b.PublishMeta()
	require.Len(t, q.pubs, 1)
	require.Equal(t, "lgap/test/meta", q.pubs[0].topic)
	require.True(t, q.pubs[0].retain)
	var meta Meta
	require.NoError(t, json.Unmarshal(q.pubs[0].payload, &meta))
	require.Equal(t, Meta{
		ID:    "lgap/test",
		Port:  "/dev/ttyUSB0",
		Zones: []ZoneMeta{{ID: 1, Name: "office"}, {ID: 3, Name: "bedroom"}},
	}, meta)
}

func TestBridgeRunClearsMeta(t *testing.T) {
	b, q, loop := newTestBridge()
	ctx, cancel := context.WithCancel(context.Background())
	loop.AddRunnable(b)
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.Equal(t, []string{"lgap/test/zones/+/write"}, q.subs)
	last := q.pubs[len(q.pubs)-1]
	require.Equal(t, "lgap/test/meta", last.topic)
	require.Nil(t, last.payload)
}
