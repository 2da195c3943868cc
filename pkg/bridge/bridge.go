// Package bridge exposes the zones on the bus over MQTT.
//
// Topics, relative to the queue prefix:
//
//	NAME/meta                 retained JSON Meta, cleared on exit
//	NAME/stats                msgs.BusStats
//	NAME/zones/ZONE/status    retained msgs.ZoneStatus
//	NAME/zones/ZONE/write     msgs.ZoneWrite, consumed
package bridge

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	fx "github.com/robotalks/lgap.go/pkg/framework"
	"github.com/robotalks/lgap.go/pkg/lgap"
	"github.com/robotalks/lgap.go/pkg/mqtt"
	"github.com/robotalks/lgap.go/pkg/msgs"
	"github.com/robotalks/lgap.go/pkg/zone"
)

// Queue is the part of mqtt.Queue used by the bridge.
type Queue interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
	Sub(topic string, handler mqtt.Handler) *mqtt.Subscription
}

// StatsSource provides bus counters.
type StatsSource interface {
	Stats() lgap.Stats
}

// Meta describes the bridge.
type Meta struct {
	ID          string     `json:"id"`
	Description string     `json:"description,omitempty"`
	Port        string     `json:"port,omitempty"`
	Zones       []ZoneMeta `json:"zones"`
}

// ZoneMeta describes a zone.
type ZoneMeta struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// MetaTopic returns the topic of the bridge meta.
func MetaTopic(name string) string { return mqtt.Topic(name, "meta") }

// StatsTopic returns the topic of the bus counters.
func StatsTopic(name string) string { return mqtt.Topic(name, "stats") }

// StatusTopic returns the topic of zone status.
func StatusTopic(name string, zoneID int) string {
	return mqtt.Topic(name, "zones", strconv.Itoa(zoneID), "status")
}

// WriteTopic returns the topic accepting writes to a zone.
func WriteTopic(name string, zoneID int) string {
	return mqtt.Topic(name, "zones", strconv.Itoa(zoneID), "write")
}

// ZoneFromTopic extracts the zone id from a zone topic.
func ZoneFromTopic(name, topic string) (int, bool) {
	rest := strings.TrimPrefix(topic, mqtt.Topic(name, "zones")+"/")
	if rest == topic {
		return 0, false
	}
	idStr := rest
	if pos := strings.Index(rest, "/"); pos >= 0 {
		idStr = rest[:pos]
	}
	id, err := strconv.Atoi(idStr)
	return id, err == nil
}

// Bridge publishes zone responses and applies writes received over MQTT.
type Bridge struct {
	Queue         Queue
	Name          string
	Zones         zone.List
	Stats         StatsSource
	StatsInterval time.Duration
	Meta          Meta

	statuses  []*msgs.ZoneStatus
	lastStats time.Time
}

// New creates a Bridge and listens on all zones.
func New(q Queue, name string, zones zone.List) *Bridge {
	b := &Bridge{
		Queue:         q,
		Name:          name,
		Zones:         zones,
		StatsInterval: 10 * time.Second,
		Meta:          Meta{ID: name},
	}
	for _, z := range zones {
		b.Meta.Zones = append(b.Meta.Zones, ZoneMeta{ID: z.ID, Name: z.Name})
	}
	zones.SetListener(b)
	return b
}

// ConfigureClient sets the last will clearing the meta and a default
// client id. Must be called before the client is created.
func ConfigureClient(opts *paho.ClientOptions, topicPrefix, name string) {
	opts.SetBinaryWill(topicPrefix+MetaTopic(name), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("lgap:" + name)
	}
}

// AddToLoop implements LoopAdder.
func (b *Bridge) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvInput, fx.ControlFunc(b.applyWrites))
	loop.AddController(fx.PrLvOutput, fx.ControlFunc(b.publish))
	loop.AddRunnable(fx.NamedRun("bridge", b))
}

// Run implements Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.Queue.Sub(mqtt.Topic(b.Name, "zones", "+", "write"), b.writeHandler(fx.LoopCtlFrom(ctx)))
	<-ctx.Done()
	if sub != nil {
		sub.Close()
	}
	b.Queue.PubWith(MetaTopic(b.Name), nil, 1, true)
	return nil
}

// PublishMeta publishes the retained meta, usually on connect.
func (b *Bridge) PublishMeta() {
	data, err := json.Marshal(&b.Meta)
	if err != nil {
		glog.Errorf("encode meta: %v", err)
		return
	}
	b.Queue.PubWith(MetaTopic(b.Name), data, 1, true)
}

// ZoneUpdated implements zone.Listener.
func (b *Bridge) ZoneUpdated(z *zone.Zone, f lgap.Frame) {
	_, at, _ := z.Last()
	b.statuses = append(b.statuses, &msgs.ZoneStatus{
		Zone:      uint32(z.ID),
		Name:      z.Name,
		RequestId: uint32(f.RequestID()),
		Frame:     f.Bytes(),
		Timestamp: at.UnixNano() / int64(time.Millisecond),
		Updates:   z.Updates(),
	})
}

func (b *Bridge) writeHandler(lc fx.LoopControl) mqtt.Handler {
	return func(topic string, payload []byte) {
		zoneID, ok := ZoneFromTopic(b.Name, topic)
		if !ok {
			glog.Warningf("write on %q: bad zone", topic)
			return
		}
		msg, err := msgs.Decode(payload)
		if err != nil {
			glog.Warningf("write on %q: %v", topic, err)
			return
		}
		write, ok := msg.(*msgs.ZoneWrite)
		if !ok {
			glog.Warningf("write on %q: unexpected %T", topic, msg)
			return
		}
		if int(write.Zone) != zoneID {
			glog.Warningf("write on %q: zone %d mismatch", topic, write.Zone)
			return
		}
		lc.PostMessage(write)
		lc.TriggerNext()
	}
}

func (b *Bridge) applyWrites(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		write, ok := mc.CurrentMessage().(*msgs.ZoneWrite)
		if !ok {
			return
		}
		mc.MessageTaken()
		z := b.Zones.Find(int(write.Zone))
		if z == nil {
			glog.Warningf("write to unknown zone %d", write.Zone)
			return
		}
		glog.V(1).Infof("write zone %d: % x", z.ID, write.Payload)
		z.Write(write.Payload)
	}))
	return nil
}

func (b *Bridge) publish(cc fx.ControlContext) error {
	for _, status := range b.statuses {
		b.pub(StatusTopic(b.Name, int(status.Zone)), status, true)
	}
	b.statuses = b.statuses[:0]

	if b.Stats != nil && b.StatsInterval > 0 {
		if now := cc.Time(); b.lastStats.IsZero() || now.Sub(b.lastStats) >= b.StatsInterval {
			b.lastStats = now
			s := b.Stats.Stats()
			b.pub(StatsTopic(b.Name), &msgs.BusStats{
				Requests:       s.Requests,
				Writes:         s.Writes,
				Responses:      s.Responses,
				Stale:          s.Stale,
				Timeouts:       s.Timeouts,
				FramingErrors:  s.FramingErrors,
				ChecksumErrors: s.ChecksumErrors,
				WriteErrors:    s.WriteErrors,
			}, false)
		}
	}
	return nil
}

// pub never waits for the token, the loop must not block on the broker.
func (b *Bridge) pub(topic string, msg msgs.Message, retain bool) {
	data, err := msgs.Encode(msg)
	if err != nil {
		glog.Errorf("encode %s: %v", topic, err)
		return
	}
	b.Queue.PubWith(topic, data, 0, retain)
}
