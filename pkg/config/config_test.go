package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/lgap.go/pkg/hw"
	"github.com/robotalks/lgap.go/pkg/lgap"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadZonesYAML(t *testing.T) {
	path := writeFile(t, "zones.yaml", `
zones:
  - id: 1
    name: office
    payload: "01 02 03"
  - id: 2
    name: bedroom
`)
	zones, err := LoadZones(path)
	require.NoError(t, err)
	require.Equal(t, []ZoneConfig{
		{ID: 1, Name: "office", Payload: "01 02 03"},
		{ID: 2, Name: "bedroom"},
	}, zones)
}

func TestLoadZonesTOML(t *testing.T) {
	path := writeFile(t, "zones.toml", `
[[zones]]
id = 4
name = "kitchen"
payload = "aa:bb"

[[zones]]
id = -1
`)
	zones, err := LoadZones(path)
	require.NoError(t, err)
	require.Equal(t, []ZoneConfig{
		{ID: 4, Name: "kitchen", Payload: "aa:bb"},
		{ID: lgap.InvalidZone},
	}, zones)
}

func TestLoadZonesErrors(t *testing.T) {
	_, err := LoadZones(writeFile(t, "zones.json", `{}`))
	require.Error(t, err)
	_, err = LoadZones(writeFile(t, "zones.yml", "zones: [oops"))
	require.Error(t, err)
	_, err = LoadZones(writeFile(t, "zones.toml", "[[zones]\n"))
	require.Error(t, err)
	_, err = LoadZones(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload("01 02:0a")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 0x0a}, p)

	p, err = DecodePayload("")
	require.NoError(t, err)
	require.Empty(t, p)

	_, err = DecodePayload("zz")
	require.Error(t, err)
	_, err = DecodePayload("00112233445566778899aabbcc")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	conf := NewConfig()
	conf.Zones = []ZoneConfig{{ID: 1}, {ID: -1}, {ID: -1}, {ID: 2}}
	require.NoError(t, conf.Validate())
	conf.LoopWait, conf.ZoneCheckWait = 0, 0
	require.NoError(t, conf.Validate())
	conf.LoopWait = -time.Millisecond
	require.Error(t, conf.Validate())
	conf.LoopWait = 0

	conf.Port = ""
	conf.FlowControl = "magic"
	conf.ReceiveTimeout = 0
	conf.TickInterval = -time.Second
	conf.Zones = []ZoneConfig{{ID: 1}, {ID: 1}, {ID: 256}, {ID: 3, Payload: "x"}}
	err := conf.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, expect := range []string{
		"serial port is required",
		`unknown flow control "magic"`,
		"receive timeout",
		"tick interval",
		"zone[1]: duplicated id 1",
		"zone[2]: id 256 out of range",
		"zone[3]: payload",
	} {
		require.Contains(t, msg, expect)
	}

	conf = NewConfig()
	conf.FlowControl = FlowGPIO
	conf.GPIOLine = -1
	require.Error(t, conf.Validate())
	conf.GPIOLine = 17
	require.NoError(t, conf.Validate())
}

func TestNewConfigCopiesDefaults(t *testing.T) {
	conf := NewConfig()
	conf.Port = "/dev/other"
	conf.Zones = append(conf.Zones, ZoneConfig{ID: 1})
	require.NotEqual(t, conf.Port, Default().Port)
	require.Empty(t, Default().Zones)
	require.Equal(t, hw.BaudRate, conf.BaudRate)
	require.Equal(t, lgap.DefaultTiming(), NewConfig().Timing())
}

func TestLoadAndBuild(t *testing.T) {
	conf := NewConfig()
	conf.ZonesFile = writeFile(t, "zones.yaml", `
zones:
  - id: 3
    name: office
    payload: "7f"
  - id: 5
`)
	require.NoError(t, conf.Load())
	zones, err := conf.BuildZones()
	require.NoError(t, err)
	require.Equal(t, 2, zones.Len())
	require.Equal(t, "office", zones.Find(3).Name)
	require.Equal(t, byte(0x7f), zones.Find(3).Payload()[0])
	require.False(t, zones.Find(3).PendingWrite())

	e := conf.NewEngine(nil, nil, zones)
	require.Equal(t, conf.Timing(), e.Timing)
	require.True(t, e.WritePriority)
	require.Nil(t, e.FlowControl)
}

type testSerialPort struct {
	rts []bool
}

func (p *testSerialPort) Read([]byte) (int, error)    { return 0, nil }
func (p *testSerialPort) Write(b []byte) (int, error) { return len(b), nil }
func (p *testSerialPort) Close() error                { return nil }
func (p *testSerialPort) Drain() error                { return nil }
func (p *testSerialPort) ResetInputBuffer() error     { return nil }
func (p *testSerialPort) SetRTS(on bool) error {
	p.rts = append(p.rts, on)
	return nil
}

func TestOpenFlowControl(t *testing.T) {
	sp := &testSerialPort{}
	port := hw.NewPort("test", sp)
	conf := NewConfig()

	fc, closer, err := conf.OpenFlowControl(port)
	require.NoError(t, err)
	require.Nil(t, fc)
	require.Nil(t, closer)

	conf.FlowControl = FlowRTSInverted
	fc, closer, err = conf.OpenFlowControl(port)
	require.NoError(t, err)
	require.Nil(t, closer)
	require.NoError(t, fc.SetTransmit(true))
	require.Equal(t, []bool{true, false}, sp.rts)

	conf.FlowControl = "magic"
	_, _, err = conf.OpenFlowControl(port)
	require.Error(t, err)
}

func TestNewQueue(t *testing.T) {
	conf := NewConfig()
	conf.MQTTBrokerURL = ""
	q, err := conf.NewQueue()
	require.NoError(t, err)
	require.Nil(t, q)

	conf.MQTTBrokerURL = "mqtt://localhost:1883/home/"
	conf.Name = "lgap/test"
	q, err = conf.NewQueue()
	require.NoError(t, err)
	require.Equal(t, "home/", q.TopicPrefix)
}
