package zone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/lgap.go/pkg/lgap"
)

type testTransport struct {
	in      []byte
	written []byte
}

func (t *testTransport) Available() bool { return len(t.in) > 0 }

func (t *testTransport) ReadByte() (byte, error) {
	c := t.in[0]
	t.in = t.in[1:]
	return c, nil
}

func (t *testTransport) Write(p []byte) (int, error) {
	t.written = append(t.written[:0], p...)
	return len(p), nil
}

func (t *testTransport) Flush() error   { return nil }
func (t *testTransport) Discard() error { t.in = nil; return nil }

func TestZoneBuildRequest(t *testing.T) {
	z := New(3, "office").WithPayload([]byte{0xa0, 0xa1})
	req := z.BuildRequest([]byte{0xff}, 9)
	require.Len(t, req, 1+lgap.FrameSize)
	f, err := lgap.ParseFrame(req[1:])
	require.NoError(t, err)
	require.Equal(t, byte(9), f.RequestID())
	require.Equal(t, byte(3), f.Zone())
	require.Equal(t, byte(0xa0), f[1])
	require.Equal(t, byte(0xa1), f[3])
	require.False(t, z.PendingWrite())
}

func TestZoneWrite(t *testing.T) {
	z := New(1, "")
	z.Write([]byte{1, 2, 3})
	require.True(t, z.PendingWrite())
	require.Equal(t, []byte{1, 2, 3}, z.Payload()[:3])
	z.ClearPendingWrite()
	require.False(t, z.PendingWrite())

	f, err := lgap.ParseFrame(z.BuildRequest(nil, 0))
	require.NoError(t, err)
	require.Equal(t, z.Payload(), f.Payload())
}

func TestZoneOnResponse(t *testing.T) {
	at := time.Unix(42, 0)
	z := New(2, "kitchen")
	z.Clock = func() time.Time { return at }
	var got []lgap.Frame
	z.Listener = ListenerFunc(func(updated *Zone, f lgap.Frame) {
		require.True(t, z == updated)
		got = append(got, f)
	})

	_, _, ok := z.Last()
	require.False(t, ok)

	resp := lgap.NewFrame(5, 2, []byte{7})
	z.OnResponse(resp)
	last, lastAt, ok := z.Last()
	require.True(t, ok)
	require.Equal(t, resp, last)
	require.Equal(t, at, lastAt)
	require.Equal(t, uint64(1), z.Updates())
	require.Equal(t, []lgap.Frame{resp}, got)
}

func TestListFind(t *testing.T) {
	zones := List{New(4, "a"), New(lgap.InvalidZone, "b"), New(7, "c")}
	require.Equal(t, 3, zones.Len())
	require.Equal(t, 7, zones.At(2).ZoneID())
	require.Equal(t, "c", zones.Find(7).Name)
	require.Nil(t, zones.Find(5))
}

func TestZonesOnEngine(t *testing.T) {
	var updated []int
	zones := List{New(1, "a"), New(2, "b")}
	zones.SetListener(ListenerFunc(func(z *Zone, f lgap.Frame) {
		updated = append(updated, z.ID)
	}))
	tr := &testTransport{}
	e := lgap.NewEngine(tr, zones)
	e.Timing = lgap.Timing{ReceiveTimeout: time.Second}

	now := time.Unix(1000, 0)
	zones[1].Write([]byte{0x55})
	for n := 0; n < 3; n++ {
		e.Tick(now)
		req, err := lgap.ParseFrame(tr.written)
		require.NoError(t, err)
		resp := lgap.NewFrame(req.RequestID(), req.Zone(), req.Payload())
		tr.in = append(tr.in, resp[:]...)
		for range resp {
			e.Tick(now)
		}
		now = now.Add(time.Millisecond)
	}
	require.Equal(t, []int{2, 1, 2}, updated)
	require.False(t, zones[1].PendingWrite())
	last, _, _ := zones[1].Last()
	require.Equal(t, byte(0x55), last[1])
}
