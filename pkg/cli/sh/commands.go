package sh

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/lgap.go/pkg/bridge"
	"github.com/robotalks/lgap.go/pkg/config"
	"github.com/robotalks/lgap.go/pkg/mqtt"
	"github.com/robotalks/lgap.go/pkg/msgs"
)

const metaFilter = "#"

func metaTopicOf(name string) string {
	return bridge.MetaTopic(name)
}

// FormatMeta prints bridge meta into friendly string for display.
func FormatMeta(meta bridge.Meta) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", meta.ID)
	if meta.Description != "" {
		fmt.Fprintf(&w, ": %s", meta.Description)
	}
	if meta.Port != "" {
		fmt.Fprintf(&w, " on %s", meta.Port)
	}
	fmt.Fprintf(&w, ", %d zones", len(meta.Zones))
	return w.String()
}

// FormatStatus prints zone status into friendly string for display.
func FormatStatus(st *msgs.ZoneStatus, now time.Time) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "zone %3d", st.Zone)
	if st.Name != "" {
		fmt.Fprintf(&w, " %-12s", st.Name)
	}
	fmt.Fprintf(&w, " req=%3d % x", st.RequestId, st.Frame)
	if st.Timestamp > 0 {
		at := time.Unix(0, st.Timestamp*int64(time.Millisecond))
		fmt.Fprintf(&w, " (%v ago)", now.Sub(at).Truncate(time.Millisecond))
	}
	return w.String()
}

// FormatStats prints bus counters.
func FormatStats(st *msgs.BusStats) string {
	return fmt.Sprintf("requests=%d writes=%d responses=%d stale=%d timeouts=%d framing=%d checksum=%d write-errors=%d",
		st.Requests, st.Writes, st.Responses, st.Stale, st.Timeouts,
		st.FramingErrors, st.ChecksumErrors, st.WriteErrors)
}

// ParseWriteArgs parses "ZONE HEX..." into a write.
func ParseWriteArgs(args []string) (*msgs.ZoneWrite, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("ZONE and PAYLOAD expected")
	}
	zoneID, err := strconv.Atoi(args[0])
	if err != nil || zoneID < 0 || zoneID > 255 {
		return nil, fmt.Errorf("invalid zone %q", args[0])
	}
	payload, err := config.DecodePayload(strings.Join(args[1:], ""))
	if err != nil {
		return nil, err
	}
	return &msgs.ZoneWrite{Zone: uint32(zoneID), Payload: payload}, nil
}

var (
	// BridgesCmd lists bridges.
	BridgesCmd = ishell.Cmd{
		Name:    "bridges",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var metas []bridge.Meta
			err := s.Collect(metaFilter, func(topic string, payload []byte) {
				if !strings.HasSuffix(topic, "/meta") || len(payload) == 0 {
					return
				}
				var meta bridge.Meta
				if json.Unmarshal(payload, &meta) == nil {
					metas = append(metas, meta)
				}
			})
			if err != nil {
				c.Err(err)
				return
			}
			sort.Slice(metas, func(i, j int) bool { return metas[i].ID < metas[j].ID })
			if s.OutputJSON {
				if metas == nil {
					metas = []bridge.Meta{}
				}
				s.Print(c, metas, nil)
				return
			}
			if len(metas) == 0 {
				c.Println("No bridges found")
				return
			}
			for _, meta := range metas {
				c.Println(FormatMeta(meta))
			}
		},
	}

	// UseCmd selects a bridge.
	UseCmd = ishell.Cmd{
		Name:    "use",
		Aliases: []string{"u"},
		Help:    "NAME",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("NAME expected"))
				return
			}
			ShellFrom(c).Use(c.Args[0])
		},
	}

	// ZonesCmd prints the last status of all zones.
	ZonesCmd = ishell.Cmd{
		Name:    "zones",
		Aliases: []string{"z"},
		Help:    "",
		Func: MustSelectBridge(func(c *ishell.Context) {
			s := ShellFrom(c)
			statuses := make(map[uint32]*msgs.ZoneStatus)
			err := s.Collect(mqtt.Topic(s.Name, "zones", "+", "status"), func(topic string, payload []byte) {
				if msg, err := msgs.Decode(payload); err == nil {
					if st, ok := msg.(*msgs.ZoneStatus); ok {
						statuses[st.Zone] = st
					}
				}
			})
			if err != nil {
				c.Err(err)
				return
			}
			list := make([]*msgs.ZoneStatus, 0, len(statuses))
			for _, st := range statuses {
				list = append(list, st)
			}
			sort.Slice(list, func(i, j int) bool { return list[i].Zone < list[j].Zone })
			s.Print(c, list, func() string {
				if len(list) == 0 {
					return "No zone status"
				}
				now := time.Now()
				lines := make([]string, len(list))
				for n, st := range list {
					lines[n] = FormatStatus(st, now)
				}
				return strings.Join(lines, "\n")
			})
		}),
	}

	// WriteCmd sends a payload to a zone.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "ZONE HEX",
		Func: MustSelectBridge(func(c *ishell.Context) {
			s := ShellFrom(c)
			write, err := ParseWriteArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			data, err := msgs.Encode(write)
			if err != nil {
				c.Err(err)
				return
			}
			token := s.Queue.PubWith(bridge.WriteTopic(s.Name, int(write.Zone)), data, 1, false)
			if !token.WaitTimeout(s.Timeout) {
				c.Err(fmt.Errorf("write timeout"))
				return
			}
			if err := token.Error(); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// StatsCmd waits for the next bus counters.
	StatsCmd = ishell.Cmd{
		Name:    "stats",
		Aliases: []string{"s"},
		Help:    "[SECONDS]",
		Func: MustSelectBridge(func(c *ishell.Context) {
			s := ShellFrom(c)
			d := 10 * time.Second
			if len(c.Args) > 0 {
				secs, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				d = time.Duration(secs) * time.Second
			}
			var stats *msgs.BusStats
			err := s.CollectFor(bridge.StatsTopic(s.Name), d, func(topic string, payload []byte) {
				if msg, err := msgs.Decode(payload); err == nil {
					if st, ok := msg.(*msgs.BusStats); ok {
						stats = st
					}
				}
			})
			if err != nil {
				c.Err(err)
				return
			}
			if stats == nil {
				c.Err(fmt.Errorf("no stats received in %v", d))
				return
			}
			s.Print(c, stats, func() string { return FormatStats(stats) })
		}),
	}

	// WatchCmd prints everything published by the bridge.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Help:    "[SECONDS]",
		Func: MustSelectBridge(func(c *ishell.Context) {
			s := ShellFrom(c)
			d := 30 * time.Second
			if len(c.Args) > 0 {
				secs, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				d = time.Duration(secs) * time.Second
			}
			err := s.CollectFor(mqtt.Topic(s.Name, "#"), d, func(topic string, payload []byte) {
				if strings.HasSuffix(topic, "/meta") {
					c.Printf("%s: %s\n", topic, string(payload))
					return
				}
				msg, err := msgs.Decode(payload)
				switch {
				case err != nil:
					c.Printf("%s: bad message: %v\n", topic, err)
				case s.OutputJSON:
					out, _ := json.Marshal(msg)
					c.Printf("%s: %s\n", topic, string(out))
				default:
					c.Printf("%s: %s\n", topic, formatMessage(msg))
				}
			})
			if err != nil {
				c.Err(err)
			}
		}),
	}
)

func formatMessage(msg msgs.Message) string {
	switch m := msg.(type) {
	case *msgs.ZoneStatus:
		return FormatStatus(m, time.Now())
	case *msgs.BusStats:
		return FormatStats(m)
	case *msgs.ZoneWrite:
		return fmt.Sprintf("write zone %d % x", m.Zone, m.Payload)
	}
	return msg.String()
}
