// Package sh provides an interactive shell to monitor and control LGAP
// bridges over MQTT.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/lgap.go/pkg/config"
	"github.com/robotalks/lgap.go/pkg/mqtt"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Timeout     time.Duration

	Shell *ishell.Shell
	Queue *mqtt.Queue
	Name  string
}

const (
	shellKey          = "$shell"
	unselectedPrompt  = "[none] > "
	defaultMQTTURL    = "mqtt://localhost:1883/"
	defaultCollectFor = time.Second
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	mqttURL    = defaultMQTTURL
	bridgeName string
	timeout    = defaultCollectFor

	commands = []*ishell.Cmd{
		&BridgesCmd,
		&UseCmd,
		&ZonesCmd,
		&WriteCmd,
		&StatsCmd,
		&WatchCmd,
	}
)

func init() {
	if val := os.Getenv("LGAP_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&bridgeName, "name", bridgeName, "Bridge to use, empty to use the local one if found.")
	flag.DurationVar(&timeout, "timeout", timeout, "Time to collect retained messages and replies.")
}

// New creates a new shell.
func New(q *mqtt.Queue) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,

		Shell: ishell.New(),
		Queue: q,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unselectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustSelectBridge wraps command func requires a bridge.
func MustSelectBridge(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Name == "" {
			c.Err(fmt.Errorf("no bridge selected, see use"))
			return
		}
		fn(c)
	}
}

// Use selects a bridge.
func (s *Shell) Use(name string) {
	s.Name = name
	if name == "" {
		s.Shell.SetPrompt(unselectedPrompt)
		return
	}
	s.Shell.SetPrompt(name + " > ")
}

// Collect subscribes topic for the timeout of the shell and calls fn
// with messages received, one at a time.
func (s *Shell) Collect(topic string, fn mqtt.Handler) error {
	return s.CollectFor(topic, s.Timeout, fn)
}

// CollectFor is Collect with a specified duration.
func (s *Shell) CollectFor(topic string, d time.Duration, fn mqtt.Handler) error {
	var (
		lock sync.Mutex
		done bool
	)
	sub := s.Queue.Sub(topic, func(topic string, payload []byte) {
		lock.Lock()
		defer lock.Unlock()
		if !done {
			fn(topic, payload)
		}
	})
	defer func() {
		lock.Lock()
		done = true
		lock.Unlock()
		sub.Close()
	}()
	if token := sub.Token; token != nil {
		if token.WaitTimeout(d); token.Error() != nil {
			return token.Error()
		}
	}
	time.Sleep(d)
	return nil
}

// Print prints v as JSON or using the text formatter.
func (s *Shell) Print(c *ishell.Context, v interface{}, text func() string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text())
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if bridgeName != "" {
		s.Use(bridgeName)
	} else if name := config.DefaultName(); s.bridgeExists(name) {
		s.Use(name)
	}
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func (s *Shell) bridgeExists(name string) bool {
	found := false
	s.CollectFor(metaFilter, s.Timeout/2, func(topic string, payload []byte) {
		if len(payload) > 0 && topic == metaTopicOf(name) {
			found = true
		}
	})
	return found
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("connect %s: %v", mqttURL, token.Error())
	}
	defer q.Close()
	New(q).Run(flag.Args()...)
}
