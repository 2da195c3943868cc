package main

import (
	"context"
	"flag"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/lgap.go/pkg/bridge"
	"github.com/robotalks/lgap.go/pkg/config"
	fx "github.com/robotalks/lgap.go/pkg/framework"
	"github.com/robotalks/lgap.go/pkg/mqtt"
)

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := config.NewConfig()
	if err := conf.Load(); err != nil {
		glog.Exit(err)
	}
	if err := run(conf); err != nil {
		glog.Exit(err)
	}
}

func run(conf *config.Config) error {
	zones, err := conf.BuildZones()
	if err != nil {
		return err
	}
	if len(zones) == 0 {
		glog.Warning("no zones configured, the bus stays idle")
	}

	port, err := conf.OpenPort()
	if err != nil {
		return err
	}
	closers := []io.Closer{port}
	defer func() {
		var errs fx.AggregatedError
		for i := len(closers) - 1; i >= 0; i-- {
			errs.Add(closers[i].Close())
		}
		if err := errs.Aggregate(); err != nil {
			glog.Errorf("shutdown: %v", err)
		}
	}()

	flowCtl, closer, err := conf.OpenFlowControl(port)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	engine := conf.NewEngine(port, flowCtl, zones)
	engine.LogConfig()

	loop := fx.NewLoop().WithInterval(conf.TickInterval).Add(engine)

	q, err := conf.NewQueue()
	if err != nil {
		return err
	}
	if q != nil {
		b := bridge.New(q, conf.Name, zones)
		b.Stats = engine
		b.StatsInterval = conf.StatsInterval
		b.Meta.Port = conf.Port
		b.Meta.Description = "LGAP bus master"
		q.OnConnect = func(*mqtt.Queue) { b.PublishMeta() }
		loop.Add(b)
		glog.Infof("MQTT %s as %s", conf.MQTTBrokerURL, conf.Name)
		go func() {
			token := q.Connect()
			if token.Wait(); token.Error() != nil {
				glog.Errorf("MQTT connect: %v", token.Error())
			}
		}()
		closers = append(closers, q)
	}

	runner := fx.NewRunnerWith(context.Background()).HandleSignals()
	runner.Go(fx.NamedRun("loop", loop))
	return runner.Wait()
}
