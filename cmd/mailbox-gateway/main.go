// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"github.com/NateTHEgreatest33/STF/mailbox"
	"github.com/NateTHEgreatest33/STF/radiolink"
	"github.com/NateTHEgreatest33/STF/spimux"
	"github.com/NateTHEgreatest33/STF/thread"
)

func main() {
	help := flag.Bool("help", false, "print usage help")
	configFile := flag.String("config", "mailbox-gateway.toml", "path to config file")
	flag.Parse()

	if *help {
		fmt.Fprintf(os.Stderr, "Usage: %s -config <file>\n", os.Args[0])
		os.Exit(1)
	}

	config := &Config{}
	rawConfig, err := ioutil.ReadFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot access config file: %s\n", err)
		os.Exit(1)
	}
	if err := toml.Unmarshal(rawConfig, config); err != nil {
		fmt.Fprintf(os.Stderr, "cannot parse config file: %s\n", err)
		os.Exit(1)
	}

	logger := mailbox.LogPrintf(func(format string, v ...interface{}) {})
	if config.Debug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
		logger = log.Printf
	}

	names, selfID, err := assignModuleIDs(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot assign module ids: %s\n", err)
		os.Exit(1)
	}
	table, err := buildTable(config, names)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot build mailbox table: %s\n", err)
		os.Exit(1)
	}

	link, err := buildLink(config.Radio, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open radio link: %s\n", err)
		os.Exit(1)
	}
	if err := link.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "cannot init radio link: %s\n", err)
		os.Exit(1)
	}
	if err := link.SetRxMode(); err != nil {
		fmt.Fprintf(os.Stderr, "cannot set rx mode: %s\n", err)
		os.Exit(1)
	}

	tracer := mailbox.NewTracer()
	engine := mailbox.New(table, selfID, len(names), link, mailbox.Options{
		Key:    byte(config.Radio.Key),
		Log:    logger,
		Tracer: tracer,
	})

	mq, err := newMQ(config.Mqtt, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to MQTT broker: %s\n", err)
		os.Exit(2)
	}

	for i, m := range config.Module {
		if m.Pub != "" {
			if err := hookSubscription(mq, m.Pub, engine, i, m.Kind); err != nil {
				fmt.Fprintf(os.Stderr, "cannot subscribe module %s: %s\n", m.Name, err)
				os.Exit(1)
			}
		}
	}

	var temp *tempProducer
	if config.Temp != nil {
		temp, err = newTempProducer(*config.Temp, config.Module, engine)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot start temperature producer: %s\n", err)
			os.Exit(1)
		}
	}

	log.Printf("mailbox-gateway ready: self=%s peers=%d", config.Self, len(names))
	runLoop(engine, mq, config.Mqtt.Prefix, config.Module, temp)
}

// assignModuleIDs derives a stable Module id for every node name mentioned
// across Source/Dest (sorted, so a given config always yields the same
// assignment) and locates config.Self among them.
func assignModuleIDs(config *Config) ([]string, mailbox.Module, error) {
	seen := map[string]bool{}
	for _, m := range config.Module {
		if m.Source != "" {
			seen[m.Source] = true
		}
		if m.Dest != "" && m.Dest != "all" {
			seen[m.Dest] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	for i, n := range names {
		if n == config.Self {
			return names, mailbox.Module(i), nil
		}
	}
	return nil, 0, fmt.Errorf("self %q not found among module source/dest names %v", config.Self, names)
}

func buildTable(config *Config, names []string) (mailbox.Table, error) {
	idOf := func(name string) (mailbox.Module, bool) {
		if name == "all" {
			return mailbox.Module(len(names) + 1), true
		}
		for i, n := range names {
			if n == name {
				return mailbox.Module(i), true
			}
		}
		return 0, false
	}

	table := make(mailbox.Table, len(config.Module))
	for i, m := range config.Module {
		var zero mailbox.Value
		switch m.Kind {
		case "int32":
			zero = mailbox.Int32Value(0)
		case "float32":
			zero = mailbox.Float32Value(0)
		case "bool":
			zero = mailbox.BoolValue(false)
		default:
			return nil, fmt.Errorf("module %s: unknown kind %q", m.Name, m.Kind)
		}
		src, ok := idOf(m.Source)
		if !ok {
			return nil, fmt.Errorf("module %s: unknown source %q", m.Name, m.Source)
		}
		dst, ok := idOf(m.Dest)
		if !ok {
			return nil, fmt.Errorf("module %s: unknown dest %q", m.Name, m.Dest)
		}
		dir := mailbox.RX
		if src == mailbox.Module(indexOf(names, config.Self)) {
			dir = mailbox.TX
		}
		rate := mailbox.Rate(m.Rate)
		table[i] = mailbox.Entry{Value: zero, Rate: rate, Direction: dir, Source: src, Dest: dst}
	}
	return table, nil
}

func indexOf(names []string, self string) int {
	for i, n := range names {
		if n == self {
			return i
		}
	}
	return -1
}

// buildLink opens either the in-process simulator or a real SX1276-class
// transceiver over SPI, muxed across a shared bus if configured, following
// cmd/mqttradio's muxedSPI pattern.
func buildLink(r RadioConfig, log mailbox.LogPrintf) (radiolink.Link, error) {
	if r.Sim {
		a, _ := radiolink.SimPair(radiolink.LogPrintf(log))
		return a, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, err
	}

	var conn spi.Conn
	if r.CSMuxPin != "" {
		selPin := gpioreg.ByName(r.CSMuxPin)
		if selPin == nil {
			return nil, fmt.Errorf("cannot open pin %s", r.CSMuxPin)
		}
		port, err := spireg.Open(fmt.Sprintf("SPI%d.%d", r.SpiBus, r.SpiCS))
		if err != nil {
			return nil, err
		}
		radio0, radio1 := spimux.New(port, selPin)
		muxed := radio0
		if r.CSMuxValue != 0 {
			muxed = radio1
		}
		conn, err = muxed.DevParams(1*1000*1000, spi.Mode0, 8)
		if err != nil {
			return nil, err
		}
	} else {
		port, err := spireg.Open(fmt.Sprintf("SPI%d.%d", r.SpiBus, r.SpiCS))
		if err != nil {
			return nil, err
		}
		conn, err = port.DevParams(1*1000*1000, spi.Mode0, 8)
		if err != nil {
			return nil, err
		}
	}
	return radiolink.NewSPI(conn, radiolink.LogPrintf(log)), nil
}

// runLoop locks this goroutine to realtime priority (cmd/mqttradio's
// reliance on best-effort scheduling is not tight enough for a
// round-robin bus) and ticks the engine at the reference cadence, bridging
// every entry to and from MQTT each cycle.
func runLoop(engine *mailbox.Engine, mq *mq, prefix string, modules []ModuleConfig, temp *tempProducer) {
	if err := thread.Realtime(); err != nil {
		log.Printf("mailbox-gateway: could not set realtime scheduling: %v", err)
	}

	ticker := time.NewTicker(500 * time.Millisecond) // §5 reference cadence: 2 Hz
	defer ticker.Stop()

	for range ticker.C {
		if temp != nil {
			temp.poll()
		}
		if err := engine.Tick(); err != nil {
			log.Printf("mailbox-gateway: tick error: %v", err)
			continue
		}
		publishChanged(engine, mq, prefix, modules)
	}
}

func publishChanged(engine *mailbox.Engine, mq *mq, prefix string, modules []ModuleConfig) {
	for i, m := range modules {
		if m.Sub == "" {
			continue
		}
		v, err := engine.Get(i)
		if err != nil {
			continue
		}
		mq.Publish(prefix+m.Sub, valueToJSON(v))
	}
}
