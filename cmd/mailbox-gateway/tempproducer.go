// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"fmt"
	"log"

	"github.com/google/periph/conn/spi"

	"github.com/NateTHEgreatest33/STF/mailbox"
	"github.com/NateTHEgreatest33/STF/max31855"
)

// tempProducer drives a max31855 thermocouple reader into a TX entry each
// tick, supplementing the bus with a sensor node that needs no microcontroller
// peer at all.
type tempProducer struct {
	dev    *max31855.Dev
	engine *mailbox.Engine
	idx    int
}

func newTempProducer(conf TempConfig, modules []ModuleConfig, engine *mailbox.Engine) (*tempProducer, error) {
	idx := -1
	for i, m := range modules {
		if m.Name == conf.Entry {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("temp: entry %q not found among modules", conf.Entry)
	}
	if modules[idx].Kind != "float32" {
		return nil, fmt.Errorf("temp: entry %q must be float32, got %s", conf.Entry, modules[idx].Kind)
	}

	s, err := spi.New(conf.SpiBus, conf.SpiCS)
	if err != nil {
		return nil, err
	}
	dev, err := max31855.New(s)
	if err != nil {
		return nil, err
	}
	return &tempProducer{dev: dev, engine: engine, idx: idx}, nil
}

// poll reads the thermocouple and writes the Celsius reading into its TX
// entry; it drops readings the chip flags as open-circuit or shorted.
func (t *tempProducer) poll() {
	therm, _, err := t.dev.Temperature()
	if err != nil {
		log.Printf("mailbox-gateway: temp read error: %v", err)
		return
	}
	if err := t.engine.Set(t.idx, mailbox.Float32Value(float32(therm.Float64()))); err != nil {
		log.Printf("mailbox-gateway: temp set error: %v", err)
	}
}
