// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/eclipse/paho.mqtt.golang"

	"github.com/NateTHEgreatest33/STF/mailbox"
)

// mq is a handle onto a MQTT broker connection, trimmed from
// cmd/mqttradio's version: this gateway only needs straight publish and a
// handful of subscriptions feeding mailbox.Engine.Set, not the internal
// dedup/forwarding machinery a multi-radio bridge requires.
type mq struct {
	conn mqtt.Client
}

func newMQ(conf MqttConfig, debug mailbox.LogPrintf) (*mq, error) {
	if debug != nil {
		debug("configuring MQTT: %+v", conf)
	}
	mqtt.ERROR = log.New(os.Stderr, "", 0)
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", conf.Host, conf.Port))
	opts.ClientID = "mailbox-gateway"
	opts.Username = conf.User
	opts.Password = conf.Password

	conn := mqtt.NewClient(opts)
	if token := conn.Connect(); !token.WaitTimeout(10 * time.Second) {
		return nil, token.Error()
	}
	log.Printf("MQTT connected")
	return &mq{conn: conn}, nil
}

func (mq *mq) Publish(topic string, payload interface{}) {
	jsonPayload, _ := json.Marshal(payload)
	mq.conn.Publish(topic, 1, false, jsonPayload)
}

// valueWire is the JSON shape published for every mailbox entry: exactly
// one of the three fields is present, selected by the entry's kind.
type valueWire struct {
	Int32   *int32   `json:"int32,omitempty"`
	Float32 *float32 `json:"float32,omitempty"`
	Bool    *bool    `json:"bool,omitempty"`
}

func valueToJSON(v mailbox.Value) valueWire {
	var w valueWire
	if n, ok := v.Int32(); ok {
		w.Int32 = &n
	}
	if f, ok := v.Float32(); ok {
		w.Float32 = &f
	}
	if b, ok := v.Bool(); ok {
		w.Bool = &b
	}
	return w
}

// hookSubscription wires an MQTT topic to mailbox.Engine.Set: every message
// published to m.Pub is parsed per kind and written into the engine's
// table at index idx. The caller's own Tick loop picks it up on the next
// tx phase.
func hookSubscription(mq *mq, topic string, engine *mailbox.Engine, idx int, kind string) error {
	handler := func(c mqtt.Client, msg mqtt.Message) {
		var w valueWire
		if err := json.Unmarshal(msg.Payload(), &w); err != nil {
			log.Printf("mailbox-gateway: cannot decode %s: %v", topic, err)
			return
		}
		var v mailbox.Value
		switch kind {
		case "int32":
			if w.Int32 == nil {
				return
			}
			v = mailbox.Int32Value(*w.Int32)
		case "float32":
			if w.Float32 == nil {
				return
			}
			v = mailbox.Float32Value(*w.Float32)
		case "bool":
			if w.Bool == nil {
				return
			}
			v = mailbox.BoolValue(*w.Bool)
		default:
			return
		}
		if err := engine.Set(idx, v); err != nil {
			log.Printf("mailbox-gateway: cannot set entry %d from %s: %v", idx, topic, err)
		}
	}
	token := mq.conn.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(2 * time.Second) {
		return token.Error()
	}
	return nil
}
