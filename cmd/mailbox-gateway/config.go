// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

package main

// Config is the top-level TOML document for a mailbox-gateway process.
type Config struct {
	Debug  bool
	Self   string // this node's name, must match one entry in Module
	Mqtt   MqttConfig
	Radio  RadioConfig
	Module []ModuleConfig
	Temp   *TempConfig
}

type MqttConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Prefix   string
}

// RadioConfig describes the transceiver this gateway drives. Sim=true
// replaces the radio with one end of an in-process simulated pair: sent
// frames land on the other end, which nothing reads, and nothing is ever
// received. It runs the mailbox schedule without a radio attached.
type RadioConfig struct {
	Sim        bool
	SpiBus     int    `toml:"spi_bus"`
	SpiCS      int    `toml:"spi_cs"`
	CSMuxPin   string `toml:"cs_mux_pin"`
	CSMuxValue int    `toml:"cs_mux_value"`
	Key        int    // session key byte, 0-255
}

// ModuleConfig declares one mailbox table entry and the node names on
// either side of it.
type ModuleConfig struct {
	Name   string
	Kind   string // "int32", "float32", or "bool"
	Rate   int    // cycles between sends, or 0 for Async
	Source string // node name that owns this entry
	Dest   string // node name (or "all") this entry is addressed to
	Sub    string // MQTT topic to publish received/local values under
	Pub    string // MQTT topic to subscribe for local writes, "" if none
}

// TempConfig optionally attaches a max31855 thermocouple reader feeding one
// of the Module entries declared above.
type TempConfig struct {
	Entry  string // ModuleConfig.Name this producer writes into
	SpiBus int    `toml:"spi_bus"`
	SpiCS  int    `toml:"spi_cs"`
}
