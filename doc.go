// Package devices implements a LoRa-carried mailbox bus connecting a host,
// a microcontroller, and other peer nodes: crc8 and frame provide the
// link-layer wire codec, mailbox provides the session-layer typed
// publish/subscribe state machine on top of it, and radiolink abstracts the
// physical transceiver the two ride over (an in-process simulator for
// tests, and a direct SX1276-register-level SPI driver for real hardware).
// max31855, spimux and thread are the hardware-access helpers
// cmd/mailbox-gateway runs those layers on.
package devices
