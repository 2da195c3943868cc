// Package lgap implements the master side of the LGAP bus, a half-duplex
// serial bus connecting HVAC zone controllers.
//
// The master owns the bus: it sends one 16-byte request to a zone and waits
// for that zone's 16-byte response before anything else is transmitted.
// Engine drives the exchange one non-blocking step at a time and is meant
// to be ticked from a cooperative scheduler (see framework.Loop).
//
// A frame on the wire looks like:
//
//	0     1     2     3     4     5 ... 14    15
//	0x10  ..    ID    ..    ZONE  ..          CHECKSUM
//
// where ID is the request id assigned by the master and echoed by the
// zone, and CHECKSUM is the low 8 bits of the sum of bytes 0..14 XOR 0x55.
package lgap
