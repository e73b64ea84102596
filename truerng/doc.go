// Package truerng detects a TrueRNG USB device presented as a serial port and
// reads random bits from it. A Session keeps the port open for the length of
// a trial so every coin flip does not pay for a reopen.
package truerng
