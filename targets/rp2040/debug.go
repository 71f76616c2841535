//go:build rp2040 || rp2350

package main

import (
	"machine"
)

// debugUART carries log output. USB CDC is left to the host link.
type debugUART struct {
	uart    *machine.UART
	enabled bool
}

// initDebugUART initializes UART0 on the board's debug pins at 115200 baud
func initDebugUART() *debugUART {
	d := &debugUART{uart: machine.UART0}

	err := d.uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       pinDebugTX,
		RX:       pinDebugRX,
	})
	if err != nil {
		return d
	}

	d.enabled = true
	d.Println("=== picframe debug UART ===")
	return d
}

// Write implements io.Writer for the logger. Bare LFs become CRLF.
func (d *debugUART) Write(p []byte) (int, error) {
	if !d.enabled {
		return len(p), nil
	}
	start := 0
	for i, c := range p {
		if c == '\n' && (i == 0 || p[i-1] != '\r') {
			d.uart.Write(p[start:i])
			d.uart.Write([]byte("\r\n"))
			start = i + 1
		}
	}
	d.uart.Write(p[start:])
	return len(p), nil
}

// Println writes a string with newline; usable as a core.DebugWriter
func (d *debugUART) Println(s string) {
	if !d.enabled {
		return
	}
	d.uart.Write([]byte(s))
	d.uart.Write([]byte("\r\n"))
}
