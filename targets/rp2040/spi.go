//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers"

	"picframe/targets/pio"
)

// Panel bus configurations. IDs 0-8 are hardware SPI pin sets; busParallel
// drives an 8080-style panel through PIO.

type spiBusConfig struct {
	spi  *machine.SPI // SPI controller (SPI0 or SPI1)
	sck  machine.Pin  // Clock pin
	mosi machine.Pin  // Master Out Slave In
	miso machine.Pin  // Master In Slave Out
	name string       // Human-readable name
}

type panelBusID uint8

const busParallel panelBusID = 0xFF

var rp2040SPIBuses = map[panelBusID]spiBusConfig{
	// SPI0 configurations
	0: {spi: machine.SPI0, sck: machine.GPIO2, mosi: machine.GPIO3, miso: machine.GPIO0, name: "spi0a"},
	1: {spi: machine.SPI0, sck: machine.GPIO6, mosi: machine.GPIO7, miso: machine.GPIO4, name: "spi0b"},
	2: {spi: machine.SPI0, sck: machine.GPIO18, mosi: machine.GPIO19, miso: machine.GPIO16, name: "spi0c"},
	3: {spi: machine.SPI0, sck: machine.GPIO22, mosi: machine.GPIO23, miso: machine.GPIO20, name: "spi0d"},
	4: {spi: machine.SPI0, sck: machine.GPIO2, mosi: machine.GPIO3, miso: machine.GPIO4, name: "spi0e"},

	// SPI1 configurations
	5: {spi: machine.SPI1, sck: machine.GPIO10, mosi: machine.GPIO11, miso: machine.GPIO8, name: "spi1a"},
	6: {spi: machine.SPI1, sck: machine.GPIO14, mosi: machine.GPIO15, miso: machine.GPIO12, name: "spi1b"},
	7: {spi: machine.SPI1, sck: machine.GPIO26, mosi: machine.GPIO27, miso: machine.GPIO24, name: "spi1c"},
	8: {spi: machine.SPI1, sck: machine.GPIO10, mosi: machine.GPIO11, miso: machine.GPIO12, name: "spi1d"},
}

// openPanelBus returns the write bus for the display driver
func openPanelBus(id panelBusID, rate uint32) (drivers.SPI, string, error) {
	if id == busParallel {
		bus, err := pio.NewParallel8(pio.Parallel8Config{
			Data0: pinPanelData0,
			WR:    pinPanelWR,
		})
		if err != nil {
			return nil, "", err
		}
		return bus, "pio8080", nil
	}

	busConfig, exists := rp2040SPIBuses[id]
	if !exists {
		return nil, "", errors.New("invalid panel bus ID")
	}

	// ST7789 panels run in SPI mode 0
	err := busConfig.spi.Configure(machine.SPIConfig{
		Frequency: rate,
		SCK:       busConfig.sck,
		SDO:       busConfig.mosi, // SDO = Serial Data Out (MOSI)
		SDI:       busConfig.miso, // SDI = Serial Data In (MISO)
		Mode:      0,
	})
	if err != nil {
		return nil, "", err
	}
	return busConfig.spi, busConfig.name, nil
}
