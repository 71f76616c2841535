//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"picframe/core"
)

// Board wiring
const (
	pinTouchLeft  core.GPIOPin = 14
	pinTouchRight core.GPIOPin = 15
	pinMotion     core.GPIOPin = 16
	pinStatusLED  core.GPIOPin = 25

	pinDebugTX = machine.GPIO0
	pinDebugRX = machine.GPIO1

	pinPanelData0 = machine.GPIO6 // GPIO6-GPIO13
	pinPanelWR    = machine.GPIO17
	pinPanelDC    = machine.GPIO18
	pinPanelCS    = machine.GPIO19
	pinPanelReset = machine.GPIO20
	pinPanelBL    = machine.GPIO21
)

// Panel geometry and bus
const (
	panelBus    = busParallel
	panelRate   = 62_500_000 // SPI buses only
	panelWidth  = 240
	panelHeight = 320
)

const touchSampleInterval = 20 * time.Millisecond
