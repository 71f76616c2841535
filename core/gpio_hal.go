package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIOEdge selects which transition fires a pin interrupt
type GPIOEdge uint8

const (
	EdgeRising GPIOEdge = iota + 1
	EdgeFalling
	EdgeBoth
)

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullDown configures a pin as a digital input with pull-down resistor
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)

	// SetInterrupt registers handler for edge on pin.
	// The handler runs in interrupt context and must not block.
	SetInterrupt(pin GPIOPin, edge GPIOEdge, handler func()) error
}
