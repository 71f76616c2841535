//go:build rp2040 || rp2350

package pio

// 8-bit 8080-style write bus for parallel display panels.
//
// The state machine shifts one byte onto eight consecutive data pins and
// strobes WR low then high; the panel latches on the rising edge. DC, CS and
// RD stay under CPU control, which is what the st7789 driver expects from a
// drivers.SPI bus.

import (
	"machine"
	"time"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildParallel8Program creates the write-strobe program using AssemblerV0
func buildParallel8Program() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),                   // 0: pull block
		asm.Out(rp2pio.OutDestPins, 8).Encode(),          // 1: out pins, 8 (data)
		asm.Set(rp2pio.SetDestPins, 0).Delay(1).Encode(), // 2: set pins, 0 [1] (WR low)
		asm.Set(rp2pio.SetDestPins, 1).Encode(),          // 3: set pins, 1 (WR high)
		// .wrap
	}
}

const parallel8Origin = -1 // Let the PIO pick a free offset

// Parallel8Config selects the bus pins
type Parallel8Config struct {
	Data0  machine.Pin // first of eight consecutive data pins
	WR     machine.Pin
	ClkDiv uint16 // integer clock divider; 0 means 2
}

// Parallel8 implements the drivers.SPI write path over PIO
type Parallel8 struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pioNum uint8
	smNum  uint8
	offset uint8
}

// NewParallel8 claims a free state machine and starts the bus
func NewParallel8(cfg Parallel8Config) (*Parallel8, error) {
	pioNum, smNum, ok := allocatePIO()
	if !ok {
		return nil, ErrNoStateMachine
	}

	pioHW := rp2pio.PIO0
	if pioNum == 1 {
		pioHW = rp2pio.PIO1
	}
	b := &Parallel8{
		pio:    pioHW,
		sm:     pioHW.StateMachine(smNum),
		pioNum: pioNum,
		smNum:  smNum,
	}
	if err := b.init(cfg); err != nil {
		releasePIO(pioNum, smNum)
		return nil, err
	}
	return b, nil
}

func (b *Parallel8) init(cfg Parallel8Config) error {
	b.sm.TryClaim()

	program := buildParallel8Program()
	offset, err := b.pio.AddProgram(program, parallel8Origin)
	if err != nil {
		return err
	}
	b.offset = offset

	for i := machine.Pin(0); i < 8; i++ {
		(cfg.Data0 + i).Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	}
	cfg.WR.Configure(machine.PinConfig{Mode: b.pio.PinMode()})

	smCfg := rp2pio.DefaultStateMachineConfig()
	smCfg.SetOutPins(cfg.Data0, 8)
	smCfg.SetSetPins(cfg.WR, 1)
	// Shift right so the low byte of each word goes out; explicit PULL
	smCfg.SetOutShift(true, false, 32)
	smCfg.SetWrap(offset+uint8(len(program))-1, offset)

	div := cfg.ClkDiv
	if div == 0 {
		div = 2
	}
	smCfg.SetClkDivIntFrac(div, 0)

	// Init first, then pin directions
	b.sm.Init(offset, smCfg)
	b.sm.SetPindirsConsecutive(cfg.Data0, 8, true)
	b.sm.SetPindirsConsecutive(cfg.WR, 1, true)
	b.sm.SetPinsConsecutive(cfg.WR, 1, true) // WR idles high

	b.sm.SetEnabled(true)
	return nil
}

// Tx writes w to the bus. The bus is write-only, so r must be nil.
func (b *Parallel8) Tx(w, r []byte) error {
	for _, c := range w {
		b.put(c)
	}
	b.drain()
	return nil
}

// Transfer writes one byte and returns 0
func (b *Parallel8) Transfer(c byte) (byte, error) {
	b.put(c)
	b.drain()
	return 0, nil
}

// Close stops the state machine and frees it
func (b *Parallel8) Close() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	releasePIO(b.pioNum, b.smNum)
}

func (b *Parallel8) put(c byte) {
	for b.sm.IsTxFIFOFull() {
		// Busy wait
	}
	b.sm.TxPut(uint32(c))
}

// drain waits for the FIFO to empty so DC changes never overtake data
func (b *Parallel8) drain() {
	for !b.sm.IsTxFIFOEmpty() {
	}
	// The last byte may still be in the output shift register
	time.Sleep(time.Microsecond)
}
