//go:build tinygo && rp2040

// Command ladder-firmware is the bare-metal build of the button ladder
// decoder for RP2040 boards. The ladder feeds ADC0 (GP26), the LEDs hang off
// GP1, GP3 and GP4 sinking current, and debug lines go out on the default UART.
package main

import (
	"context"
	"log"
	"machine"
	"time"

	"github.com/sweeney/ladder-buttons/internal/adc"
	"github.com/sweeney/ladder-buttons/internal/debug"
	"github.com/sweeney/ladder-buttons/internal/decoder"
	"github.com/sweeney/ladder-buttons/internal/gpio"
	"github.com/sweeney/ladder-buttons/internal/logic"
)

// Port bit n is driven by GPn for the three LED bits.
var ledPins = map[int]machine.Pin{
	logic.DefaultLED1Bit: machine.GP1,
	logic.DefaultLED2Bit: machine.GP3,
	logic.DefaultLED3Bit: machine.GP4,
}

// pinPort is a gpio.Port over directly driven machine pins.
type pinPort struct {
	pins   [gpio.Width]machine.Pin
	shadow uint8
}

func newPinPort(pins map[int]machine.Pin, initial uint8) *pinPort {
	p := &pinPort{}
	for i := range p.pins {
		p.pins[i] = machine.NoPin
	}
	for bit, pin := range pins {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.pins[bit] = pin
	}
	p.Write(initial)
	return p
}

func (p *pinPort) Read() (uint8, error) {
	v := p.shadow
	for bit, pin := range p.pins {
		if pin == machine.NoPin {
			continue
		}
		if pin.Get() {
			v |= 1 << bit
		} else {
			v &^= 1 << bit
		}
	}
	return v, nil
}

func (p *pinPort) Write(value uint8) error {
	for bit, pin := range p.pins {
		if pin != machine.NoPin {
			pin.Set(value&(1<<bit) != 0)
		}
	}
	p.shadow = value
	return nil
}

func (p *pinPort) Close() error { return nil }

// adcSampler reads the ladder voltage. machine.ADC.Get returns a
// left-justified 16-bit value; the decoder only needs the top byte.
type adcSampler struct {
	adc machine.ADC
}

func (s adcSampler) Read() (logic.RawSample, error) {
	return logic.RawSample(s.adc.Get() >> 8), nil
}

func (s adcSampler) Close() error { return nil }

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: debug.DefaultBaud})

	machine.InitADC()
	ladder := machine.ADC{Pin: machine.ADC0}
	ladder.Configure(machine.ADCConfig{})

	port := newPinPort(ledPins, logic.DefaultEncoder.Encode(logic.StateNone, 0xFF))
	reporter := debug.NewReporter(debug.DefaultQueueDepth)
	dec := decoder.New(decoder.Config{Throttle: logic.DefaultThrottle}, port, reporter)

	reporter.Announce(logic.StartupMarker)

	ctx := context.Background()
	go func() {
		if err := reporter.Run(ctx, machine.Serial); err != nil {
			log.Printf("debug: writer stopped: %v", err)
		}
	}()
	go func() {
		if err := adc.FreeRun(ctx, adcSampler{adc: ladder}, ticker(adc.DefaultInterval), dec.HandleSample); err != nil {
			log.Printf("adc: sampler stopped: %v", err)
		}
	}()

	// RunRefresh logs port errors once per episode and only returns when ctx ends.
	if err := dec.RunRefresh(ctx, ticker(logic.DefaultRefresh)); err != nil {
		log.Printf("refresh: stopped: %v", err)
	}
}

// ticker delivers a tick roughly every d, paced by time.Sleep.
func ticker(d time.Duration) <-chan time.Time {
	c := make(chan time.Time)
	go func() {
		for {
			time.Sleep(d)
			c <- time.Now()
		}
	}()
	return c
}
