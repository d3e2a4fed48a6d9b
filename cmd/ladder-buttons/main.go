// Command ladder-buttons decodes a three-button resistor ladder from an analog
// input and mirrors the held buttons onto three LEDs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/ladder-buttons/internal/adc"
	"github.com/sweeney/ladder-buttons/internal/debug"
	"github.com/sweeney/ladder-buttons/internal/decoder"
	"github.com/sweeney/ladder-buttons/internal/gpio"
	"github.com/sweeney/ladder-buttons/internal/logic"
	"github.com/sweeney/ladder-buttons/internal/mqtt"
	"github.com/sweeney/ladder-buttons/internal/status"
	"github.com/sweeney/ladder-buttons/internal/web"
)

// statusInterval is how often the status tracker is refreshed from the counters.
const statusInterval = time.Second

type options struct {
	refresh    time.Duration
	conversion time.Duration
	throttle   uint64

	port     string
	gpioChip string
	pinLED   [3]int
	mcpBus   uint
	mcpDev   uint

	iioDevice  int
	iioChannel int
	adcBits    uint

	serial string
	baud   int
	broker string
	http   string

	printState bool
}

func main() {
	var o options
	flag.DurationVar(&o.refresh, "refresh", logic.DefaultRefresh, "LED refresh interval")
	flag.DurationVar(&o.conversion, "conversion", adc.DefaultInterval, "ADC conversion interval")
	flag.Uint64Var(&o.throttle, "throttle", logic.DefaultThrottle, "Report one raw sample in every N on the debug channel (0 to disable)")
	flag.StringVar(&o.port, "port", "chip", "LED port backend: chip, rpio or mcp")
	flag.StringVar(&o.gpioChip, "gpio-chip", gpio.DefaultChip, "GPIO character device for --port=chip")
	flag.IntVar(&o.pinLED[0], "pin-led1", gpio.DefaultPinLED1, "Pin for LED1 (BCM number, or expander pin for --port=mcp)")
	flag.IntVar(&o.pinLED[1], "pin-led2", gpio.DefaultPinLED2, "Pin for LED2")
	flag.IntVar(&o.pinLED[2], "pin-led3", gpio.DefaultPinLED3, "Pin for LED3")
	flag.UintVar(&o.mcpBus, "mcp-bus", 1, "I2C bus number for --port=mcp")
	flag.UintVar(&o.mcpDev, "mcp-dev", 0, "MCP23017 device number (address offset) for --port=mcp")
	flag.IntVar(&o.iioDevice, "iio-device", 0, "IIO device number of the ADC")
	flag.IntVar(&o.iioChannel, "iio-channel", 0, "IIO voltage channel the ladder is wired to")
	flag.UintVar(&o.adcBits, "adc-bits", 12, "ADC resolution in bits")
	flag.StringVar(&o.serial, "serial", "", "Serial device for the debug channel (empty to disable)")
	flag.IntVar(&o.baud, "baud", debug.DefaultBaud, "Serial debug channel baud rate")
	flag.StringVar(&o.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.StringVar(&o.http, "http", ":80", "HTTP status address (empty to disable)")
	flag.BoolVar(&o.printState, "print-state", false, "Print current sample and button state and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	if err := o.validate(); err != nil {
		return err
	}
	if err := logic.DefaultTable.Validate(); err != nil {
		return errors.Wrap(err, "threshold table")
	}

	samplerPath := adc.IIOPath(o.iioDevice, o.iioChannel)
	sampler, err := adc.NewIIOSampler(samplerPath, o.adcBits)
	if err != nil {
		return errors.Wrap(err, "init adc")
	}
	defer sampler.Close()

	if o.printState {
		sample, err := sampler.Read()
		if err != nil {
			return errors.Wrap(err, "read adc")
		}
		printState(os.Stdout, sample)
		return nil
	}

	// LEDs start dark.
	port, portName, err := openPort(o, logic.DefaultEncoder.Encode(logic.StateNone, 0xFF))
	if err != nil {
		return errors.Wrap(err, "init led port")
	}
	defer port.Close()

	var sinks []io.Writer
	var sinkNames []string
	if o.serial != "" {
		tx, err := debug.OpenSerial(o.serial, o.baud)
		if err != nil {
			return errors.Wrap(err, "init debug serial")
		}
		defer tx.Close()
		sinks = append(sinks, tx)
		sinkNames = append(sinkNames, "serial:"+o.serial)
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if o.broker != "" {
		clientID := fmt.Sprintf("ladder-buttons-%d", os.Getpid())
		p, err := mqtt.NewRealPublisher(o.broker, clientID)
		if err != nil {
			return errors.Wrap(err, "init mqtt")
		}
		defer p.Close()
		publisher, mqttStatus = p, p
		sinks = append(sinks, p)
		sinkNames = append(sinkNames, "mqtt:"+mqtt.TopicDebug)
	}

	sink := io.Discard
	if len(sinks) > 0 {
		sink = debug.Fanout(sinks...)
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		RefreshMs:    o.refresh.Milliseconds(),
		ConversionUs: o.conversion.Microseconds(),
		Throttle:     uint32(o.throttle),
		Port:         portName,
		Sampler:      samplerPath,
		DebugSinks:   sinkNames,
		Broker:       o.broker,
		HTTPAddr:     o.http,
	})

	reporter := debug.NewReporter(debug.DefaultQueueDepth)
	dec := decoder.New(decoder.Config{Throttle: uint32(o.throttle)}, port, reporter)

	if o.http != "" {
		srv := web.New(o.http, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.http)
	}

	log.Printf("started: refresh=%v conversion=%v throttle=%d port=%s sampler=%s",
		o.refresh, o.conversion, o.throttle, portName, samplerPath)

	sampleTicker := time.NewTicker(o.conversion)
	defer sampleTicker.Stop()
	refreshTicker := time.NewTicker(o.refresh)
	defer refreshTicker.Stop()
	statusTicker := time.NewTicker(statusInterval)
	defer statusTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := daemon{
		decoder:    dec,
		sampler:    sampler,
		reporter:   reporter,
		sink:       sink,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
	}
	t := ticks{sample: sampleTicker.C, refresh: refreshTicker.C, status: statusTicker.C}
	return runLoop(d, t, time.Now, sigCh)
}

// validate rejects flag values the daemon cannot represent.
func (o options) validate() error {
	if o.throttle > math.MaxUint32 {
		return errors.Errorf("--throttle %d out of range (max %d)", o.throttle, uint64(math.MaxUint32))
	}
	if o.refresh <= 0 {
		return errors.Errorf("--refresh must be positive, got %v", o.refresh)
	}
	if o.conversion <= 0 {
		return errors.Errorf("--conversion must be positive, got %v", o.conversion)
	}
	return nil
}

// openPort opens the configured LED port backend. LED n is wired to the
// encoder's bit for LED n.
func openPort(o options, initial uint8) (gpio.Port, string, error) {
	pins := gpio.UnwiredPins()
	pins[logic.DefaultLED1Bit] = o.pinLED[0]
	pins[logic.DefaultLED2Bit] = o.pinLED[1]
	pins[logic.DefaultLED3Bit] = o.pinLED[2]

	switch o.port {
	case "chip":
		p, err := gpio.NewChipPort(o.gpioChip, pins, initial)
		return p, "chip:" + o.gpioChip, err
	case "rpio":
		p, err := gpio.NewRPIOPort(pins, initial)
		return p, "rpio", err
	case "mcp":
		p, err := gpio.NewMCPPort(uint8(o.mcpBus), uint8(o.mcpDev), pins, initial)
		return p, fmt.Sprintf("mcp:%d/%d", o.mcpBus, o.mcpDev), err
	}
	return nil, "", errors.Errorf("unknown port backend %q", o.port)
}

func printState(w io.Writer, sample logic.RawSample) {
	state := logic.Classify(sample)
	fmt.Fprintf(w, "sample: %d, buttons: %s, leds: %08b\n",
		sample, state, logic.DefaultEncoder.Pattern(state))
}

// daemon bundles the long-lived parts driven by runLoop.
// publisher and mqttStatus are nil when MQTT is disabled.
type daemon struct {
	decoder    *decoder.Decoder
	sampler    adc.Sampler
	reporter   *debug.Reporter
	sink       io.Writer
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
}

type ticks struct {
	sample  <-chan time.Time
	refresh <-chan time.Time
	status  <-chan time.Time
}

// runLoop announces startup on the debug channel and MQTT, starts the
// sampling, refresh and debug transmit goroutines, and keeps the status
// tracker current until a signal arrives.
func runLoop(d daemon, t ticks, now func() time.Time, sig <-chan os.Signal) error {
	d.reporter.Announce(logic.StartupMarker)
	d.updateStatus()
	d.publishSystem(now(), "STARTUP", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return adc.FreeRun(gctx, d.sampler, t.sample, d.decoder.HandleSample)
	})
	g.Go(func() error {
		return d.decoder.RunRefresh(gctx, t.refresh)
	})
	g.Go(func() error {
		return d.reporter.Run(gctx, d.sink)
	})

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			cancel()
			err := g.Wait()

			d.updateStatus()
			d.publishSystem(now(), "SHUTDOWN", signalName(s))
			return err

		case <-gctx.Done():
			return g.Wait()

		case <-t.status:
			d.updateStatus()
		}
	}
}

func (d daemon) updateStatus() {
	d.tracker.Update(d.decoder.Stats(), d.reporter.Stats())
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

func (d daemon) publishSystem(ts time.Time, event, reason string) {
	if d.publisher == nil {
		return
	}
	snap := d.tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  ts,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := d.publisher.PublishSystem(ev); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
		return
	}
	log.Printf("published %s event", event)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
