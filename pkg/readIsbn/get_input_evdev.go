package readIsbn

import (
	"context"
	"log/slog"
	"time"

	"github.com/holoplot/go-evdev"
)

// pollInterval is how long the reader waits when the device has no events
// queued.
const pollInterval = 20 * time.Millisecond

// eventDevice is the part of *evdev.InputDevice the reader needs.
type eventDevice interface {
	Name() (string, error)
	ReadOne() (*evdev.InputEvent, error)
	Close() error
}

// deviceInput reads barcodes typed by a USB scanner that shows up as a
// keyboard. The device is grabbed so scans do not leak into the terminal.
type deviceInput struct {
	devicePath string
	device     eventDevice

	bufferedCodes chan string
}

// FromDevice returns the codes scanned on the evdev device at
// inputDevicePath. It blocks until the device can be opened.
func FromDevice(ctx context.Context, inputDevicePath string) (<-chan string, error) {
	di := &deviceInput{
		devicePath:    inputDevicePath,
		bufferedCodes: make(chan string, 100),
	}

	if err := di.open(ctx); err != nil {
		return nil, err
	}

	go di.readToBuffer(ctx)

	return di.bufferedCodes, nil
}

func (d *deviceInput) open(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}

		inputDevice, err := evdev.Open(d.devicePath)
		if err != nil {
			continue
		}
		if err := inputDevice.NonBlock(); err != nil {
			slog.Error("device nonblock error", "error", err, "device", d.devicePath)
			inputDevice.Close()
			continue
		}

		if err := inputDevice.Grab(); err != nil {
			slog.Error("device grab error", "error", err, "device", d.devicePath)
			inputDevice.Close()
			continue
		}

		slog.Info("scanner device opened", "device", d.devicePath)
		d.device = inputDevice

		return nil
	}
}

func (d *deviceInput) readToBuffer(ctx context.Context) {
	defer close(d.bufferedCodes)
	defer func() { d.device.Close() }()

	var barcode string

	for ctx.Err() == nil {
		// The scanner goes to sleep between scans; reopen it when it does.
		if _, err := d.device.Name(); err != nil {
			slog.Warn("scanner device went away", "error", err)
			d.device.Close()
			if err := d.open(ctx); err != nil {
				return
			}
		}

		ev, err := d.device.ReadOne()
		if err != nil {
			// The device is non-blocking, so an empty queue is an error too.
			if barcode != "" {
				if !d.emit(ctx, barcode) {
					return
				}
				barcode = ""
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
			continue
		}

		if ev.Type != evdev.EV_KEY || ev.Value != 1 {
			continue
		}

		if ev.Code == evdev.KEY_ENTER {
			if !d.emit(ctx, barcode) {
				return
			}
			barcode = ""
			continue
		}

		barcode += eventToString(*ev)
	}
}

func (d *deviceInput) emit(ctx context.Context, code string) bool {
	select {
	case d.bufferedCodes <- code:
		return true
	case <-ctx.Done():
		return false
	}
}

func eventToString(ev evdev.InputEvent) string {
	switch ev.Code {
	case evdev.KEY_0:
		return "0"
	case evdev.KEY_1:
		return "1"
	case evdev.KEY_2:
		return "2"
	case evdev.KEY_3:
		return "3"
	case evdev.KEY_4:
		return "4"
	case evdev.KEY_5:
		return "5"
	case evdev.KEY_6:
		return "6"
	case evdev.KEY_7:
		return "7"
	case evdev.KEY_8:
		return "8"
	case evdev.KEY_9:
		return "9"
	case evdev.KEY_X:
		return "X"
	default:
		return ""
	}
}
