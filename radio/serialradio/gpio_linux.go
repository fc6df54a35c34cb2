//go:build linux

package serialradio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

func (r *Radio) gpioSetup(nRSTPin, paEnablePin, boot0Pin int) error {
	var err error
	r.nRST, err = gpiocdev.RequestLine("gpiochip0", nRSTPin, gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("request nRST line: %w", err)
	}
	r.paEnable, err = gpiocdev.RequestLine("gpiochip0", paEnablePin, gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("request paEnable line: %w", err)
	}
	r.boot0, err = gpiocdev.RequestLine("gpiochip0", boot0Pin, gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("request boot0 line: %w", err)
	}
	if err := r.setNRST(false); err != nil {
		return fmt.Errorf("unset nRST: %w", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := r.setNRST(true); err != nil {
		return fmt.Errorf("set nRST: %w", err)
	}
	time.Sleep(time.Second) // wait for the board to boot
	return nil
}
