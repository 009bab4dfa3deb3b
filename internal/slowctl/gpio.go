package slowctl

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Interlock reads a single GPIO line acting as a chassis/HV safety
// interlock: commands that would raise voltage should check Closed
// before sending.
type Interlock struct {
	line *gpiocdev.Line
}

// OpenInterlock requests offset on chip as an input line.
func OpenInterlock(chip string, offset int) (*Interlock, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsInput)
	if err != nil {
		return nil, fmt.Errorf("slowctl: requesting interlock line %s:%d: %w", chip, offset, err)
	}
	return &Interlock{line: line}, nil
}

// Closed reports whether the interlock circuit is closed (line high),
// i.e. it is safe to issue a voltage-raising command.
func (i *Interlock) Closed() (bool, error) {
	v, err := i.line.Value()
	if err != nil {
		return false, fmt.Errorf("slowctl: reading interlock line: %w", err)
	}
	return v != 0, nil
}

// Close releases the underlying GPIO line.
func (i *Interlock) Close() error { return i.line.Close() }
