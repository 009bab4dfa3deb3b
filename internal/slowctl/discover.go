package slowctl

import (
	"fmt"

	"github.com/jochenvg/go-udev"
)

// FindSerialDevice enumerates tty devices via udev and returns the
// device node of the first one whose USB vendor/product ID match,
// grounded on the same vendor/product matching the teacher's cm108.go
// uses to pick out its CM108-family GPIO device, adapted from raw cgo
// libudev calls to the pure-Go udev bindings.
func FindSerialDevice(vendorID, productID string) (string, error) {
	u := udev.Udev{}
	enum := u.NewEnumerate()
	if err := enum.AddMatchSubsystem("tty"); err != nil {
		return "", fmt.Errorf("slowctl: matching tty subsystem: %w", err)
	}

	devices, err := enum.Devices()
	if err != nil {
		return "", fmt.Errorf("slowctl: enumerating tty devices: %w", err)
	}

	for _, d := range devices {
		parent := d.ParentWithSubsystemDevtype("usb", "usb_device")
		if parent == nil {
			continue
		}
		if parent.PropertyValue("ID_VENDOR_ID") == vendorID &&
			parent.PropertyValue("ID_MODEL_ID") == productID {
			if node := d.Devnode(); node != "" {
				return node, nil
			}
		}
	}
	return "", fmt.Errorf("slowctl: no tty device found for vendor %s product %s", vendorID, productID)
}
