package hardware

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// CheckWritable reports whether the process may open the device node at path
// for writing, e.g. /dev/uinput before creating virtual devices.
func CheckWritable(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return fmt.Errorf("%s is not writable: %w", path, err)
	}
	return nil
}
