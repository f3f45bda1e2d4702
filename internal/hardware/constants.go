package hardware

const (
	// Consumer label shown by gpioinfo for lines held by this service.
	Consumer = "serial-controller"

	DefaultChip          = "gpiochip0"
	DefaultStatusLEDLine = 17

	// Blink rate of the status LED.
	DefaultStatusLEDFrequency = 2.0

	DefaultUinputPath = "/dev/uinput"
)

// Status LED duty cycles.
const (
	dutyIdle      = 0.0
	dutyConnected = 0.5
	dutyDriving   = 1.0
)
