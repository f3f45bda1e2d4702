package input

import (
	"errors"
	"fmt"

	"github.com/bendahl/uinput"
)

const (
	uinputKeyboardName = "serial-controller-keyboard"
	uinputGamepadName  = "serial-controller-gamepad"

	// Reported as an Xbox 360 pad so games pick a sane default layout.
	gamepadVendor  = 0x045e
	gamepadProduct = 0x028e
)

// Uinput creates one virtual keyboard and one virtual gamepad. The gamepad
// has no analog trigger axes, so triggers ride on the right stick: left
// trigger on X, right trigger on Y.
type Uinput struct {
	keyboard uinput.Keyboard
	gamepad  uinput.Gamepad
}

func NewUinput(path string) (*Uinput, error) {
	keyboard, err := uinput.CreateKeyboard(path, []byte(uinputKeyboardName))
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual keyboard: %w", err)
	}
	gamepad, err := uinput.CreateGamepad(path, []byte(uinputGamepadName), gamepadVendor, gamepadProduct)
	if err != nil {
		_ = keyboard.Close()
		return nil, fmt.Errorf("failed to create virtual gamepad: %w", err)
	}
	return &Uinput{keyboard: keyboard, gamepad: gamepad}, nil
}

func (u *Uinput) code(key Key) (int, error) {
	codes, ok := keyTable[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return codes.uinput, nil
}

func (u *Uinput) KeyDown(key Key) error {
	code, err := u.code(key)
	if err != nil {
		return err
	}
	return u.keyboard.KeyDown(code)
}

func (u *Uinput) KeyUp(key Key) error {
	code, err := u.code(key)
	if err != nil {
		return err
	}
	return u.keyboard.KeyUp(code)
}

func (u *Uinput) KeyPress(key Key) error {
	code, err := u.code(key)
	if err != nil {
		return err
	}
	return u.keyboard.KeyPress(code)
}

func (u *Uinput) SetAxis(axis Axis, value float32) error {
	value = clampAxis(axis, value)
	switch axis {
	case AxisLeftStickX:
		return u.gamepad.LeftStickMoveX(value)
	case AxisLeftStickY:
		return u.gamepad.LeftStickMoveY(value)
	case AxisLeftTrigger:
		return u.gamepad.RightStickMoveX(value)
	case AxisRightTrigger:
		return u.gamepad.RightStickMoveY(value)
	default:
		return fmt.Errorf("%w: axis %d", ErrUnsupported, axis)
	}
}

func (u *Uinput) ResetAxes() error {
	return errors.Join(
		u.gamepad.LeftStickMove(0, 0),
		u.gamepad.RightStickMove(0, 0),
	)
}

func (u *Uinput) Close() error {
	return errors.Join(u.keyboard.Close(), u.gamepad.Close())
}
