package input

import (
	"fmt"

	"github.com/micmonay/keybd_event"
)

// Keybd injects keys through keybd_event. It has no gamepad, so axis calls
// fail with ErrUnsupported; ResetAxes is a no-op.
type Keybd struct {
	kb keybd_event.KeyBonding
}

func NewKeybd() (*Keybd, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("failed to create key bonding: %w", err)
	}
	return &Keybd{kb: kb}, nil
}

func (k *Keybd) set(key Key) error {
	codes, ok := keyTable[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	k.kb.Clear()
	k.kb.SetKeys(codes.keybd)
	return nil
}

func (k *Keybd) KeyDown(key Key) error {
	if err := k.set(key); err != nil {
		return err
	}
	return k.kb.Press()
}

func (k *Keybd) KeyUp(key Key) error {
	if err := k.set(key); err != nil {
		return err
	}
	return k.kb.Release()
}

func (k *Keybd) KeyPress(key Key) error {
	if err := k.set(key); err != nil {
		return err
	}
	return k.kb.Launching()
}

func (k *Keybd) SetAxis(axis Axis, value float32) error {
	return fmt.Errorf("%w: axis %s", ErrUnsupported, axis)
}

func (k *Keybd) ResetAxes() error {
	return nil
}

func (k *Keybd) Close() error {
	return nil
}
