package pwm

import (
	"sync/atomic"

	"serial-controller/internal/input"
	"serial-controller/internal/logger"
)

// KeySignal holds a key during the active phase and releases it during the
// inactive phase. Key events are only injected on level changes, so a duty
// cycle of 1 holds the key down instead of re-pressing it every period.
type KeySignal struct {
	*Signal

	key      input.Key
	injector input.Injector
	logger   *logger.Logger
	down     atomic.Bool
}

func NewKeySignal(key input.Key, frequency float64, injector input.Injector, l *logger.Logger) *KeySignal {
	k := &KeySignal{
		key:      key,
		injector: injector,
		logger:   l,
	}
	k.Signal = NewSignal(frequency, k)
	return k
}

func (k *KeySignal) Key() input.Key {
	return k.key
}

func (k *KeySignal) Active() {
	if k.down.CompareAndSwap(false, true) {
		if err := k.injector.KeyDown(k.key); err != nil {
			k.logger.Warnf("Failed to press %s: %v", k.key, err)
		}
	}
}

func (k *KeySignal) Inactive() {
	k.Release()
}

// Release lets go of the key if the signal is holding it.
func (k *KeySignal) Release() {
	if k.down.CompareAndSwap(true, false) {
		if err := k.injector.KeyUp(k.key); err != nil {
			k.logger.Warnf("Failed to release %s: %v", k.key, err)
		}
	}
}

// Held reports whether the key is currently pressed by this signal.
func (k *KeySignal) Held() bool {
	return k.down.Load()
}
