package input

import (
	"github.com/bendahl/uinput"
	"github.com/micmonay/keybd_event"
)

type keyCodes struct {
	uinput int
	keybd  int
}

var keyTable = map[Key]keyCodes{
	"A": {uinput.KeyA, keybd_event.VK_A},
	"B": {uinput.KeyB, keybd_event.VK_B},
	"C": {uinput.KeyC, keybd_event.VK_C},
	"D": {uinput.KeyD, keybd_event.VK_D},
	"E": {uinput.KeyE, keybd_event.VK_E},
	"F": {uinput.KeyF, keybd_event.VK_F},
	"G": {uinput.KeyG, keybd_event.VK_G},
	"H": {uinput.KeyH, keybd_event.VK_H},
	"I": {uinput.KeyI, keybd_event.VK_I},
	"J": {uinput.KeyJ, keybd_event.VK_J},
	"K": {uinput.KeyK, keybd_event.VK_K},
	"L": {uinput.KeyL, keybd_event.VK_L},
	"M": {uinput.KeyM, keybd_event.VK_M},
	"N": {uinput.KeyN, keybd_event.VK_N},
	"O": {uinput.KeyO, keybd_event.VK_O},
	"P": {uinput.KeyP, keybd_event.VK_P},
	"Q": {uinput.KeyQ, keybd_event.VK_Q},
	"R": {uinput.KeyR, keybd_event.VK_R},
	"S": {uinput.KeyS, keybd_event.VK_S},
	"T": {uinput.KeyT, keybd_event.VK_T},
	"U": {uinput.KeyU, keybd_event.VK_U},
	"V": {uinput.KeyV, keybd_event.VK_V},
	"W": {uinput.KeyW, keybd_event.VK_W},
	"X": {uinput.KeyX, keybd_event.VK_X},
	"Y": {uinput.KeyY, keybd_event.VK_Y},
	"Z": {uinput.KeyZ, keybd_event.VK_Z},

	"0": {uinput.Key0, keybd_event.VK_0},
	"1": {uinput.Key1, keybd_event.VK_1},
	"2": {uinput.Key2, keybd_event.VK_2},
	"3": {uinput.Key3, keybd_event.VK_3},
	"4": {uinput.Key4, keybd_event.VK_4},
	"5": {uinput.Key5, keybd_event.VK_5},
	"6": {uinput.Key6, keybd_event.VK_6},
	"7": {uinput.Key7, keybd_event.VK_7},
	"8": {uinput.Key8, keybd_event.VK_8},
	"9": {uinput.Key9, keybd_event.VK_9},

	"Space": {uinput.KeySpace, keybd_event.VK_SPACE},
	"Enter": {uinput.KeyEnter, keybd_event.VK_ENTER},

	"F1":  {uinput.KeyF1, keybd_event.VK_F1},
	"F2":  {uinput.KeyF2, keybd_event.VK_F2},
	"F3":  {uinput.KeyF3, keybd_event.VK_F3},
	"F4":  {uinput.KeyF4, keybd_event.VK_F4},
	"F5":  {uinput.KeyF5, keybd_event.VK_F5},
	"F6":  {uinput.KeyF6, keybd_event.VK_F6},
	"F7":  {uinput.KeyF7, keybd_event.VK_F7},
	"F8":  {uinput.KeyF8, keybd_event.VK_F8},
	"F9":  {uinput.KeyF9, keybd_event.VK_F9},
	"F10": {uinput.KeyF10, keybd_event.VK_F10},
	"F11": {uinput.KeyF11, keybd_event.VK_F11},
	"F12": {uinput.KeyF12, keybd_event.VK_F12},
}

// Known reports whether key has a code on every backend.
func Known(key Key) bool {
	_, ok := keyTable[key]
	return ok
}
