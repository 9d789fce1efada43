// Package keybd injects keys through uinput via micmonay/keybd_event. It
// needs write access to /dev/uinput and is only built on linux.
package keybd

import (
	"errors"
	"time"
)

var ErrUnavailable = errors.New("uinput keyboard unavailable")

// settleDelay is how long the kernel needs before a fresh uinput device
// accepts events.
const settleDelay = 2 * time.Second
