// Package devlock guards a camera device against concurrent use by other
// processes with an advisory lock file.
package devlock

import (
	"fmt"
	"os"

	"github.com/quentinrf/lightlevel/internal/domain"
)

// ErrBusy means another process holds the lock
var ErrBusy = fmt.Errorf("%w: device in use by another process", domain.ErrDeviceUnavailable)

// Lock is a held device lock. The zero value holds nothing.
type Lock struct {
	f *os.File
}
