package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrActivityUnsupported indicates idle detection is not available on
// this system; the engine then relies on focus callbacks alone.
var ErrActivityUnsupported = errors.New("activity detection unsupported")

// ActivityProvider reports the duration since the last user input.
type ActivityProvider interface {
	IdleDuration() (time.Duration, error)
}

// NewActivityProvider returns the best provider for this system,
// currently xprintidle on X11 sessions. Wayland and systems without
// the tool report ErrActivityUnsupported.
func NewActivityProvider() ActivityProvider {
	path, err := exec.LookPath("xprintidle")
	if err != nil {
		return unsupportedProvider{}
	}
	return &xprintidleProvider{path: path}
}

type xprintidleProvider struct {
	path string
}

func (provider *xprintidleProvider) IdleDuration() (time.Duration, error) {
	sessionType := strings.ToLower(os.Getenv("XDG_SESSION_TYPE"))
	if sessionType == "wayland" {
		return 0, ErrActivityUnsupported
	}
	output, err := exec.Command(provider.path).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	value := strings.TrimSpace(string(output))
	idleMillis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

type unsupportedProvider struct{}

func (unsupportedProvider) IdleDuration() (time.Duration, error) {
	return 0, ErrActivityUnsupported
}
