package contracts

import (
	"errors"
	"fmt"
)

// FatalKind classifies unrecoverable load failures.
type FatalKind int

const (
	// DeviceUnavailable means the synthesis device could not be acquired or lacks channels.
	DeviceUnavailable FatalKind = iota + 1
	// MalformedBank means the soundfont could not be parsed or loaded.
	MalformedBank
	// BankIO means the soundfont file is missing or unreadable.
	BankIO
	// Timeout means the load did not reach Ready within the configured bound.
	Timeout
)

// Sentinels matched by FatalError.Is, one per FatalKind.
var (
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrMalformedBank     = errors.New("malformed soundbank")
	ErrBankIO            = errors.New("soundbank i/o failure")
	ErrLoadTimeout       = errors.New("soundbank load timed out")
)

func (k FatalKind) sentinel() error {
	switch k {
	case DeviceUnavailable:
		return ErrDeviceUnavailable
	case MalformedBank:
		return ErrMalformedBank
	case BankIO:
		return ErrBankIO
	case Timeout:
		return ErrLoadTimeout
	}
	return nil
}

func (k FatalKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown failure"
}

// FatalError is an unrecoverable load failure. The engine never terminates the
// process itself; hosts are expected to log it and shut down.
type FatalError struct {
	Kind  FatalKind
	Stage LoadStage
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal during %s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error kind.
func (e *FatalError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}
