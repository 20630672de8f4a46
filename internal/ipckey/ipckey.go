// Package ipckey derives System V IPC keys from filesystem paths, the way
// ftok(3) does, so that unrelated processes can rendezvous on one queue.
package ipckey

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Key is a System V IPC key (a key_t).
type Key int32

// Invalid is the sentinel [Key] returned when no key could be derived.
const Invalid Key = -1

const (
	inodeMask  = 0xffff
	deviceMask = 0xff
	deviceBits = 16
	projectBit = 24
)

type unixProvider interface {
	Stat(path string, stat *unix.Stat_t) error
}

// Handler derives keys using an underlying stat provider.
type Handler struct {
	unixHandler unixProvider
}

// NewHandler returns a pointer to a new [Handler].
func NewHandler(unixHandler unixProvider) *Handler {
	return &Handler{
		unixHandler: unixHandler,
	}
}

// Derive returns the [Key] for a path and project identifier. Only the low
// byte of projectID is used, so values outside of 0-255 wrap around (257 is
// the same project as 1). A project byte of zero always yields [Invalid], as
// does any failure to stat the path.
func (h *Handler) Derive(path string, projectID int) Key {
	proj := Project(projectID)
	if proj == 0 {
		return Invalid
	}

	var stat unix.Stat_t
	if err := h.unixHandler.Stat(path, &stat); err != nil {
		slog.Debug("Failed to stat path for key derivation",
			"path", path,
			"err", err,
		)

		return Invalid
	}

	key := uint32(stat.Ino&inodeMask) |
		uint32(stat.Dev&deviceMask)<<deviceBits |
		uint32(proj)<<projectBit

	return Key(int32(key)) //nolint:gosec
}

// Derive is a convenience wrapper calling [Handler.Derive] on the real
// operating system.
func Derive(path string, projectID int) Key {
	return NewHandler(&Unix{}).Derive(path, projectID)
}

// Project truncates a project identifier to the single byte that ftok(3)
// actually uses.
func Project(projectID int) uint8 {
	return uint8(projectID & 0xff) //nolint:gosec
}

// Valid reports whether the key is not [Invalid].
func (k Key) Valid() bool {
	return k != Invalid
}

// String returns the key in the hexadecimal form used by ipcs(1).
func (k Key) String() string {
	if k == Invalid {
		return "invalid"
	}

	return fmt.Sprintf("0x%08x", uint32(k)) //nolint:gosec
}

// ParseKey parses a key as printed by [Key.String] or ipcs(1), or a decimal
// number.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)

	var (
		v   uint64
		err error
	)

	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		v, err = strconv.ParseUint(rest, 16, 32)
	} else {
		var iv int64
		iv, err = strconv.ParseInt(s, 10, 32)
		v = uint64(uint32(iv)) //nolint:gosec
	}

	if err != nil {
		return Invalid, fmt.Errorf("(ipckey) %w: %q: %w", ErrInvalidKey, s, err)
	}

	key := Key(int32(uint32(v))) //nolint:gosec
	if key == Invalid {
		return Invalid, fmt.Errorf("(ipckey) %w: %q", ErrInvalidKey, s)
	}

	return key, nil
}
