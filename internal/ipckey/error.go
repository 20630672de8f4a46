package ipckey

import "errors"

var (
	// ErrInvalidKey occurs when a textual [Key] cannot be parsed.
	ErrInvalidKey = errors.New("invalid key")

	// ErrReservedProject occurs when a project identifier truncates to zero.
	ErrReservedProject = errors.New("project identifier truncates to zero")
)
