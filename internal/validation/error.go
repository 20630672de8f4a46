package validation

import "errors"

var (
	// ErrNoPath occurs when neither a key nor a path to derive it from is
	// configured.
	ErrNoPath = errors.New("no key or key path")

	// ErrPathNotExist occurs when the path to derive the key from cannot be
	// accessed.
	ErrPathNotExist = errors.New("key path does not exist")

	// ErrInvalidProject occurs when the project identifier is negative.
	ErrInvalidProject = errors.New("project identifier is negative")

	// ErrPermissionExecute occurs when the permission has execute bits, which
	// are meaningless for message queues.
	ErrPermissionExecute = errors.New("permission has execute bits")

	// ErrPermissionRange occurs when the permission has bits beyond the
	// read and write bits of owner, group and others.
	ErrPermissionRange = errors.New("permission has special bits")

	// ErrNegativePayload occurs when the maximum payload size is negative.
	ErrNegativePayload = errors.New("maximum payload size is negative")

	// ErrPayloadLimit occurs when the maximum payload size exceeds what the
	// kernel accepts as a single message by default.
	ErrPayloadLimit = errors.New("maximum payload size exceeds kernel message limit")

	// ErrInvalidType occurs when the message type is not positive.
	ErrInvalidType = errors.New("message type is not positive")
)
