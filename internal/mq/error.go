package mq

import (
	"errors"

	"golang.org/x/sys/unix"
)

var (
	// ErrInvalidKey occurs when a [Queue] is requested for the sentinel key.
	ErrInvalidKey = errors.New("invalid queue key")

	// ErrInvalidMaxPayload occurs when a negative maximum payload size is
	// configured.
	ErrInvalidMaxPayload = errors.New("invalid maximum payload size")

	// ErrInvalidPermission occurs when a [Permission] cannot be parsed or has
	// bits outside of the permission mask.
	ErrInvalidPermission = errors.New("invalid permission")

	// ErrInvalidType occurs when a message is sent with a type tag that is
	// not strictly positive.
	ErrInvalidType = errors.New("message type must be positive")

	// ErrQueueInaccessible occurs when a queue exists, but it could not be
	// opened by this process.
	ErrQueueInaccessible = errors.New("queue exists but is inaccessible")

	// ErrPayloadTooLarge occurs when a payload exceeds the maximum payload
	// size of the [Queue]. Such payloads are rejected, never truncated.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum payload size")

	// ErrMalformedFrame occurs when a received message carries a length
	// prefix that does not fit the delivered bytes.
	ErrMalformedFrame = errors.New("malformed message frame")

	// ErrNoMessageReceived occurs when a message is requested from a [Queue]
	// without a preceding successful receive.
	ErrNoMessageReceived = errors.New("no message has been received")

	// ErrClosed occurs when operating on a closed (or transferred) [Queue].
	ErrClosed = errors.New("queue handle is closed")

	// ErrUninitialized occurs when operating on a [Queue] that was not
	// returned by [New] or [Attach].
	ErrUninitialized = errors.New("queue handle is not initialized")
)

// These are the kernel conditions a caller is expected to handle. They alias
// the errno values, so [errors.Is] matches both forms.
var (
	// ErrWouldBlock is returned by a non-blocking send on a full queue.
	ErrWouldBlock error = unix.EAGAIN

	// ErrNoMessage is returned by a non-blocking receive when no message of
	// the requested type is queued.
	ErrNoMessage error = unix.ENOMSG

	// ErrRemoved is returned when the queue was removed by another process.
	ErrRemoved error = unix.EIDRM

	// ErrNotExist is returned when attaching to a queue that does not exist.
	ErrNotExist error = unix.ENOENT
)
