// Package mq implements a handle on a System V message queue, which is shared
// between unrelated processes through a common [ipckey.Key].
//
// The process whose [Queue] created the kernel object is its owner, and only
// the owner removes it again on [Queue.Close]. Every other handle attaches to
// the existing object and leaves it in place for the remaining processes.
//
// A [Queue] holds a single transfer buffer and is not safe for concurrent use.
package mq

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/desertwitch/sysvmq/internal/ipckey"
	"golang.org/x/sys/unix"
)

// DefaultMaxPayload is the maximum payload size unless configured otherwise.
const DefaultMaxPayload = 128

// AnyType receives the next message regardless of its type.
const AnyType int64 = 0

type ipcProvider interface {
	Msgget(key int, flags int) (int, error)
	Msgctl(id int, cmd int, buf *msqidDS) error
	Msgsnd(id int, buf []byte, size int, flags int) error
	Msgrcv(id int, buf []byte, size int, msgType int64, flags int) (int, error)
}

// State is the lifecycle state of a [Queue].
type State int

const (
	// StateOwned is a [Queue] that created the kernel object.
	StateOwned State = iota + 1

	// StateAttached is a [Queue] that opened an existing kernel object.
	StateAttached

	// StateClosed is a [Queue] that was closed or transferred.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOwned:
		return "owned"
	case StateAttached:
		return "attached"
	case StateClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Mode selects between blocking and non-blocking operations.
type Mode int

const (
	// Wait blocks until the operation can proceed.
	Wait Mode = iota

	// NoWait returns [ErrWouldBlock] or [ErrNoMessage] instead of blocking.
	NoWait
)

func (m Mode) flags() int {
	if m == NoWait {
		return unix.IPC_NOWAIT
	}

	return 0
}

// Option configures a [Queue] on construction.
type Option func(*options)

type options struct {
	permission Permission
	maxPayload int
}

// WithPermission sets the [Permission] for a newly created queue. It has no
// effect when attaching to an existing queue.
func WithPermission(p Permission) Option {
	return func(o *options) {
		o.permission = p
	}
}

// WithMaxPayload sets the maximum payload size in bytes, which sizes the
// transfer buffer. Larger payloads are rejected by [Queue.Send].
func WithMaxPayload(n int) Option {
	return func(o *options) {
		o.maxPayload = n
	}
}

// Queue is a handle on a System V message queue.
type Queue struct {
	sysHandler ipcProvider

	key   ipckey.Key
	id    int
	owner bool
	state State

	ds         msqidDS
	permission Permission

	maxPayload int
	buf        []byte

	received     int
	receivedType int64

	lastErr unix.Errno
}

// New creates the queue for key, or attaches to it if it already exists. The
// returned [Queue] owns the kernel object only in the former case.
func New(key ipckey.Key, opts ...Option) (*Queue, error) {
	return newQueue(key, &Unix{}, true, opts...)
}

// Attach opens the already existing queue for key, failing with
// [ErrNotExist] otherwise. The returned [Queue] never owns the kernel object.
func Attach(key ipckey.Key, opts ...Option) (*Queue, error) {
	return newQueue(key, &Unix{}, false, opts...)
}

// Remove deletes the queue for key regardless of which process owns it.
func Remove(key ipckey.Key) error {
	return removeKey(key, &Unix{})
}

func newQueue(key ipckey.Key, sysHandler ipcProvider, create bool, opts ...Option) (*Queue, error) {
	o := options{
		permission: DefaultPermission,
		maxPayload: DefaultMaxPayload,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if !key.Valid() {
		return nil, fmt.Errorf("(mq) %w", ErrInvalidKey)
	}

	if o.maxPayload < 0 {
		return nil, fmt.Errorf("(mq) %w: %d", ErrInvalidMaxPayload, o.maxPayload)
	}

	q := &Queue{
		sysHandler: sysHandler,
		key:        key,
		maxPayload: o.maxPayload,
		received:   -1,
	}

	if create {
		if err := q.create(o.permission); err != nil {
			return nil, err
		}
	} else {
		if err := q.attach(); err != nil {
			return nil, err
		}
	}

	if err := q.stat(); err != nil {
		if q.owner {
			if rmErr := q.remove(); rmErr != nil {
				err = errors.Join(err, rmErr)
			}
		}

		return nil, err
	}

	q.buf = make([]byte, 0, headerSize+q.maxPayload)

	return q, nil
}

// create makes an exclusive attempt at creating the queue, falling back to
// attaching when the queue already exists.
func (q *Queue) create(perm Permission) error {
	id, err := q.sysHandler.Msgget(int(q.key), unix.IPC_CREAT|unix.IPC_EXCL|int(perm&Mask))
	if err == nil {
		q.id = id
		q.owner = true
		q.state = StateOwned

		slog.Debug("Created message queue",
			"key", q.key,
			"id", q.id,
			"perm", perm&Mask,
		)

		return nil
	}

	if !errors.Is(err, unix.EEXIST) {
		q.capture(err)

		return fmt.Errorf("(mq) failed to create queue %s: %w", q.key, err)
	}

	if err := q.attach(); err != nil {
		if errors.Is(err, ErrNotExist) {
			// Removed by its owner in between both calls.
			return fmt.Errorf("(mq) %w: %s vanished while attaching: %w", ErrQueueInaccessible, q.key, err)
		}

		return err
	}

	return nil
}

func (q *Queue) attach() error {
	id, err := q.sysHandler.Msgget(int(q.key), 0)
	if err != nil {
		q.capture(err)

		if errors.Is(err, ErrNotExist) {
			return fmt.Errorf("(mq) failed to attach to queue %s: %w", q.key, err)
		}

		return fmt.Errorf("(mq) %w: %s: %w", ErrQueueInaccessible, q.key, err)
	}

	q.id = id
	q.owner = false
	q.state = StateAttached

	slog.Debug("Attached to existing message queue",
		"key", q.key,
		"id", q.id,
	)

	return nil
}

func (q *Queue) stat() error {
	var ds msqidDS

	if err := q.sysHandler.Msgctl(q.id, unix.IPC_STAT, &ds); err != nil {
		q.capture(err)

		return fmt.Errorf("(mq) failed to stat queue %s: %w", q.key, err)
	}

	q.ds = ds
	q.permission = PermissionFromMode(ds.Perm.Mode)

	return nil
}

func (q *Queue) remove() error {
	if err := q.sysHandler.Msgctl(q.id, unix.IPC_RMID, nil); err != nil {
		if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.EIDRM) {
			slog.Debug("Message queue was already removed",
				"key", q.key,
				"id", q.id,
			)

			return nil
		}

		q.capture(err)

		return fmt.Errorf("(mq) failed to remove queue %s: %w", q.key, err)
	}

	slog.Debug("Removed message queue",
		"key", q.key,
		"id", q.id,
	)

	return nil
}

func removeKey(key ipckey.Key, sysHandler ipcProvider) error {
	if !key.Valid() {
		return fmt.Errorf("(mq) %w", ErrInvalidKey)
	}

	q := &Queue{
		sysHandler: sysHandler,
		key:        key,
	}

	if err := q.attach(); err != nil {
		return err
	}

	return q.remove()
}

// Close releases the handle. An owning handle removes the kernel object; an
// attached handle leaves it to the other processes. A failed removal is
// logged, recorded as [Queue.LastError] and returned, and the handle is
// closed regardless. Closing an already closed handle does nothing.
func (q *Queue) Close() error {
	if q.state == StateClosed {
		return nil
	}

	owner := q.owner
	q.invalidate()

	if !owner {
		return nil
	}

	if err := q.remove(); err != nil {
		slog.Warn("Failed to remove owned message queue (it persists in the kernel)",
			"key", q.key,
			"id", q.id,
			"err", err,
		)

		return err
	}

	return nil
}

// Transfer moves the handle, including any ownership, into a new [Queue].
// The receiver is closed afterwards and no longer removes the kernel object.
func (q *Queue) Transfer() *Queue {
	moved := &Queue{
		sysHandler:   q.sysHandler,
		key:          q.key,
		id:           q.id,
		owner:        q.owner,
		state:        q.state,
		ds:           q.ds,
		permission:   q.permission,
		maxPayload:   q.maxPayload,
		buf:          q.buf,
		received:     q.received,
		receivedType: q.receivedType,
		lastErr:      q.lastErr,
	}

	q.invalidate()

	return moved
}

// Disown gives up the ownership, so that [Queue.Close] leaves the kernel
// object in place. Responsibility for removal passes to another process.
func (q *Queue) Disown() {
	if q.state == StateOwned {
		q.state = StateAttached
	}
	q.owner = false
}

func (q *Queue) invalidate() {
	q.state = StateClosed
	q.owner = false
	q.buf = nil
	q.received = -1
}

// ChangePermission sets the permission of the kernel object. When the kernel
// rejects the change, the cached permission keeps its previous value.
func (q *Queue) ChangePermission(p Permission) error {
	if err := q.live(); err != nil {
		return err
	}

	ds := q.current()
	ds.Perm.Mode = (ds.Perm.Mode &^ uint32(Mask)) | uint32(p&Mask)

	if err := q.sysHandler.Msgctl(q.id, unix.IPC_SET, &ds); err != nil {
		q.capture(err)

		return fmt.Errorf("(mq) failed to change permission of %s to %s: %w", q.key, p&Mask, err)
	}

	q.applied(&ds)

	return nil
}

// SetMaxBytes sets the capacity of the queue in bytes, which the kernel only
// allows to be raised above its default limit for privileged processes.
func (q *Queue) SetMaxBytes(n uint64) error {
	if err := q.live(); err != nil {
		return err
	}

	ds := q.current()
	ds.Qbytes = n

	if err := q.sysHandler.Msgctl(q.id, unix.IPC_SET, &ds); err != nil {
		q.capture(err)

		return fmt.Errorf("(mq) failed to set capacity of %s to %d: %w", q.key, n, err)
	}

	q.applied(&ds)

	return nil
}

// current re-reads the metadata right before an IPC_SET, which writes back
// the capacity and owner along with the mode. The snapshot stands in only
// when the mode forbids reading.
func (q *Queue) current() msqidDS {
	var ds msqidDS

	if err := q.sysHandler.Msgctl(q.id, unix.IPC_STAT, &ds); err != nil {
		slog.Debug("Failed to read queue metadata before change, using snapshot",
			"key", q.key,
			"id", q.id,
			"err", err,
		)

		return q.ds
	}

	return ds
}

// applied updates the snapshot after a successful IPC_SET. The snapshot is
// re-read where possible, but a mode without owner read can forbid that.
func (q *Queue) applied(ds *msqidDS) {
	if err := q.stat(); err != nil {
		slog.Debug("Failed to refresh queue metadata after change",
			"key", q.key,
			"id", q.id,
			"err", err,
		)

		q.ds = *ds
		q.permission = PermissionFromMode(ds.Perm.Mode)
	}
}

// Send enqueues msg with the given type. With [NoWait], a full queue fails
// with [ErrWouldBlock] instead of blocking. Payloads above the maximum
// payload size fail with [ErrPayloadTooLarge] before reaching the kernel.
func (q *Queue) Send(msg []byte, msgType int64, mode Mode) error {
	if err := q.live(); err != nil {
		return err
	}

	if msgType <= 0 {
		return fmt.Errorf("(mq) %w: %d", ErrInvalidType, msgType)
	}

	if len(msg) > q.maxPayload {
		return fmt.Errorf("(mq) %w: %d > %d bytes", ErrPayloadTooLarge, len(msg), q.maxPayload)
	}

	q.buf = encodeFrame(q.buf[:0], msgType, msg)

	err := retryInterrupted(func() error {
		return q.sysHandler.Msgsnd(q.id, q.buf, len(q.buf)-typeSize, mode.flags())
	})
	if err != nil {
		q.capture(err)

		return fmt.Errorf("(mq) failed to send to %s: %w", q.key, err)
	}

	return nil
}

// Receive dequeues the next message of exactly msgType, or of any type for
// [AnyType]. With [NoWait], an empty queue fails with [ErrNoMessage] instead
// of blocking. The payload is then available from [Queue.Message].
func (q *Queue) Receive(msgType int64, mode Mode) error {
	if err := q.live(); err != nil {
		return err
	}

	q.received = -1

	size := headerSize + q.maxPayload
	q.buf = slices.Grow(q.buf[:0], size)[:size]
	clear(q.buf)

	var n int
	err := retryInterrupted(func() error {
		var err error
		n, err = q.sysHandler.Msgrcv(q.id, q.buf, size-typeSize, msgType, mode.flags())

		return err
	})
	if err != nil {
		q.capture(err)

		return fmt.Errorf("(mq) failed to receive from %s: %w", q.key, err)
	}

	q.received = n
	q.receivedType = frameType(q.buf)

	return nil
}

// Message returns the payload of the last successful [Queue.Receive], sized
// by the length prefix embedded in the message.
func (q *Queue) Message() ([]byte, error) {
	if q.received < 0 || typeSize+q.received > len(q.buf) {
		return nil, fmt.Errorf("(mq) %w", ErrNoMessageReceived)
	}

	_, payload, err := decodeFrame(q.buf[:typeSize+q.received])
	if err != nil {
		return nil, err
	}

	return payload, nil
}

// ReceivedType returns the type of the last successfully received message.
func (q *Queue) ReceivedType() int64 {
	return q.receivedType
}

// Refresh re-reads the metadata snapshot from the kernel.
func (q *Queue) Refresh() error {
	if err := q.live(); err != nil {
		return err
	}

	return q.stat()
}

// Info returns the metadata snapshot, as of construction, the last change
// or the last [Queue.Refresh].
func (q *Queue) Info() Info {
	return newInfo(q.key, q.id, &q.ds)
}

// LastError returns the error number of the last failed kernel call. It is
// not reset by successful calls.
func (q *Queue) LastError() unix.Errno {
	return q.lastErr
}

// Key returns the key the handle was constructed with.
func (q *Queue) Key() ipckey.Key {
	return q.key
}

// ID returns the kernel's identifier of the queue.
func (q *Queue) ID() int {
	return q.id
}

// IsOwner reports whether the handle removes the queue on [Queue.Close].
func (q *Queue) IsOwner() bool {
	return q.owner
}

// State returns the lifecycle state of the handle.
func (q *Queue) State() State {
	return q.state
}

// Permission returns the cached permission of the queue.
func (q *Queue) Permission() Permission {
	return q.permission
}

// MaxPayload returns the maximum payload size in bytes.
func (q *Queue) MaxPayload() int {
	return q.maxPayload
}

func (q *Queue) live() error {
	switch q.state {
	case StateOwned, StateAttached:
		return nil
	case StateClosed:
		return fmt.Errorf("(mq) %w", ErrClosed)
	default:
		return fmt.Errorf("(mq) %w", ErrUninitialized)
	}
}

func (q *Queue) capture(err error) {
	var errno unix.Errno
	if errors.As(err, &errno) {
		q.lastErr = errno
	}
}

// retryInterrupted repeats a system call interrupted by a signal. The Go
// runtime signals its threads for preemption, and the kernel never restarts
// System V message calls on its own.
func retryInterrupted(fn func() error) error {
	for {
		err := fn()
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
