//go:build linux && (amd64 || arm64 || riscv64 || loong64)

package mq

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Unix is an implementation wrapping the System V message queue system calls.
type Unix struct{}

// Msgget wraps around msgget(2).
func (*Unix) Msgget(key int, flags int) (int, error) {
	id, _, errno := unix.Syscall(unix.SYS_MSGGET, uintptr(key), uintptr(flags), 0)
	if errno != 0 {
		return -1, errno
	}

	return int(id), nil
}

// Msgctl wraps around msgctl(2).
func (*Unix) Msgctl(id int, cmd int, buf *msqidDS) error {
	_, _, errno := unix.Syscall(unix.SYS_MSGCTL, uintptr(id), uintptr(cmd), uintptr(unsafe.Pointer(buf)))
	if errno != 0 {
		return errno
	}

	return nil
}

// Msgsnd wraps around msgsnd(2). The size excludes the leading type of buf.
func (*Unix) Msgsnd(id int, buf []byte, size int, flags int) error {
	_, _, errno := unix.Syscall6(unix.SYS_MSGSND,
		uintptr(id), uintptr(unsafe.Pointer(&buf[0])), uintptr(size), uintptr(flags), 0, 0)
	if errno != 0 {
		return errno
	}

	return nil
}

// Msgrcv wraps around msgrcv(2). The size excludes the leading type of buf,
// as does the returned count of received bytes.
func (*Unix) Msgrcv(id int, buf []byte, size int, msgType int64, flags int) (int, error) {
	n, _, errno := unix.Syscall6(unix.SYS_MSGRCV,
		uintptr(id), uintptr(unsafe.Pointer(&buf[0])), uintptr(size), uintptr(msgType), uintptr(flags), 0)
	if errno != 0 {
		return 0, errno
	}

	return int(n), nil
}
