//go:build linux && (amd64 || arm64 || riscv64 || loong64)

package mq

import "golang.org/x/sys/unix"

// msqidDS mirrors struct msqid64_ds of 64-bit Linux.
type msqidDS struct {
	Perm   unix.SysvIpcPerm
	Stime  int64
	Rtime  int64
	Ctime  int64
	Cbytes uint64
	Qnum   uint64
	Qbytes uint64
	Lspid  int32
	Lrpid  int32
	_      [2]uint64
}
