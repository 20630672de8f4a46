package mq

import (
	"time"

	"github.com/desertwitch/sysvmq/internal/ipckey"
)

// Info is a snapshot of the kernel's metadata for a message queue.
type Info struct {
	Key        ipckey.Key
	ID         int
	Permission Permission

	UID  uint32
	GID  uint32
	CUID uint32
	CGID uint32

	SentAt     time.Time
	ReceivedAt time.Time
	ChangedAt  time.Time

	Bytes    uint64
	Messages uint64
	MaxBytes uint64

	LastSendPID    int
	LastReceivePID int
}

// FillRatio returns how full the queue is, between 0 and 1.
func (i Info) FillRatio() float64 {
	if i.MaxBytes == 0 {
		return 0
	}

	return min(float64(i.Bytes)/float64(i.MaxBytes), 1)
}

func newInfo(key ipckey.Key, id int, ds *msqidDS) Info {
	return Info{
		Key:            key,
		ID:             id,
		Permission:     PermissionFromMode(ds.Perm.Mode),
		UID:            ds.Perm.Uid,
		GID:            ds.Perm.Gid,
		CUID:           ds.Perm.Cuid,
		CGID:           ds.Perm.Cgid,
		SentAt:         unixTime(ds.Stime),
		ReceivedAt:     unixTime(ds.Rtime),
		ChangedAt:      unixTime(ds.Ctime),
		Bytes:          ds.Cbytes,
		Messages:       ds.Qnum,
		MaxBytes:       ds.Qbytes,
		LastSendPID:    int(ds.Lspid),
		LastReceivePID: int(ds.Lrpid),
	}
}

// unixTime returns the zero [time.Time] for the kernel's "never" value.
func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}

	return time.Unix(sec, 0)
}
