package mq

import (
	"testing"
	"time"

	"github.com/desertwitch/sysvmq/internal/ipckey"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

// TestNewInfo tests the conversion of the kernel's metadata.
func TestNewInfo(t *testing.T) {
	t.Parallel()

	ds := msqidDS{
		Perm: unix.SysvIpcPerm{
			Uid:  1000,
			Gid:  100,
			Cuid: 0,
			Cgid: 0,
			Mode: 0o1644,
		},
		Stime:  1700000000,
		Rtime:  0,
		Ctime:  1600000000,
		Cbytes: 48,
		Qnum:   3,
		Qbytes: 16384,
		Lspid:  4242,
		Lrpid:  0,
	}

	info := newInfo(ipckey.Key(0x1234), 7, &ds)

	assert.Equal(t, ipckey.Key(0x1234), info.Key)
	assert.Equal(t, 7, info.ID)
	assert.Equal(t, DefaultPermission, info.Permission)
	assert.Equal(t, uint32(1000), info.UID)
	assert.Equal(t, uint32(100), info.GID)
	assert.Equal(t, time.Unix(1700000000, 0), info.SentAt)
	assert.True(t, info.ReceivedAt.IsZero(), "zero kernel time means never")
	assert.Equal(t, time.Unix(1600000000, 0), info.ChangedAt)
	assert.Equal(t, uint64(48), info.Bytes)
	assert.Equal(t, uint64(3), info.Messages)
	assert.Equal(t, uint64(16384), info.MaxBytes)
	assert.Equal(t, 4242, info.LastSendPID)
	assert.Equal(t, 0, info.LastReceivePID)
}

// TestInfo_FillRatio tests the fill ratio, including its bounds.
func TestInfo_FillRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		info     Info
		expected float64
	}{
		{"Success_Empty", Info{Bytes: 0, MaxBytes: 16384}, 0},
		{"Success_Half", Info{Bytes: 8192, MaxBytes: 16384}, 0.5},
		{"Success_Full", Info{Bytes: 16384, MaxBytes: 16384}, 1},
		{"Success_OverCapacity", Info{Bytes: 20000, MaxBytes: 16384}, 1},
		{"Success_NoCapacity", Info{Bytes: 10, MaxBytes: 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.expected, tt.info.FillRatio(), 1e-9)
		})
	}
}
