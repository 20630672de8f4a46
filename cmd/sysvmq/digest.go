package main

import (
	"encoding/binary"
	"encoding/hex"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"
)

// payloadDigest is a running BLAKE3 digest over a stream of payloads. Each
// payload is prefixed with its length, so that the split into messages is
// part of the digest.
type payloadDigest struct {
	hasher   *blake3.Hasher
	messages int
	bytes    uint64
}

func newPayloadDigest() *payloadDigest {
	return &payloadDigest{
		hasher: blake3.New(),
	}
}

func (d *payloadDigest) Add(payload []byte) {
	var prefix [8]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(payload)))

	_, _ = d.hasher.Write(prefix[:])
	_, _ = d.hasher.Write(payload)

	d.messages++
	d.bytes += uint64(len(payload))
}

func (d *payloadDigest) Sum() string {
	return hex.EncodeToString(d.hasher.Sum(nil))
}

func (d *payloadDigest) Log(direction string) {
	slog.Info("Payload digest.",
		"direction", direction,
		"blake3", d.Sum(),
		"messages", d.messages,
		"bytes", humanize.IBytes(d.bytes),
	)
}
