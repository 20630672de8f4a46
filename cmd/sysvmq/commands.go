package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/desertwitch/sysvmq/internal/ipckey"
	"github.com/desertwitch/sysvmq/internal/mq"
	"github.com/desertwitch/sysvmq/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/lmittmann/tint"
	"golang.org/x/sys/unix"
)

const sampleMessages = 10

// sample creates the queue world-writable, narrows its permission, sends ten
// numbered messages without blocking and receives them back in order. A
// final non-blocking receive must find the queue empty.
func (app *App) sample(_ context.Context, _ context.CancelFunc, args []string) error {
	fs := newFlagSet("sample")
	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := app.key()
	if err != nil {
		return err
	}

	q, err := mq.New(key,
		mq.WithPermission(mq.AllReadWrite),
		mq.WithMaxPayload(app.config.MaxPayload),
	)
	if err != nil {
		return err
	}

	return app.runSample(q)
}

// sampleQueue is the part of [mq.Queue] used by the sample exchange.
type sampleQueue interface {
	Key() ipckey.Key
	ID() int
	IsOwner() bool
	Permission() mq.Permission
	ChangePermission(p mq.Permission) error
	Send(msg []byte, msgType int64, mode mq.Mode) error
	Receive(msgType int64, mode mq.Mode) error
	Message() ([]byte, error)
	LastError() unix.Errno
	Close() error
}

// runSample runs the exchange on q and closes it. A failed removal of an
// owned queue fails the run.
func (app *App) runSample(q sampleQueue) (err error) {
	defer func() {
		err = errors.Join(err, q.Close())
	}()

	if !q.IsOwner() {
		slog.Warn("Queue already existed, it is left in place afterwards.",
			"key", q.Key(),
			"id", q.ID(),
		)
	}

	if err := q.ChangePermission(mq.OwnerReadWriteGroupReadOtherRead); err != nil {
		return err
	}

	fmt.Fprintf(app.out, "queue %s (id %d) permission %s\n", q.Key(), q.ID(), q.Permission())

	for i := range sampleMessages {
		if err := q.Send([]byte(strconv.Itoa(i)), app.config.Type, mq.NoWait); err != nil {
			return err
		}
	}

	for i := range sampleMessages {
		if err := q.Receive(app.config.Type, mq.Wait); err != nil {
			return err
		}

		msg, err := q.Message()
		if err != nil {
			return err
		}

		if want := strconv.Itoa(i); string(msg) != want {
			return fmt.Errorf("%w: received %q, expected %q", ErrSampleMismatch, msg, want)
		}

		fmt.Fprintf(app.out, "received %s\n", msg)
	}

	err = q.Receive(app.config.Type, mq.NoWait)
	if err == nil {
		return fmt.Errorf("%w: expected an empty queue, got another message", ErrSampleMismatch)
	}
	if !errors.Is(err, mq.ErrNoMessage) {
		return err
	}

	fmt.Fprintf(app.out, "empty: %s\n", q.LastError())

	return nil
}

func (app *App) send(ctx context.Context, _ context.CancelFunc, args []string) error {
	fs := newFlagSet("send")
	nowait := fs.Bool("nowait", false, "fail instead of waiting when the queue is full")
	digest := fs.Bool("digest", false, "log a BLAKE3 digest over the sent payloads")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := app.open()
	if err != nil {
		return err
	}
	defer q.Close()

	var sum *payloadDigest
	if *digest {
		sum = newPayloadDigest()
	}

	sendOne := func(payload []byte) error {
		var err error
		if *nowait {
			err = q.Send(payload, app.config.Type, mq.NoWait)
		} else {
			err = blockingCall(ctx, func() error {
				return q.Send(payload, app.config.Type, mq.NoWait)
			}, mq.ErrWouldBlock)
		}
		if err != nil {
			return err
		}

		if sum != nil {
			sum.Add(payload)
		}

		return nil
	}

	if fs.NArg() > 0 {
		for _, arg := range fs.Args() {
			if err := sendOne([]byte(arg)); err != nil {
				return err
			}
		}
	} else {
		scanner := bufio.NewScanner(app.in)
		for scanner.Scan() {
			if err := sendOne(scanner.Bytes()); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	if sum != nil {
		sum.Log("sent")
	}

	return nil
}

func (app *App) recv(ctx context.Context, _ context.CancelFunc, args []string) error {
	fs := newFlagSet("recv")
	nowait := fs.Bool("nowait", false, "stop instead of waiting when the queue is empty")
	count := fs.Int("n", 0, "stop after this many messages (0 for no limit)")
	timeout := fs.Duration("timeout", 0, "stop waiting after this duration (0 for no limit)")
	anyType := fs.Bool("any", false, "receive messages of any type")
	digest := fs.Bool("digest", false, "log a BLAKE3 digest over the received payloads")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := app.open()
	if err != nil {
		return err
	}
	defer q.Close()

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	msgType := app.config.Type
	if *anyType {
		msgType = mq.AnyType
	}

	var sum *payloadDigest
	if *digest {
		sum = newPayloadDigest()
	}

	var received int
	for *count == 0 || received < *count {
		var err error
		if *nowait {
			err = q.Receive(msgType, mq.NoWait)
		} else {
			err = blockingCall(ctx, func() error {
				return q.Receive(msgType, mq.NoWait)
			}, mq.ErrNoMessage)
		}
		if err != nil {
			if *count == 0 && (errors.Is(err, mq.ErrNoMessage) || ctx.Err() != nil) {
				break
			}

			return fmt.Errorf("%w: %d of %d: %w", ErrIncomplete, received, *count, err)
		}

		msg, err := q.Message()
		if err != nil {
			return err
		}

		if sum != nil {
			sum.Add(msg)
		}

		if *anyType {
			fmt.Fprintf(app.out, "%d\t%s\n", q.ReceivedType(), msg)
		} else {
			fmt.Fprintf(app.out, "%s\n", msg)
		}

		received++
	}

	slog.Debug("Finished receiving.",
		"key", q.Key(),
		"type", msgType,
		"count", received,
	)

	if sum != nil {
		sum.Log("received")
	}

	return nil
}

func (app *App) stat(_ context.Context, _ context.CancelFunc, args []string) error {
	fs := newFlagSet("stat")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := app.attach()
	if err != nil {
		return err
	}
	defer q.Close()

	info := q.Info()

	fmt.Fprintf(app.out, "%-13s %s\n", "key", info.Key)
	fmt.Fprintf(app.out, "%-13s %d\n", "id", info.ID)
	fmt.Fprintf(app.out, "%-13s %s (%#o)\n", "permission", info.Permission, uint32(info.Permission))
	fmt.Fprintf(app.out, "%-13s uid=%d gid=%d (creator uid=%d gid=%d)\n", "owner", info.UID, info.GID, info.CUID, info.CGID)
	fmt.Fprintf(app.out, "%-13s %d\n", "messages", info.Messages)
	fmt.Fprintf(app.out, "%-13s %s of %s (%.2f%%)\n", "bytes",
		humanize.IBytes(info.Bytes), humanize.IBytes(info.MaxBytes), info.FillRatio()*100) //nolint:mnd
	fmt.Fprintf(app.out, "%-13s %s (pid %d)\n", "last send", formatTime(info.SentAt), info.LastSendPID)
	fmt.Fprintf(app.out, "%-13s %s (pid %d)\n", "last receive", formatTime(info.ReceivedAt), info.LastReceivePID)
	fmt.Fprintf(app.out, "%-13s %s\n", "last change", formatTime(info.ChangedAt))

	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	return fmt.Sprintf("%s (%s)", humanize.Time(t), t.Format(time.DateTime))
}

func (app *App) chmod(_ context.Context, _ context.CancelFunc, args []string) error {
	fs := newFlagSet("chmod")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("%w: permission (e.g. 0640 or rw-r-----)", ErrMissingArgument)
	}

	perm, err := mq.ParsePermission(fs.Arg(0))
	if err != nil {
		return err
	}

	if perm.HasExecute() {
		slog.Warn("Execute bits have no meaning for message queues.",
			"perm", perm,
		)
	}

	q, err := app.attach()
	if err != nil {
		return err
	}
	defer q.Close()

	previous := q.Permission()

	if err := q.ChangePermission(perm); err != nil {
		return err
	}

	slog.Info("Changed permission of message queue.",
		"key", q.Key(),
		"id", q.ID(),
		"from", previous,
		"to", q.Permission(),
	)

	return nil
}

func (app *App) rm(_ context.Context, _ context.CancelFunc, args []string) error {
	fs := newFlagSet("rm")
	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := app.key()
	if err != nil {
		return err
	}

	if err := mq.Remove(key); err != nil {
		return err
	}

	slog.Info("Removed message queue.",
		"key", key,
	)

	return nil
}

// top runs the monitor on an attached handle. While it runs, logs are shown
// inside the monitor instead of the terminal.
func (app *App) top(ctx context.Context, cancel context.CancelFunc, args []string) error {
	fs := newFlagSet("top")
	interval := fs.Duration("interval", ui.DefaultInterval, "interval between two polls")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := app.attach()
	if err != nil {
		return err
	}
	defer q.Close()

	uiHandler := ui.NewHandler(ctx, cancel, q, *interval)

	app.logManager.AddHandler(uiLogHandler, tint.NewHandler(uiHandler.LogWriter, &tint.Options{
		Level:      app.logLevel,
		TimeFormat: time.Kitchen,
		NoColor:    true,
	}))
	app.logManager.RemoveHandler(terminalLogHandler)

	defer func() {
		app.logManager.AddHandler(terminalLogHandler, newTerminalHandler(app.logLevel))
		app.logManager.RemoveHandler(uiLogHandler)
	}()

	slog.Info("Monitoring message queue.",
		"key", q.Key(),
		"id", q.ID(),
		"interval", *interval,
	)

	if err := uiHandler.Launch(); err != nil {
		if ctx.Err() != nil {
			return nil
		}

		return err
	}

	return nil
}
