package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/desertwitch/sysvmq/internal/configuration"
	"github.com/desertwitch/sysvmq/internal/ipckey"
	"github.com/desertwitch/sysvmq/internal/mq"
)

const (
	pollMinInterval = 5 * time.Millisecond
	pollMaxInterval = 200 * time.Millisecond
)

type command struct {
	name    string
	summary string
	run     func(app *App, ctx context.Context, cancel context.CancelFunc, args []string) error
}

func commands() []command {
	return []command{
		{"sample", "run the ten message sample exchange and remove the queue", (*App).sample},
		{"send", "send the arguments (or stdin lines) as messages", (*App).send},
		{"recv", "receive messages and print their payloads", (*App).recv},
		{"stat", "print the metadata of the queue", (*App).stat},
		{"chmod", "change the permission of the queue", (*App).chmod},
		{"rm", "remove the queue regardless of its owner", (*App).rm},
		{"top", "monitor the queue interactively", (*App).top},
	}
}

// App runs the commands against the queue of a configuration.
type App struct {
	config     *configuration.Config
	logManager *SlogManager
	logLevel   slog.Leveler

	in  io.Reader
	out io.Writer
}

func NewApp(config *configuration.Config,
	logManager *SlogManager,
	logLevel slog.Leveler,
	in io.Reader,
	out io.Writer,
) *App {
	return &App{
		config:     config,
		logManager: logManager,
		logLevel:   logLevel,
		in:         in,
		out:        out,
	}
}

// Run dispatches to the command named by the first argument.
func (app *App) Run(ctx context.Context, cancel context.CancelFunc, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("(app) %w", ErrNoCommand)
	}

	for _, c := range commands() {
		if c.name == args[0] {
			if err := c.run(app, ctx, cancel, args[1:]); err != nil {
				return fmt.Errorf("(app) %s: %w", c.name, err)
			}

			return nil
		}
	}

	return fmt.Errorf("(app) %w: %q", ErrUnknownCommand, args[0])
}

func (app *App) key() (ipckey.Key, error) {
	key := app.config.QueueKey()
	if !key.Valid() {
		return ipckey.Invalid, fmt.Errorf("%w: path %q, project %d", ErrInvalidKey, app.config.Path, app.config.ProjectID)
	}

	return key, nil
}

// open creates or attaches to the queue. The handle is disowned, so that the
// queue outlives this process until it is removed with "rm".
func (app *App) open() (*mq.Queue, error) {
	key, err := app.key()
	if err != nil {
		return nil, err
	}

	q, err := mq.New(key,
		mq.WithPermission(app.config.Permission),
		mq.WithMaxPayload(app.config.MaxPayload),
	)
	if err != nil {
		return nil, err
	}

	if q.IsOwner() {
		slog.Info("Created message queue (remove it with 'rm').",
			"key", q.Key(),
			"id", q.ID(),
			"perm", q.Permission(),
		)
	}
	q.Disown()

	return q, nil
}

func (app *App) attach() (*mq.Queue, error) {
	key, err := app.key()
	if err != nil {
		return nil, err
	}

	return mq.Attach(key, mq.WithMaxPayload(app.config.MaxPayload))
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// blockingCall repeats a non-blocking queue operation with growing pauses
// for as long as it fails with busy, until ctx is done.
func blockingCall(ctx context.Context, call func() error, busy error) error {
	delay := pollMinInterval

	for {
		err := call()
		if !errors.Is(err, busy) {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (%w)", ctx.Err(), err)
		case <-time.After(delay):
		}

		delay = min(delay*2, pollMaxInterval) //nolint:mnd
	}
}
