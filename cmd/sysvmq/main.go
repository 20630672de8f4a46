package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/desertwitch/sysvmq/internal/configuration"
	"github.com/desertwitch/sysvmq/internal/ipckey"
	"github.com/desertwitch/sysvmq/internal/mq"
	"github.com/desertwitch/sysvmq/internal/validation"
)

const (
	stackTraceBufMax = 1 << 24
)

//nolint:gochecknoglobals
var (
	ExitCode = 0
	Version  string
)

type globalFlags struct {
	configFile *string
	debug      *bool
}

// defineFlags defines the global flags on fs. The flags overriding settings
// are read back by [loadConfig] only when explicitly set.
func defineFlags(fs *flag.FlagSet) globalFlags {
	fs.String("path", "", "derive the key from this path")
	fs.Int("project", 0, "derive the key with this project identifier")
	fs.String("key", "", "use this key instead of deriving one (e.g. 0x41035678)")
	fs.String("perm", "", "create the queue with this permission (e.g. 0644 or rw-r--r--)")
	fs.Int("max-payload", 0, "maximum payload size in bytes")
	fs.Int64("type", 0, "message type to send and receive")

	return globalFlags{
		configFile: fs.String("config", "", "read settings from this env-style file"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
}

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, syscall.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()
}

func usage() {
	out := flag.CommandLine.Output()

	fmt.Fprintf(out, "Usage: %s [flags] <command> [command flags] [args]\n\n", os.Args[0])
	fmt.Fprintln(out, "Commands:")
	for _, c := range commands() {
		fmt.Fprintf(out, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
}

// loadConfig reads the configuration from the file (if any) and environment,
// then applies the explicitly set command line flags on top.
func loadConfig(fs *flag.FlagSet, file string) (*configuration.Config, error) {
	configHandler := configuration.NewHandler(&configuration.GodotenvProvider{}, &configuration.OS{})

	var files []string
	if file != "" {
		files = append(files, file)
	}

	config, err := configHandler.Load(files...)
	if err != nil {
		return nil, err
	}

	var errs []error
	fs.Visit(func(f *flag.Flag) {
		value := f.Value.String()

		switch f.Name {
		case "path":
			config.Path = value
		case "project":
			config.ProjectID, err = strconv.Atoi(value)
		case "key":
			config.Key, err = ipckey.ParseKey(value)
		case "perm":
			config.Permission, err = mq.ParsePermission(value)
		case "max-payload":
			config.MaxPayload, err = strconv.Atoi(value)
		case "type":
			config.Type, err = strconv.ParseInt(value, 10, 64)
		}

		if err != nil {
			errs = append(errs, err)
			err = nil
		}
	})

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("(config) invalid flag: %w", err)
	}

	return config, nil
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	flags := defineFlags(flag.CommandLine)
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelInfo
	if *flags.debug {
		level = slog.LevelDebug
	}
	logManager := setupLogging(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandlers(cancel)

	config, err := loadConfig(flag.CommandLine, *flags.configFile)
	if err != nil {
		slog.Error("Failed to load the configuration.",
			"err", err,
		)
		ExitCode = 1

		return
	}

	if err := validation.ValidateConfig(config); err != nil {
		slog.Error("Invalid configuration.",
			"err", err,
		)
		ExitCode = 1

		return
	}

	slog.Debug("Configuration loaded.",
		"version", Version,
		"path", config.Path,
		"project", config.ProjectID,
		"key", config.QueueKey(),
		"perm", config.Permission,
		"maxPayload", config.MaxPayload,
		"type", config.Type,
	)

	app := NewApp(config, logManager, level, os.Stdin, os.Stdout)

	if err := app.Run(ctx, cancel, flag.Args()); err != nil {
		slog.Error("Command failed.",
			"err", err,
		)
		ExitCode = 1
	}
}
