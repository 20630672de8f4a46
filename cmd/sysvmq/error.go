package main

import "errors"

var (
	// ErrNoCommand occurs when no command was given on the command line.
	ErrNoCommand = errors.New("no command given")

	// ErrUnknownCommand occurs when the given command does not exist.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMissingArgument occurs when a command is missing a required argument.
	ErrMissingArgument = errors.New("missing argument")

	// ErrInvalidKey occurs when no valid key results from the configuration.
	ErrInvalidKey = errors.New("configuration yields no valid key")

	// ErrIncomplete occurs when fewer messages than requested were received.
	ErrIncomplete = errors.New("fewer messages than requested")

	// ErrSampleMismatch occurs when the sample exchange deviates from its
	// expected course.
	ErrSampleMismatch = errors.New("sample exchange deviated")
)
