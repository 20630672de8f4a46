// Package validation checks a loaded configuration before any queue is
// created from it.
package validation

import (
	"errors"
	"fmt"
	"os"

	"github.com/desertwitch/sysvmq/internal/configuration"
	"github.com/desertwitch/sysvmq/internal/ipckey"
	"github.com/desertwitch/sysvmq/internal/mq"
)

// KernelMessageLimit is the default maximum message size (msgmax) of Linux,
// which covers the length prefix and the payload.
const KernelMessageLimit = 8192

const lengthPrefixSize = 8

// MaxPayloadLimit is the largest maximum payload size that fits into a
// message of [KernelMessageLimit].
const MaxPayloadLimit = KernelMessageLimit - lengthPrefixSize

// ValidateConfig returns all problems found with a configuration, joined
// into a single error, or nil for a usable configuration.
func ValidateConfig(c *configuration.Config) error {
	var errs []error

	if !c.Key.Valid() {
		if err := validateKeySource(c.Path, c.ProjectID); err != nil {
			errs = append(errs, err)
		}
	}

	if err := validatePermission(c.Permission); err != nil {
		errs = append(errs, err)
	}

	if c.MaxPayload < 0 {
		errs = append(errs, fmt.Errorf("(validation) %w: %d", ErrNegativePayload, c.MaxPayload))
	} else if c.MaxPayload > MaxPayloadLimit {
		errs = append(errs, fmt.Errorf("(validation) %w: %d > %d", ErrPayloadLimit, c.MaxPayload, MaxPayloadLimit))
	}

	if c.Type <= 0 {
		errs = append(errs, fmt.Errorf("(validation) %w: %d", ErrInvalidType, c.Type))
	}

	return errors.Join(errs...)
}

func validateKeySource(path string, projectID int) error {
	if path == "" {
		return fmt.Errorf("(validation) %w", ErrNoPath)
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("(validation) %w: %w", ErrPathNotExist, err)
	}

	if projectID < 0 {
		return fmt.Errorf("(validation) %w: %d", ErrInvalidProject, projectID)
	}

	if ipckey.Project(projectID) == 0 {
		return fmt.Errorf("(validation) %w: %d", ipckey.ErrReservedProject, projectID)
	}

	return nil
}

func validatePermission(p mq.Permission) error {
	if p&^mq.Mask != 0 {
		return fmt.Errorf("(validation) %w: %#o", ErrPermissionRange, uint32(p))
	}

	if p.HasExecute() {
		return fmt.Errorf("(validation) %w: %s", ErrPermissionExecute, p)
	}

	return nil
}
