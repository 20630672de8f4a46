package mq

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Permission is a set of read and write rights on a message queue, as
// owner, group and other bits of a Unix mode. Sets combine with the bitwise
// OR operator or [Union].
type Permission uint32

const (
	OwnerRead  Permission = 0o400
	OwnerWrite Permission = 0o200
	GroupRead  Permission = 0o040
	GroupWrite Permission = 0o020
	OtherRead  Permission = 0o004
	OtherWrite Permission = 0o002

	OwnerReadWrite Permission = OwnerRead | OwnerWrite
	GroupReadWrite Permission = GroupRead | GroupWrite
	OtherReadWrite Permission = OtherRead | OtherWrite
	AllReadWrite   Permission = OwnerReadWrite | GroupReadWrite | OtherReadWrite

	OwnerReadWriteGroupReadOtherRead   Permission = OwnerReadWrite | GroupRead | OtherRead
	OwnerReadWriteGroupWriteOtherWrite Permission = OwnerReadWrite | GroupWrite | OtherWrite

	// DefaultPermission is used for new queues unless configured otherwise.
	DefaultPermission = OwnerReadWriteGroupReadOtherRead

	// Mask covers all permission bits of a Unix mode.
	Mask Permission = 0o777

	executeBits Permission = 0o111
)

// Union returns the union of all given sets.
func Union(perms ...Permission) Permission {
	var p Permission
	for _, perm := range perms {
		p |= perm
	}

	return p
}

// PermissionFromMode returns the [Permission] contained in a kernel mode.
func PermissionFromMode(mode uint32) Permission {
	return Permission(mode) & Mask
}

// HasExecute reports whether any execute bit is set. Execute bits carry no
// meaning on message queues.
func (p Permission) HasExecute() bool {
	return p&executeBits != 0
}

// String returns the symbolic form, such as "rw-r--r--".
func (p Permission) String() string {
	return os.FileMode(p & Mask).String()[1:]
}

// ParsePermission parses either an octal ("0644", "644", "0o644") or a
// symbolic ("rw-r--r--") representation.
func ParsePermission(s string) (Permission, error) {
	s = strings.TrimSpace(s)

	if len(s) == len("rwxrwxrwx") && strings.Trim(s, "rwx-") == "" {
		return parseSymbolic(s)
	}

	s = strings.TrimPrefix(strings.ToLower(s), "0o")

	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("(mq) %w: %q: %w", ErrInvalidPermission, s, err)
	}

	if Permission(v)&^Mask != 0 {
		return 0, fmt.Errorf("(mq) %w: %q exceeds %#o", ErrInvalidPermission, s, uint32(Mask))
	}

	return Permission(v), nil
}

func parseSymbolic(s string) (Permission, error) {
	const order = "rwxrwxrwx"

	var p Permission
	for i := range len(order) {
		switch s[i] {
		case order[i]:
			p |= 1 << (len(order) - 1 - i)
		case '-':
		default:
			return 0, fmt.Errorf("(mq) %w: %q", ErrInvalidPermission, s)
		}
	}

	return p, nil
}
