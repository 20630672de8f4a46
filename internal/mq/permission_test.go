package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPermissionUnion tests that the union is commutative, associative and
// idempotent, and matches the pre-unioned constants.
func TestPermissionUnion(t *testing.T) {
	t.Parallel()

	a, b, c := OwnerReadWrite, GroupRead, OtherRead

	assert.Equal(t, a|b, b|a)
	assert.Equal(t, a|a, a)
	assert.Equal(t, (a|b)|c, a|(b|c))
	assert.Equal(t, OwnerReadWriteGroupReadOtherRead, a|b|c)
	assert.Equal(t, OwnerReadWriteGroupReadOtherRead, Union(c, b, a))
	assert.Equal(t, OwnerReadWriteGroupWriteOtherWrite, Union(OwnerReadWrite, GroupWrite, OtherWrite))
	assert.Equal(t, AllReadWrite, Union(OwnerReadWrite, GroupReadWrite, OtherReadWrite))
	assert.Equal(t, Permission(0), Union())
}

// TestPermissionConstants tests the octal values of all constants.
func TestPermissionConstants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		perm     Permission
		expected uint32
	}{
		{"OwnerRead", OwnerRead, 0o400},
		{"OwnerWrite", OwnerWrite, 0o200},
		{"GroupRead", GroupRead, 0o040},
		{"GroupWrite", GroupWrite, 0o020},
		{"OtherRead", OtherRead, 0o004},
		{"OtherWrite", OtherWrite, 0o002},
		{"OwnerReadWrite", OwnerReadWrite, 0o600},
		{"GroupReadWrite", GroupReadWrite, 0o060},
		{"OtherReadWrite", OtherReadWrite, 0o006},
		{"AllReadWrite", AllReadWrite, 0o666},
		{"Default", DefaultPermission, 0o644},
		{"OwnerReadWriteGroupWriteOtherWrite", OwnerReadWriteGroupWriteOtherWrite, 0o622},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, uint32(tt.perm))
			assert.False(t, tt.perm.HasExecute())
		})
	}
}

// TestPermissionFromMode tests stripping of non-permission bits.
func TestPermissionFromMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultPermission, PermissionFromMode(0o100644))
	assert.Equal(t, AllReadWrite, PermissionFromMode(0o1666))
	assert.True(t, PermissionFromMode(0o755).HasExecute())
}

// TestPermissionString tests the symbolic rendering.
func TestPermissionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rw-r--r--", DefaultPermission.String())
	assert.Equal(t, "rw-rw-rw-", AllReadWrite.String())
	assert.Equal(t, "---------", Permission(0).String())
	assert.Equal(t, "rw--w--w-", OwnerReadWriteGroupWriteOtherWrite.String())
}

// TestParsePermission tests parsing of octal and symbolic permissions.
func TestParsePermission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected Permission
		err      bool
	}{
		{"Success_Octal", "0644", DefaultPermission, false},
		{"Success_OctalShort", "666", AllReadWrite, false},
		{"Success_OctalPrefixed", "0o600", OwnerReadWrite, false},
		{"Success_Symbolic", "rw-r--r--", DefaultPermission, false},
		{"Success_SymbolicExec", "rwxr-x---", Permission(0o750), false},
		{"Success_Whitespace", " 0622 ", OwnerReadWriteGroupWriteOtherWrite, false},
		{"Fail_NotOctal", "0689", 0, true},
		{"Fail_TooLarge", "01644", 0, true},
		{"Fail_SymbolicOrder", "wr-r--r--", 0, true},
		{"Fail_Empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := ParsePermission(tt.input)
			if tt.err {
				require.ErrorIs(t, err, ErrInvalidPermission)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}
