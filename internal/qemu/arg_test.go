// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aibor/efiboot/internal/qemu"
)

func TestBuildArgumentStrings(t *testing.T) {
	tests := []struct {
		name        string
		args        []qemu.Argument
		expected    []string
		expectedErr error
	}{
		{
			name:     "empty",
			expected: []string{},
		},
		{
			name: "unique with and without value",
			args: []qemu.Argument{
				qemu.UniqueArg("enable-kvm"),
				qemu.UniqueArg("m", "1024"),
			},
			expected: []string{"-enable-kvm", "-m", "1024"},
		},
		{
			name: "multi value joined with comma",
			args: []qemu.Argument{
				qemu.RepeatableArg("drive", "format=raw", "file=fat:rw:vol"),
			},
			expected: []string{"-drive", "format=raw,file=fat:rw:vol"},
		},
		{
			name: "repeatable with different values",
			args: []qemu.Argument{
				qemu.RepeatableArg("serial", "mon:stdio"),
				qemu.RepeatableArg("serial", "none"),
			},
			expected: []string{"-serial", "mon:stdio", "-serial", "none"},
		},
		{
			name: "unique name collision",
			args: []qemu.Argument{
				qemu.UniqueArg("m", "1024"),
				qemu.UniqueArg("m", "2048"),
			},
			expectedErr: qemu.ErrArgumentCollision,
		},
		{
			name: "repeatable value collision",
			args: []qemu.Argument{
				qemu.RepeatableArg("serial", "mon:stdio"),
				qemu.RepeatableArg("serial", "mon:stdio"),
			},
			expectedErr: qemu.ErrArgumentCollision,
		},
		{
			name: "repeatable after unique collision",
			args: []qemu.Argument{
				qemu.UniqueArg("bios", "/store/firmware.fd"),
				qemu.RepeatableArg("bios", "/tmp/other.fd"),
			},
			expectedErr: qemu.ErrArgumentCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := qemu.BuildArgumentStrings(tt.args)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		raw      []string
		expected []qemu.Argument
	}{
		{
			name:     "empty",
			expected: []qemu.Argument{},
		},
		{
			name: "flag with value",
			raw:  []string{"-device", "virtio-rng-pci"},
			expected: []qemu.Argument{
				qemu.RepeatableArg("device", "virtio-rng-pci"),
			},
		},
		{
			name: "flag without value",
			raw:  []string{"-snapshot", "-no-reboot"},
			expected: []qemu.Argument{
				qemu.RepeatableArg("snapshot"),
				qemu.RepeatableArg("no-reboot"),
			},
		},
		{
			name: "mixed",
			raw:  []string{"-snapshot", "-d", "int", "-no-reboot"},
			expected: []qemu.Argument{
				qemu.RepeatableArg("snapshot"),
				qemu.RepeatableArg("d", "int"),
				qemu.RepeatableArg("no-reboot"),
			},
		},
		{
			name: "leading value dropped",
			raw:  []string{"stray", "-snapshot"},
			expected: []qemu.Argument{
				qemu.RepeatableArg("snapshot"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := qemu.ParseArgs(tt.raw)
			assert.Equal(t, tt.expected, actual)
		})
	}
}
