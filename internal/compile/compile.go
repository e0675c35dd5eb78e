// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package compile wraps the pinned kernel toolchain.
//
// The toolchain is invoked with release mode and the static relocation model
// forced, since the UEFI loader performs no relocation fixups. The toolchain's
// own diagnostics are passed through unmodified; the produced image is
// validated before any later stage may consume it.
package compile

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"

	"github.com/aibor/efiboot/internal/pins"
	"github.com/aibor/efiboot/internal/sys"
)

// Input describes a single compiler invocation.
type Input struct {
	Toolchain pins.Toolchain
	Arch      sys.Arch

	// ExtraArgs are caller supplied pass-through arguments. They are placed
	// before the forced release and relocation arguments, so they can not
	// override them.
	ExtraArgs []string

	// Stdout and Stderr receive the toolchain's output unmodified.
	Stdout io.Writer
	Stderr io.Writer
}

// args compiles the full toolchain argument list.
func (i *Input) args() []string {
	args := make(
		[]string,
		0,
		len(i.Toolchain.Args)+
			len(i.ExtraArgs)+
			len(i.Toolchain.ReleaseArgs)+
			len(i.Toolchain.RelocStaticArgs),
	)

	args = append(args, i.Toolchain.Args...)
	args = append(args, i.ExtraArgs...)
	args = append(args, i.Toolchain.ReleaseArgs...)
	args = append(args, i.Toolchain.RelocStaticArgs...)

	return args
}

// Run invokes the pinned toolchain and returns the path to the produced
// kernel image.
//
// Failure is fatal for the whole pipeline. No boot volume must ever be
// assembled from a failed or stale compile, so the artifact is validated
// right here: it must be a static executable for the build target.
func Run(ctx context.Context, input Input) (string, error) {
	cmd := exec.CommandContext(ctx, input.Toolchain.Command, input.args()...)
	cmd.Dir = input.Toolchain.Dir
	cmd.Stdout = input.Stdout
	cmd.Stderr = input.Stderr

	err := cmd.Run()
	if err != nil {
		return "", &Error{
			Command: input.Toolchain.Command,
			Err:     err,
		}
	}

	artifact := input.Toolchain.Artifact
	if !filepath.IsAbs(artifact) && input.Toolchain.Dir != "" {
		artifact = filepath.Join(input.Toolchain.Dir, artifact)
	}

	err = sys.ValidateKernelELF(artifact, input.Arch)
	if err != nil {
		return "", &Error{
			Command: input.Toolchain.Command,
			Err:     fmt.Errorf("validate artifact: %w", err),
		}
	}

	return artifact, nil
}
