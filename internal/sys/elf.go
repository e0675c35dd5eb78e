// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"debug/elf"
	"fmt"
)

// ValidateKernelELF validates that the given file is a kernel image the UEFI
// loader can start on the given architecture.
//
// The loader maps the image as is and performs no relocation fixups. So,
// besides matching the architecture, the image must be a static executable.
// Position independent executables (ET_DYN) would be loaded but crash on the
// first absolute address access, which is one of the silent failure modes
// this check exists for.
func ValidateKernelELF(path string, arch Arch) error {
	elfFile, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer elfFile.Close()

	return ValidateKernelELFHeader(elfFile, arch)
}

// ValidateKernelELFHeader validates the already opened ELF file. See
// [ValidateKernelELF].
func ValidateKernelELFHeader(elfFile *elf.File, arch Arch) error {
	switch elfFile.OSABI {
	case elf.ELFOSABI_NONE, elf.ELFOSABI_STANDALONE:
		// supported, pass
	default:
		return fmt.Errorf("%w: %s", ErrOSABINotSupported, elfFile.OSABI)
	}

	var archReq Arch

	switch elfFile.Machine { //nolint:exhaustive
	case elf.EM_X86_64:
		archReq = AMD64
	default:
		return fmt.Errorf("%w: %s", ErrMachineNotSupported, elfFile.Machine)
	}

	if archReq != arch {
		return fmt.Errorf(
			"%w: %s on %s",
			ErrMachineNotSupported,
			elfFile.Machine,
			arch,
		)
	}

	if elfFile.Type != elf.ET_EXEC {
		return fmt.Errorf("%w: type %s", ErrNotStaticExecutable, elfFile.Type)
	}

	for _, prog := range elfFile.Progs {
		switch prog.Type { //nolint:exhaustive
		case elf.PT_INTERP:
			return fmt.Errorf("%w: has interpreter", ErrNotStaticExecutable)
		case elf.PT_DYNAMIC:
			return fmt.Errorf(
				"%w: has dynamic segment",
				ErrNotStaticExecutable,
			)
		}
	}

	return nil
}
