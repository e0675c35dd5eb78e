// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

const (
	elfHeaderSize     = 64
	programHeaderSize = 56
)

// MakeTestELF builds a minimal 64-bit little-endian ELF image with the given
// type, machine and program header types. It carries no section headers and
// empty segments, which is enough for [debug/elf] to parse it. Intended for
// tests only.
func MakeTestELF(
	typ elf.Type,
	machine elf.Machine,
	progTypes ...elf.ProgType,
) []byte {
	buf := new(bytes.Buffer)

	ident := [16]byte{}
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	ident[elf.EI_OSABI] = byte(elf.ELFOSABI_NONE)

	phOff := uint64(0)
	if len(progTypes) > 0 {
		phOff = elfHeaderSize
	}

	header := elf.Header64{
		Ident:     ident,
		Type:      uint16(typ),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Phoff:     phOff,
		Ehsize:    elfHeaderSize,
		Phentsize: programHeaderSize,
		Phnum:     uint16(len(progTypes)),
	}

	_ = binary.Write(buf, binary.LittleEndian, header)

	for _, progType := range progTypes {
		prog := elf.Prog64{
			Type:  uint32(progType),
			Align: 1,
		}
		_ = binary.Write(buf, binary.LittleEndian, prog)
	}

	return buf.Bytes()
}
