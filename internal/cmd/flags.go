// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"flag"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/aibor/efiboot/internal/qemu"
	"github.com/aibor/efiboot/internal/sys"
)

const (
	memDefault = 1024
	smpDefault = 1

	pinFileDefault   = "efiboot.yaml"
	volumeDirDefault = ".efiboot/volume"
)

type flags struct {
	name    string
	flagSet *flag.FlagSet

	PinFile   FilePath
	VolumeDir FilePath

	Memory  uint64
	SMP     uint64
	CPU     string
	NoKVM   bool
	QemuBin string
	Console qemu.ConsoleMode

	CompilerArgs stringList
	QemuArgs     []string

	DryRun     bool
	KeepVolume bool
	Verbose    bool
	Debug      bool
	Version    bool
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string {
	return fmt.Sprintf("%v", []string(*l))
}

func (l *stringList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

func newFlags(name string, output io.Writer) *flags {
	arch := sys.AMD64

	f := &flags{
		name:      name,
		PinFile:   pinFileDefault,
		VolumeDir: volumeDirDefault,
		Memory:    memDefault,
		SMP:       smpDefault,
		NoKVM:     !arch.KVMAvailable(),
		Console:   qemu.ConsoleModeStdio,
	}

	f.initFlagSet(output)

	return f
}

func (f *flags) initFlagSet(output io.Writer) {
	fsName := f.name + " [flags...] [-- qemuargs...]"
	fs := flag.NewFlagSet(fsName, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.Var(
		&f.PinFile,
		"pins",
		"pin file declaring all tools and blobs",
	)

	fs.Var(
		&f.VolumeDir,
		"volume",
		"boot volume working directory. Deterministically regenerated and"+
			" safely deletable, like the blob store.",
	)

	fs.Uint64Var(
		&f.Memory,
		"memory",
		f.Memory,
		"memory (in MB) for the QEMU VM",
	)

	fs.Uint64Var(
		&f.SMP,
		"smp",
		f.SMP,
		"number of CPUs for the QEMU VM",
	)

	fs.StringVar(
		&f.CPU,
		"cpu",
		f.CPU,
		"QEMU CPU type to use",
	)

	fs.StringVar(
		&f.QemuBin,
		"qemu-bin",
		f.QemuBin,
		"QEMU binary to use instead of the pinned one",
	)

	fs.BoolVar(
		&f.NoKVM,
		"nokvm",
		f.NoKVM,
		"disable hardware support",
	)

	fs.TextVar(
		&f.Console,
		"console",
		f.Console,
		"serial console wiring (stdio, none)",
	)

	fs.Var(
		&f.CompilerArgs,
		"compiler-arg",
		"additional argument passed to the kernel toolchain. Flag may be"+
			" used more than once.",
	)

	fs.BoolVar(
		&f.DryRun,
		"dry-run",
		f.DryRun,
		"compile, provision and assemble, but print the QEMU command"+
			" instead of launching",
	)

	fs.BoolVar(
		&f.KeepVolume,
		"keep-volume",
		f.KeepVolume,
		"do not delete the boot volume once qemu is done. Intended for"+
			" debugging.",
	)

	fs.BoolVar(
		&f.Verbose,
		"verbose",
		f.Verbose,
		"print the QEMU command before launching",
	)

	fs.BoolVar(
		&f.Debug,
		"debug",
		f.Debug,
		"enable debug output",
	)

	fs.BoolVar(
		&f.Version,
		"version",
		f.Version,
		"show version and exit",
	)

	f.flagSet = fs
}

// Fail fails like flag does. It prints the error first and then usage.
func (f *flags) Fail(msg string, err error) error {
	err = &ParseArgsError{msg: msg, err: err}
	fmt.Fprintln(f.flagSet.Output(), err.Error())

	f.flagSet.Usage()

	return err
}

func (f *flags) printVersionInformation() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	fmt.Fprintf(
		f.flagSet.Output(),
		"%s: %s\n",
		f.name,
		buildInfo.Main.Version,
	)
}

func (f *flags) ParseArgs(args []string) error {
	// Parses arguments up to the first one that is not prefixed with a "-"
	// or is "--".
	if err := f.flagSet.Parse(args); err != nil {
		return &ParseArgsError{msg: "flag parse", err: err}
	}

	// With version flag, just print the version and exit. Using [ErrHelp]
	// the main binary is supposed to return with a non error exit code.
	if f.Version {
		f.printVersionInformation()
		return &ParseArgsError{msg: "version requested", err: ErrHelp}
	}

	// All positional arguments are passed to the emulator invocation.
	f.QemuArgs = f.flagSet.Args()

	return nil
}
