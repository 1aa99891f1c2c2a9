// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/rcu51/core"
	"github.com/ezrec/rcu51/cpu"
	"github.com/ezrec/rcu51/cpu/i8051"
	"github.com/ezrec/rcu51/emulator"
)

func main() {
	var compile string
	var disassemble bool
	var ticks int
	var load string
	var save string
	var input string
	var coreName string
	var verbose bool
	defines := map[string]string{}

	flag.StringVar(&compile, "c", "", ".a51 file to assemble and load")
	flag.BoolVar(&disassemble, "d", false, "Print the disassembly of the loaded code")
	flag.IntVar(&ticks, "n", 0, "Number of cycles to run")
	flag.StringVar(&load, "l", "", "State file to load before running")
	flag.StringVar(&save, "o", "", "State file to save after running")
	flag.StringVar(&input, "i", "", "Serial input file, - for stdin (read until EOF)")
	flag.StringVar(&coreName, "core", "8051", "Core to emulate")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.Func("D", "Predefine an equate, as NAME=VALUE", func(text string) error {
		name, value, ok := strings.Cut(text, "=")
		if !ok {
			return fmt.Errorf("%v: expected NAME=VALUE", text)
		}
		defines[name] = value
		return nil
	})

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	cpuCore, err := core.Lookup(coreName)
	if err != nil {
		log.Fatalf("%v: %v", coreName, err)
	}

	ip := emulator.NewInterpreter(cpuCore)
	ip.Verbose = verbose

	if len(load) != 0 {
		inf, err := os.Open(load)
		if err != nil {
			log.Fatalf("%v: %v", load, err)
		}
		state, err := emulator.DecodeState(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", load, err)
		}
		err = ip.Load(state)
		if err != nil {
			log.Fatalf("%v: %v", load, err)
		}
	}

	// Assemble a new program.
	if len(compile) != 0 {
		code, err := assemble(cpuCore, compile, defines, verbose)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		err = ip.LoadCode(code)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	if disassemble {
		for _, line := range cpuCore.Disassemble(ip.Code()) {
			fmt.Println(line)
		}
	}

	if ticks > 0 {
		err = run(ip, ticks, input)
		if err != nil {
			log.Fatal(err)
		}
	}

	if len(save) != 0 {
		ouf, err := os.Create(save)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		defer ouf.Close()

		err = ip.Save().Encode(ouf)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
	}
}

// assemble a source file, printing its diagnostics to stderr.
func assemble(cpuCore *cpu.Core, path string, defines map[string]string, verbose bool) (code *cpu.Code, err error) {
	if cpuCore.NewAssembler == nil {
		err = cpu.ErrNoAssembler
		return
	}

	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := cpuCore.NewAssembler()
	if a51, ok := asm.(*i8051.Assembler); ok {
		a51.Verbose = verbose
		for name, value := range defines {
			a51.Predefine(name, value)
		}
	}

	diag := newPrinter(os.Stderr, path)
	code, err = asm.Assemble(path, inf, diag)
	return
}

// run ticks the interpreter, while feeding the serial port from input.
func run(ip *emulator.Interpreter, ticks int, input string) (err error) {
	ip.Serial().Output = os.Stdout

	var inf io.Reader
	switch input {
	case "":
	case "-":
		inf = os.Stdin
	default:
		file, err := os.Open(input)
		if err != nil {
			return err
		}
		defer file.Close()
		inf = file
	}

	err = runSerial(ip, ticks, inf)
	if err != nil {
		return
	}

	if ip.Verbose {
		pc := ip.ProgramCounter()
		ports := ip.Ports()
		log.Printf("pc %04x, ports % 02x", pc, ports.Output)
	}

	return
}

// runSerial runs ticks cycles. If input is not nil it is fed to the serial
// port until the cycles are done; a read still blocked on input then is
// abandoned.
func runSerial(ip *emulator.Interpreter, ticks int, input io.Reader) (err error) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(parent)

	g.Go(func() error {
		defer cancel()

		ip.Startup()
		ip.Resume()
		defer ip.Shutdown()

		for range ticks {
			if _, err := ip.Tick(); err != nil {
				return err
			}
			if ctx.Err() != nil {
				break
			}
		}
		return nil
	})

	if input != nil {
		fed := make(chan error, 1)
		go func() {
			fed <- ip.Serial().Feed(ctx, input)
		}()

		g.Go(func() error {
			select {
			case err := <-fed:
				if errors.Is(err, context.Canceled) {
					err = nil
				}
				return err
			case <-ctx.Done():
				return nil
			}
		})
	}

	err = g.Wait()
	return
}
