// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package i8051

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/rcu51/cpu"
	"github.com/ezrec/rcu51/memory"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":   "0",
	"ROM_SIZE": fmt.Sprintf("%#x", memory.DefaultLayout.ROM),
	"RAM_SIZE": fmt.Sprintf("%#x", memory.DefaultLayout.RAM),
	"EXT_SIZE": fmt.Sprintf("%#x", memory.DefaultLayout.External),
}

var (
	reLabel = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(.*)$`)
	reChar  = regexp.MustCompile(`'\\?[^']'`)
	reExpr  = regexp.MustCompile(`\$\([^\$]*\)`)
	reWord  = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)
)

// Assembler is a three pass assembler for the 8051: parse, check labels,
// then link.
type Assembler struct {
	Verbose bool              // If set, verbosely logs the assembler actions.
	Equate  map[string]string // Map of equates.

	predefine map[string]string
}

var _ cpu.Assembler = (*Assembler)(nil)

// Predefine defines a new equate or redefines an existing equate, before
// any source is read.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Assemble source into Code. Every problem is reported to diag; if any of
// them is an error, EmptyCode and an ErrAssembly are returned.
func (asm *Assembler) Assemble(name string, source io.Reader, diag cpu.Diagnostics) (code *cpu.Code, err error) {
	counter := &cpu.Counter{Diagnostics: diag}

	nodes := asm.Parse(source, counter)

	cpu.CheckLabels(nodes, counter)

	var rom []byte
	var labels map[uint16]string
	if counter.Errors == 0 {
		rom, labels = cpu.Link(nodes, Core.Layout.ROM, counter)
	}

	if counter.Errors != 0 {
		code = cpu.EmptyCode
		err = cpu.ErrAssembly{Errors: counter.Errors, Warnings: counter.Warnings}
		return
	}

	code = &cpu.Code{
		Name:   name,
		ROM:    rom,
		Labels: labels,
	}

	if asm.Verbose {
		log.Printf("%v: %d bytes, %d labels", name, len(rom), len(labels))
	}

	return
}

// Parse source into nodes. Lines that fail to parse are reported to diag,
// and become ErrorNodes.
func (asm *Assembler) Parse(source io.Reader, diag cpu.Diagnostics) (nodes []cpu.Node) {
	asm.Equate = maps.Clone(sysEquate)
	maps.Copy(asm.Equate, asm.predefine)

	scanner := bufio.NewScanner(source)

	var pos cpu.Pos
	for scanner.Scan() {
		text := scanner.Text()
		pos = cpu.Pos{LineNo: pos.LineNo + 1, Line: strings.TrimSpace(text)}

		if asm.Verbose {
			log.Printf("%v: %v\n", pos.LineNo, text)
		}

		line_nodes, end, err := asm.parseLine(pos, text)
		nodes = append(nodes, line_nodes...)
		if err != nil {
			diag.Error(pos.Wrap(err))
			nodes = append(nodes, &cpu.ErrorNode{Pos: pos, Err: err})
		}
		if end {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		diag.Error(pos.Wrap(err))
	}

	return
}

// parenEval evaluates a $() expression.
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, addr := range memory.Symbols() {
		pred[key] = starlark.MakeInt(int(addr))
	}
	for key, str := range asm.Equate {
		v, perr := parseNumber(str)
		if perr != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = cpu.ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = cpu.ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

// expand replaces character literals and $() expressions, and strips
// comments.
func (asm *Assembler) expand(line string) (out string, err error) {
	// Do 'x' evaluations
	line = reChar.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			default:
				return word
			}
		}
		return fmt.Sprintf("%v", str[0])
	})

	line, _, _ = strings.Cut(line, ";")

	// Do $() evaluations
	out = reExpr.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = cpu.ErrParseExpression(str[2 : len(str)-1])
		}
		return fmt.Sprintf("%#x", value)
	})

	out = strings.TrimSpace(out)
	return
}

// substitute replaces equates in an operand.
func (asm *Assembler) substitute(operand string) string {
	return reWord.ReplaceAllStringFunc(operand, func(word string) string {
		if value, ok := asm.Equate[word]; ok {
			return value
		}
		return word
	})
}

// define adds an equate.
func (asm *Assembler) define(name string, value string) (err error) {
	if !isSymbol(name) {
		err = cpu.ErrEquateSyntax
		return
	}
	if _, ok := asm.Equate[name]; ok {
		if _, sys := sysEquate[name]; !sys {
			err = cpu.ErrEquateDuplicate
			return
		}
	}
	asm.Equate[name] = asm.substitute(strings.TrimSpace(value))
	return
}

// parseLine parses a single line into nodes. end is set by the END
// directive.
func (asm *Assembler) parseLine(pos cpu.Pos, text string) (nodes []cpu.Node, end bool, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", pos.LineNo)

	line, err := asm.expand(text)
	if err != nil || len(line) == 0 {
		return
	}

	// NAME EQU VALUE, and .equ NAME VALUE
	words := strings.Fields(line)
	if len(words) >= 3 && strings.EqualFold(words[1], "equ") {
		err = asm.define(words[0], strings.Join(words[2:], " "))
		return
	}
	if strings.EqualFold(words[0], ".equ") {
		if len(words) != 3 {
			err = cpu.ErrEquateSyntax
			return
		}
		err = asm.define(words[1], words[2])
		return
	}

	for {
		match := reLabel.FindStringSubmatch(line)
		if match == nil {
			break
		}
		nodes = append(nodes, &cpu.LabelNode{Pos: pos, Name: match[1]})
		line = match[2]
	}
	if len(line) == 0 {
		return
	}

	mnemonic, rest := line, ""
	if blank := strings.IndexAny(line, " \t"); blank >= 0 {
		mnemonic, rest = line[:blank], line[blank+1:]
	}

	var operands []string
	if rest = strings.TrimSpace(rest); len(rest) > 0 {
		for _, operand := range strings.Split(rest, ",") {
			operands = append(operands, asm.substitute(strings.TrimSpace(operand)))
		}
	}

	var node cpu.Node
	switch strings.ToUpper(mnemonic) {
	case "END", ".END":
		end = true
		return
	case "ORG", ".ORG":
		node, err = parseOrg(operands)
	case "DB", ".DB", ".BYTE":
		node, err = parseData(operands, 1)
	case "DW", ".DW", ".WORD":
		node, err = parseData(operands, 2)
	default:
		node, err = asm.parseInstruction(pos, mnemonic, operands)
	}
	if err != nil {
		return
	}

	node.SetPosition(pos)
	nodes = append(nodes, node)
	return
}

func parseOrg(operands []string) (node cpu.Node, err error) {
	if len(operands) != 1 {
		err = cpu.ErrOrgSyntax
		return
	}
	addr, err := parseRange(operands[0], 0, 0xFFFF)
	if err != nil {
		return
	}
	node = &cpu.OrgNode{Address: uint16(addr)}
	return
}

func parseData(operands []string, width int) (node cpu.Node, err error) {
	if len(operands) == 0 {
		err = cpu.ErrDataSyntax
		return
	}

	limit := 1 << (8 * width)
	data := make([]byte, 0, len(operands)*width)
	for _, operand := range operands {
		var value int
		value, err = parseRange(operand, -limit/2, limit-1)
		if err != nil {
			return
		}
		if width == 2 {
			data = append(data, byte(value>>8))
		}
		data = append(data, byte(value))
	}

	node = &cpu.DataNode{Data: data}
	return
}

// parseInstruction tries every candidate opcode of the mnemonic, in
// priority order, until one accepts the operands.
func (asm *Assembler) parseInstruction(pos cpu.Pos, mnemonic string, operands []string) (node cpu.Node, err error) {
	candidates := Core.Candidates(mnemonic)
	if len(candidates) == 0 {
		err = cpu.ErrOpcodeUnknown(mnemonic)
		return
	}

	var first error
	for _, op := range candidates {
		if op.Operands != len(operands) {
			continue
		}
		node, err = op.Parse(pos.LineNo, op, operands)
		if err == nil && node != nil {
			if asm.Verbose {
				log.Printf("%v: %02x %v %v", pos.LineNo, op.Byte, op.Mnemonic, operands)
			}
			return
		}
		// Prefer reporting a bad value over a shape mismatch.
		var shape ErrOperand
		if first == nil || (errors.As(first, &shape) && !errors.As(err, &shape)) {
			first = err
		}
	}

	node = nil
	if first == nil {
		err = cpu.ErrOperandCount
		return
	}
	err = cpu.ErrOperandInvalid{Mnemonic: strings.ToUpper(mnemonic), Operands: operands, Err: first}
	return
}
