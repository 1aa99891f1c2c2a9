package i8051

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ezrec/rcu51/cpu"
	"github.com/ezrec/rcu51/memory"
)

var reSymbol = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// isSymbol returns true if text can name a label.
func isSymbol(text string) bool {
	return reSymbol.MatchString(text)
}

// parseNumber parses a C style (0x1F, 0b101, 017), or Intel style
// (1Fh, 101b) integer.
func parseNumber(text string) (value int, err error) {
	word := text
	negative := strings.HasPrefix(word, "-")
	if negative {
		word = word[1:]
	}

	base := 0
	lower := strings.ToLower(word)
	switch {
	case len(word) == 0:
	case strings.HasSuffix(lower, "h") && word[0] >= '0' && word[0] <= '9':
		base = 16
		word = word[:len(word)-1]
	case strings.HasPrefix(lower, "0x"), strings.HasPrefix(lower, "0b"), strings.HasPrefix(lower, "0o"):
	case strings.HasSuffix(lower, "b") && strings.Trim(word[:len(word)-1], "01") == "":
		base = 2
		word = word[:len(word)-1]
	}

	v64, err := strconv.ParseInt(word, base, 32)
	if err != nil {
		err = cpu.ErrParseNumber(text)
		return
	}

	value = int(v64)
	if negative {
		value = -value
	}
	return
}

// parseRange parses a number in the range lo to hi.
func parseRange(text string, lo, hi int) (value int, err error) {
	value, err = parseNumber(text)
	if err != nil {
		return
	}
	if value < lo || value > hi {
		err = cpu.ErrParseRange(text)
	}
	return
}

// parseDirect parses a direct address: a SFR name or a number.
func parseDirect(text string) (addr byte, err error) {
	if sfr, ok := memory.SFRNames[strings.ToUpper(text)]; ok {
		addr = sfr
		return
	}

	value, err := parseRange(text, 0, 0xFF)
	addr = byte(value)
	return
}

// parseBit parses a bit address: a bit name, BYTE.n, or a number.
func parseBit(text string) (bit byte, err error) {
	if named, ok := memory.BitNames[strings.ToUpper(text)]; ok {
		bit = named
		return
	}

	dot := strings.LastIndex(text, ".")
	if dot < 0 {
		var value int
		value, err = parseRange(text, 0, 0xFF)
		bit = byte(value)
		return
	}

	addr, err := parseDirect(text[:dot])
	if err != nil {
		return
	}
	index, err := parseRange(text[dot+1:], 0, 7)
	if err != nil {
		return
	}

	switch {
	case addr >= 0x20 && addr < 0x30:
		bit = (addr-0x20)*8 + byte(index)
	case addr >= 0x80 && addr&7 == 0:
		bit = addr + byte(index)
	default:
		err = ErrNotBitAddressable(text)
	}
	return
}

// parseImmediate parses #value, allowing both signed and unsigned ranges.
func parseImmediate(text string, bits int) (value int, err error) {
	body, ok := strings.CutPrefix(text, "#")
	if !ok {
		err = ErrOperand{Want: argImm, Text: text}
		return
	}
	limit := 1 << bits
	value, err = parseRange(strings.TrimSpace(body), -limit/2, limit-1)
	value &= limit - 1
	return
}

// parseTarget parses a code address or a label.
func parseTarget(text string) (label string, addr uint16, err error) {
	value, err := parseRange(text, 0, 0xFFFF)
	if err == nil {
		addr = uint16(value)
		return
	}
	if isSymbol(text) {
		label = text
		err = nil
	}
	return
}

// normalize removes blanks, for comparing literal operands.
func normalize(text string) string {
	return strings.ToUpper(strings.Join(strings.Fields(text), ""))
}

// parse matches operands against the shapes of the entry, and builds the
// node that encodes them.
func (e *entry) parse(lineno int, op *cpu.Opcode, operands []string) (node cpu.Node, err error) {
	if len(operands) != len(e.args) {
		err = cpu.ErrOperandCount
		return
	}

	var data []byte
	var jump *cpu.JumpNode

	for n, a := range e.args {
		text := strings.TrimSpace(operands[n])

		if a.constant() {
			if normalize(text) != a.String() {
				err = ErrOperand{Want: a, Text: text}
				return
			}
			continue
		}

		switch a {
		case argImm:
			var value int
			value, err = parseImmediate(text, 8)
			data = append(data, byte(value))
		case argImm16:
			body, ok := strings.CutPrefix(text, "#")
			body = strings.TrimSpace(body)
			switch {
			case !ok:
				err = ErrOperand{Want: a, Text: text}
			case isSymbol(body):
				jump = &cpu.JumpNode{Kind: cpu.JUMP_LONG, Target: body}
			default:
				var value int
				value, err = parseImmediate(text, 16)
				data = append(data, byte(value>>8), byte(value))
			}
		case argDirect:
			var addr byte
			addr, err = parseDirect(text)
			data = append(data, addr)
		case argBit:
			var bit byte
			bit, err = parseBit(text)
			data = append(data, bit)
		case argNotBit:
			body, ok := strings.CutPrefix(text, "/")
			if !ok {
				err = ErrOperand{Want: a, Text: text}
				break
			}
			var bit byte
			bit, err = parseBit(strings.TrimSpace(body))
			data = append(data, bit)
		case argRel, argAddr11, argAddr16:
			jump = &cpu.JumpNode{Kind: jumpKind[a]}
			jump.Target, jump.Address, err = parseTarget(text)
		}

		if err != nil {
			return
		}
	}

	if e.swap {
		data[0], data[1] = data[1], data[0]
	}

	pos := cpu.Pos{LineNo: lineno}
	switch {
	case jump != nil:
		jump.Pos = pos
		jump.Op = op
		jump.Operands = data
		node = jump
	case len(data) == 0:
		node = &cpu.NoArgNode{Pos: pos, Op: op}
	default:
		node = &cpu.SimpleNode{Pos: pos, Op: op, Operands: data}
	}

	return
}

var jumpKind = map[arg]cpu.JumpKind{
	argRel:    cpu.JUMP_RELATIVE,
	argAddr11: cpu.JUMP_PAGE,
	argAddr16: cpu.JUMP_LONG,
}

// target returns the code address an instruction refers to, if any.
// The instruction starts at pc, and operands are its encoded bytes.
func (e *entry) target(pc uint16, opcode byte, operands []byte) (addr uint16, ok bool) {
	next := pc + 1 + uint16(len(operands))
	index := 0
	for _, a := range e.args {
		switch a {
		case argRel:
			return next + uint16(int8(operands[index])), true
		case argAddr11:
			return next&0xF800 | uint16(opcode>>5)<<8 | uint16(operands[index]), true
		case argAddr16:
			return uint16(operands[index])<<8 | uint16(operands[index+1]), true
		}
		index += a.width()
	}
	return
}

// format renders an instruction as assembly text, naming code addresses
// with label.
func (e *entry) format(pc uint16, opcode byte, operands []byte, label func(addr uint16) string) string {
	if len(e.args) == 0 {
		return e.mnemonic
	}

	data := operands
	if e.swap {
		data = []byte{operands[1], operands[0]}
	}

	text := make([]string, 0, len(e.args))
	index := 0
	for _, a := range e.args {
		var word string
		switch {
		case a.constant():
			word = a.String()
		case a == argImm:
			word = fmt.Sprintf("#0x%02X", data[index])
		case a == argImm16:
			word = fmt.Sprintf("#0x%04X", uint16(data[index])<<8|uint16(data[index+1]))
		case a == argDirect:
			word = memory.DirectName(data[index])
		case a == argBit:
			word = memory.BitName(data[index])
		case a == argNotBit:
			word = "/" + memory.BitName(data[index])
		default:
			addr, _ := e.target(pc, opcode, operands)
			word = label(addr)
		}
		text = append(text, word)
		index += a.width()
	}

	return e.mnemonic + " " + strings.Join(text, ", ")
}
