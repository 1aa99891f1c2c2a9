package i8051

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rcu51/cpu"
)

func assemble(source string) (code *cpu.Code, col *cpu.Collector, err error) {
	col = &cpu.Collector{}
	asm := &Assembler{}
	code, err = asm.Assemble("test", strings.NewReader(source), col)
	return
}

func TestAssemble(t *testing.T) {
	assert := assert.New(t)

	source := `
; encoding check
COUNT   EQU 7
start:  MOV R7, #3      ; 0000
        MOV A, #'A'     ; 0002
        mov a, #COUNT   ; 0004
        MOV P1, A       ; 0006
        AJMP next       ; 0008
next:   DW 0x1234       ; 000A
        SJMP start      ; 000C
        END
        this line is never parsed
`
	code, col, err := assemble(source)
	assert.NoError(err)
	assert.Empty(col.Diagnostics)
	assert.Equal("test", code.Name)
	assert.Equal([]byte{
		0x7F, 0x03,
		0x74, 0x41,
		0x74, 0x07,
		0xF5, 0x90,
		0x01, 0x0A,
		0x12, 0x34,
		0x80, 0xF2,
	}, code.ROM)
	assert.Equal(map[uint16]string{0x0000: "start", 0x000A: "next"}, code.Labels)
}

func TestAssembleOperands(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		text string
		data []byte
	}{
		{"NOP", []byte{0x00}},
		{"MOV A, R3", []byte{0xEB}},
		{"MOV A, @R1", []byte{0xE7}},
		{"MOV A, 0x30", []byte{0xE5, 0x30}},
		{"MOV A, ACC", []byte{0xE5, 0xE0}},
		{"MOV 0x30, P1", []byte{0x85, 0x90, 0x30}},
		{"MOV 0x30, #0FFh", []byte{0x75, 0x30, 0xFF}},
		{"MOV @R0, #-1", []byte{0x76, 0xFF}},
		{"MOV R2, 0x40", []byte{0xAA, 0x40}},
		{"MOV 0x40, R2", []byte{0x8A, 0x40}},
		{"MOV DPTR, #0x1234", []byte{0x90, 0x12, 0x34}},
		{"MOV C, P1.3", []byte{0xA2, 0x93}},
		{"MOV 0x20.0, C", []byte{0x92, 0x00}},
		{"MOVC A, @A+PC", []byte{0x83}},
		{"movc a, @a + dptr", []byte{0x93}},
		{"MOVX A, @DPTR", []byte{0xE0}},
		{"MOVX @R1, A", []byte{0xF3}},
		{"CLR C", []byte{0xC3}},
		{"CLR A", []byte{0xE4}},
		{"CLR ACC.7", []byte{0xC2, 0xE7}},
		{"SETB EA", []byte{0xD2, 0xAF}},
		{"CPL 0x7F", []byte{0xB2, 0x7F}},
		{"ORL C, /TF0", []byte{0xA0, 0x8D}},
		{"ANL C, 0x22.1", []byte{0x82, 0x11}},
		{"ORL A, #0x0F", []byte{0x44, 0x0F}},
		{"ANL P1, #0xF0", []byte{0x53, 0x90, 0xF0}},
		{"XRL B, A", []byte{0x62, 0xF0}},
		{"ADD A, #$(2*3+1)", []byte{0x24, 0x07}},
		{"ADDC A, $(P1 + 0x10)", []byte{0x35, 0xA0}},
		{"SUBB A, @R0", []byte{0x96}},
		{"INC DPTR", []byte{0xA3}},
		{"INC R7", []byte{0x0F}},
		{"DEC A", []byte{0x14}},
		{"MUL AB", []byte{0xA4}},
		{"DIV AB", []byte{0x84}},
		{"DA A", []byte{0xD4}},
		{"XCH A, @R0", []byte{0xC6}},
		{"XCHD A, @R1", []byte{0xD7}},
		{"PUSH ACC", []byte{0xC0, 0xE0}},
		{"POP PSW", []byte{0xD0, 0xD0}},
		{"JMP @A+DPTR", []byte{0x73}},
		{"LJMP 0x0ABC", []byte{0x02, 0x0A, 0xBC}},
		{"LCALL 0x0ABC", []byte{0x12, 0x0A, 0xBC}},
		{"AJMP 0x0700", []byte{0xE1, 0x00}},
		{"ACALL 0x0123", []byte{0x31, 0x23}},
		{"SJMP 0", []byte{0x80, 0xFE}},
		{"CJNE A, #'x', 0", []byte{0xB4, 0x78, 0xFD}},
		{"CJNE A, 0x30, 0", []byte{0xB5, 0x30, 0xFD}},
		{"CJNE @R1, #1, 0", []byte{0xB7, 0x01, 0xFD}},
		{"DJNZ 0x30, 0", []byte{0xD5, 0x30, 0xFD}},
		{"JBC TI, 0", []byte{0x10, 0x99, 0xFD}},
		{"DB 1, -1, 'z'", []byte{0x01, 0xFF, 0x7A}},
		{"DW 0x1234, 5", []byte{0x12, 0x34, 0x00, 0x05}},
	}

	for _, entry := range table {
		code, col, err := assemble(entry.text)
		if !assert.NoError(err, entry.text) {
			t.Log(col.Errors())
			continue
		}
		assert.Equal(entry.data, code.ROM, entry.text)
	}
}

func TestAssembleLabels(t *testing.T) {
	assert := assert.New(t)

	source := `
        MOV DPTR, #table
        MOVC A, @A+DPTR
wait:   JNB RI, wait
        LCALL sub
        CJNE R0, #1, done
done:   SJMP done
sub:    RET
table:  DB 1, 2, 3
`
	code, col, err := assemble(source)
	assert.NoError(err)
	assert.Empty(col.Diagnostics)
	assert.Equal([]byte{
		0x90, 0x00, 0x10, // MOV DPTR,#table
		0x93,             // MOVC A,@A+DPTR
		0x30, 0x98, 0xFD, // JNB RI,wait
		0x12, 0x00, 0x0F, // LCALL sub
		0xB8, 0x01, 0x00, // CJNE R0,#1,done
		0x80, 0xFE, // SJMP done
		0x22,       // RET
		0x01, 0x02, 0x03,
	}, code.ROM)
	assert.Equal("table", code.Labels[0x0010])
}

func TestAssembleOrg(t *testing.T) {
	assert := assert.New(t)

	source := `
        ORG 0x0100
start:  AJMP target
        NOP
        NOP
        NOP
target: SJMP start
`
	code, _, err := assemble(source)
	assert.NoError(err)
	assert.Equal(0x0107, len(code.ROM))
	assert.Equal([]byte{0x21, 0x05, 0x00, 0x00, 0x00, 0x80, 0xF9}, code.ROM[0x0100:])
	assert.Equal(make([]byte, 0x100), code.ROM[:0x100])
}

func TestAssemblePredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("LED", "P1.0")
	asm.Predefine("DELAY", "0x20")

	source := "CPL LED\nMOV R0, #DELAY\nMOV R1, #$(ROM_SIZE >> 8)\n"
	code, err := asm.Assemble("led", strings.NewReader(source), nil)
	assert.NoError(err)
	assert.Equal([]byte{0xB2, 0x90, 0x78, 0x20, 0x79, 0x10}, code.ROM)
}

func TestAssembleErrors(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		text string
		err  error
	}{
		{"SJMP nowhere", cpu.ErrLabelMissing("nowhere")},
		{"FOO A", cpu.ErrOpcodeUnknown("FOO")},
		{"NOP A", cpu.ErrOperandCount},
		{"MOV A, @R2", cpu.ErrParseNumber("@R2")},
		{"SETB 0x30.1", ErrNotBitAddressable("0x30.1")},
		{"a: NOP\na: NOP\nSJMP a", cpu.ErrLabelDuplicate},
		{"x EQU 1\nx EQU 2", cpu.ErrEquateDuplicate},
		{"1x EQU 1", cpu.ErrEquateSyntax},
		{"ORG", cpu.ErrOrgSyntax},
		{"DB", cpu.ErrDataSyntax},
		{"DB 256", cpu.ErrParseRange("256")},
		{"MOV A, #$(1 +)", cpu.ErrParseExpression("1 +")},
		{"a: SJMP b\nORG 0x200\nb: SJMP a", cpu.ErrJumpRange(0x1FE)},
		{"AJMP far\nORG 0x800\nfar: SJMP far", cpu.ErrJumpPage},
		{"ORG 0x0FFF\nLJMP 0", cpu.ErrROMOverflow},
		{"NOP\nORG 0\nNOP", cpu.ErrOverlap},
	}

	for _, entry := range table {
		code, col, err := assemble(entry.text)
		assert.Same(cpu.EmptyCode, code, entry.text)

		var asmErr cpu.ErrAssembly
		assert.ErrorAs(err, &asmErr, entry.text)

		errs := col.Errors()
		if !assert.NotEmpty(errs, entry.text) {
			continue
		}
		assert.Equal(len(errs), asmErr.Errors, entry.text)

		var syntax *cpu.ErrSyntax
		assert.ErrorAs(errs[0], &syntax, entry.text)
		assert.ErrorIs(errs[0], entry.err, entry.text)
	}
}

func TestAssembleErrorPosition(t *testing.T) {
	assert := assert.New(t)

	_, col, err := assemble("NOP\n  MOV A, @R2 ; bad\nNOP\nBAR\n")
	assert.Error(err)

	errs := col.Errors()
	assert.Len(errs, 2)

	var syntax *cpu.ErrSyntax
	if assert.ErrorAs(errs[0], &syntax) {
		assert.Equal(2, syntax.LineNo)
		assert.Equal("MOV A, @R2 ; bad", syntax.Line)
	}

	var invalid cpu.ErrOperandInvalid
	if assert.ErrorAs(errs[0], &invalid) {
		assert.Equal("MOV", invalid.Mnemonic)
		assert.Equal([]string{"A", "@R2"}, invalid.Operands)
	}

	if assert.ErrorAs(errs[1], &syntax) {
		assert.Equal(4, syntax.LineNo)
	}
}

func TestAssembleWarnings(t *testing.T) {
	assert := assert.New(t)

	code, col, err := assemble("here: NOP\n")
	assert.NoError(err)
	assert.Equal([]byte{0x00}, code.ROM)
	assert.Empty(col.Errors())

	warns := col.Warnings()
	if assert.Len(warns, 1) {
		assert.True(errors.Is(warns[0], cpu.ErrLabelUnused("here")))
	}
}

func TestCoreAssemble(t *testing.T) {
	assert := assert.New(t)

	code, err := Core.Assemble("core", strings.NewReader("LJMP 0x0100"), nil)
	assert.NoError(err)
	assert.Equal([]byte{0x02, 0x01, 0x00}, code.ROM)

	lines := Core.Disassemble(code)
	assert.Equal([]string{"0000 | LJMP 0x0100"}, lines)
}
