package memory

import (
	"fmt"
	"iter"

	"github.com/ezrec/rcu51/internal"
)

// Special function register direct addresses.
const (
	P0   = byte(0x80)
	SP   = byte(0x81)
	DPL  = byte(0x82)
	DPH  = byte(0x83)
	PCON = byte(0x87)
	TCON = byte(0x88)
	TMOD = byte(0x89)
	TL0  = byte(0x8A)
	TL1  = byte(0x8B)
	TH0  = byte(0x8C)
	TH1  = byte(0x8D)
	P1   = byte(0x90)
	SCON = byte(0x98)
	SBUF = byte(0x99)
	P2   = byte(0xA0)
	IE   = byte(0xA8)
	P3   = byte(0xB0)
	IP   = byte(0xB8)
	PSW  = byte(0xD0)
	ACC  = byte(0xE0)
	B    = byte(0xF0)
)

// Bit addresses of the named SFR bits.
const (
	BIT_IT0 = byte(0x88)
	BIT_IE0 = byte(0x89)
	BIT_IT1 = byte(0x8A)
	BIT_IE1 = byte(0x8B)
	BIT_TR0 = byte(0x8C)
	BIT_TF0 = byte(0x8D)
	BIT_TR1 = byte(0x8E)
	BIT_TF1 = byte(0x8F)

	BIT_RI  = byte(0x98)
	BIT_TI  = byte(0x99)
	BIT_RB8 = byte(0x9A)
	BIT_TB8 = byte(0x9B)
	BIT_REN = byte(0x9C)
	BIT_SM2 = byte(0x9D)
	BIT_SM1 = byte(0x9E)
	BIT_SM0 = byte(0x9F)

	BIT_EX0 = byte(0xA8)
	BIT_ET0 = byte(0xA9)
	BIT_EX1 = byte(0xAA)
	BIT_ET1 = byte(0xAB)
	BIT_ES  = byte(0xAC)
	BIT_EA  = byte(0xAF)

	BIT_INT0 = byte(0xB2) // P3.2
	BIT_INT1 = byte(0xB3) // P3.3
	BIT_T0   = byte(0xB4) // P3.4
	BIT_T1   = byte(0xB5) // P3.5

	BIT_PX0 = byte(0xB8)
	BIT_PT0 = byte(0xB9)
	BIT_PX1 = byte(0xBA)
	BIT_PT1 = byte(0xBB)
	BIT_PS  = byte(0xBC)

	BIT_P   = byte(0xD0)
	BIT_OV  = byte(0xD2)
	BIT_RS0 = byte(0xD3)
	BIT_RS1 = byte(0xD4)
	BIT_F0  = byte(0xD5)
	BIT_AC  = byte(0xD6)
	BIT_CY  = byte(0xD7)
)

// PSW flag masks.
const (
	PSW_P   = byte(1 << 0)
	PSW_OV  = byte(1 << 2)
	PSW_RS0 = byte(1 << 3)
	PSW_RS1 = byte(1 << 4)
	PSW_F0  = byte(1 << 5)
	PSW_AC  = byte(1 << 6)
	PSW_CY  = byte(1 << 7)
)

// SFRNames maps assembler names to SFR direct addresses.
var SFRNames = map[string]byte{
	"P0":   P0,
	"SP":   SP,
	"DPL":  DPL,
	"DPH":  DPH,
	"PCON": PCON,
	"TCON": TCON,
	"TMOD": TMOD,
	"TL0":  TL0,
	"TL1":  TL1,
	"TH0":  TH0,
	"TH1":  TH1,
	"P1":   P1,
	"SCON": SCON,
	"SBUF": SBUF,
	"P2":   P2,
	"IE":   IE,
	"P3":   P3,
	"IP":   IP,
	"PSW":  PSW,
	"ACC":  ACC,
	"B":    B,
}

// BitNames maps assembler names to bit addresses.
var BitNames = map[string]byte{
	"IT0": BIT_IT0,
	"IE0": BIT_IE0,
	"IT1": BIT_IT1,
	"IE1": BIT_IE1,
	"TR0": BIT_TR0,
	"TF0": BIT_TF0,
	"TR1": BIT_TR1,
	"TF1": BIT_TF1,
	"RI":  BIT_RI,
	"TI":  BIT_TI,
	"RB8": BIT_RB8,
	"TB8": BIT_TB8,
	"REN": BIT_REN,
	"SM2": BIT_SM2,
	"SM1": BIT_SM1,
	"SM0": BIT_SM0,
	"EX0": BIT_EX0,
	"ET0": BIT_ET0,
	"EX1": BIT_EX1,
	"ET1": BIT_ET1,
	"ES":  BIT_ES,
	"EA":  BIT_EA,
	"PX0": BIT_PX0,
	"PT0": BIT_PT0,
	"PX1": BIT_PX1,
	"PT1": BIT_PT1,
	"PS":  BIT_PS,
	"P":   BIT_P,
	"OV":  BIT_OV,
	"RS0": BIT_RS0,
	"RS1": BIT_RS1,
	"F0":  BIT_F0,
	"AC":  BIT_AC,
	"CY":  BIT_CY,
}

var (
	sfrByAddr = invert(SFRNames)
	bitByAddr = invert(BitNames)
)

func invert(names map[string]byte) (addrs map[byte]string) {
	addrs = make(map[byte]string, len(names))
	for name, addr := range names {
		addrs[addr] = name
	}
	return
}

// Symbols returns an iterator over every SFR name, then every bit name,
// each in name order.
func Symbols() iter.Seq2[string, byte] {
	return internal.Seq2Concat(internal.SortedSeq2(SFRNames), internal.SortedSeq2(BitNames))
}

// SFRName returns the name of a SFR direct address, if it has one.
func SFRName(addr byte) (name string, ok bool) {
	name, ok = sfrByAddr[addr]
	return
}

// DirectName formats a direct address, by name when it is a known SFR.
func DirectName(addr byte) string {
	if name, ok := sfrByAddr[addr]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", addr)
}

// BitName formats a bit address: its name, SFR.n, or a hex number.
func BitName(bit byte) string {
	if name, ok := bitByAddr[bit]; ok {
		return name
	}
	if bit >= 0x80 {
		if name, ok := sfrByAddr[bit&0xF8]; ok {
			return fmt.Sprintf("%v.%d", name, bit&7)
		}
	}
	return fmt.Sprintf("0x%02X", bit)
}
