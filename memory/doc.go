// Package memory implements the address spaces of the 8051.
//
// Internal RAM and the special function registers share the 8-bit direct
// address space, split at 0x80. Indirect access through @Ri and the stack
// only reaches internal RAM. Bit addresses below 0x80 map onto RAM bytes
// 0x20-0x2F; bit addresses from 0x80 map onto the SFRs whose address is a
// multiple of eight. Program ROM and external RAM are separate spaces.
package memory
