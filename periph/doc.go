// Package periph implements the on-chip peripherals of the 8051: the four
// I/O ports, timer/counters 0 and 1, the serial port, and the interrupt
// controller.
//
// Each peripheral is advanced once per machine cycle by its Run method,
// and keeps all of its registers in the SFR space of a memory.Memory.
package periph
