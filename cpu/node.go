package cpu

// Pos is the source position of a node.
type Pos struct {
	LineNo int
	Line   string
}

// Position returns the position itself, so Pos can be embedded in nodes.
func (pos Pos) Position() Pos {
	return pos
}

// SetPosition replaces the position.
func (pos *Pos) SetPosition(p Pos) {
	*pos = p
}

// Wrap attaches the position to an error.
func (pos Pos) Wrap(err error) error {
	return &ErrSyntax{LineNo: pos.LineNo, Line: pos.Line, Err: err}
}

// Node is one parsed element of an assembly program.
type Node interface {
	Position() Pos
	SetPosition(p Pos)
	// Size is the number of ROM bytes the node emits.
	Size() int
	// Emit encodes the node at address pc, resolving labels.
	Emit(pc uint16, labels map[string]uint16) (data []byte, err error)
}

// NoArgNode is an opcode without operand bytes.
type NoArgNode struct {
	Pos
	Op *Opcode
}

func (node *NoArgNode) Size() int { return 1 }

func (node *NoArgNode) Emit(pc uint16, labels map[string]uint16) ([]byte, error) {
	return []byte{node.Op.Byte}, nil
}

// SimpleNode is an opcode with literal operand bytes.
type SimpleNode struct {
	Pos
	Op       *Opcode
	Operands []byte
}

func (node *SimpleNode) Size() int { return 1 + len(node.Operands) }

func (node *SimpleNode) Emit(pc uint16, labels map[string]uint16) ([]byte, error) {
	return append([]byte{node.Op.Byte}, node.Operands...), nil
}

// JumpKind selects how a JumpNode encodes its target.
type JumpKind int

const (
	JUMP_RELATIVE JumpKind = iota // Signed byte from the next instruction.
	JUMP_PAGE                     // Low 11 bits, high 3 in the opcode byte.
	JUMP_LONG                     // 16-bit absolute address.
)

// JumpNode is an opcode whose last operand is a code address.
type JumpNode struct {
	Pos
	Op       *Opcode
	Operands []byte   // Operand bytes preceding the target.
	Kind     JumpKind
	Target   string   // Label name. If empty, Address is used.
	Address  uint16
}

func (node *JumpNode) Size() (size int) {
	size = 1 + len(node.Operands) + 1
	if node.Kind == JUMP_LONG {
		size++
	}
	return
}

// Resolve returns the target address.
func (node *JumpNode) Resolve(labels map[string]uint16) (addr uint16, err error) {
	if len(node.Target) == 0 {
		addr = node.Address
		return
	}

	addr, ok := labels[node.Target]
	if !ok {
		err = ErrLabelMissing(node.Target)
	}
	return
}

func (node *JumpNode) Emit(pc uint16, labels map[string]uint16) (data []byte, err error) {
	target, err := node.Resolve(labels)
	if err != nil {
		return
	}

	next := pc + uint16(node.Size())
	opcode := node.Op.Byte

	data = append([]byte{opcode}, node.Operands...)
	switch node.Kind {
	case JUMP_RELATIVE:
		offset := int(int16(target - next))
		if offset < -128 || offset > 127 {
			data = nil
			err = ErrJumpRange(offset)
			return
		}
		data = append(data, byte(offset))
	case JUMP_PAGE:
		if target&0xF800 != next&0xF800 {
			data = nil
			err = ErrJumpPage
			return
		}
		data[0] = opcode&0x1F | byte(target>>8&0x07)<<5
		data = append(data, byte(target))
	case JUMP_LONG:
		data = append(data, byte(target>>8), byte(target))
	}

	return
}

// LabelNode defines a label at the current address.
type LabelNode struct {
	Pos
	Name string
}

func (node *LabelNode) Size() int { return 0 }

func (node *LabelNode) Emit(pc uint16, labels map[string]uint16) ([]byte, error) {
	return nil, nil
}

// OrgNode moves the current address.
type OrgNode struct {
	Pos
	Address uint16
}

func (node *OrgNode) Size() int { return 0 }

func (node *OrgNode) Emit(pc uint16, labels map[string]uint16) ([]byte, error) {
	return nil, nil
}

// DataNode emits literal bytes.
type DataNode struct {
	Pos
	Data []byte
}

func (node *DataNode) Size() int { return len(node.Data) }

func (node *DataNode) Emit(pc uint16, labels map[string]uint16) ([]byte, error) {
	return node.Data, nil
}

// ErrorNode stands in for a line that failed to parse.
type ErrorNode struct {
	Pos
	Err error
}

func (node *ErrorNode) Size() int { return 0 }

func (node *ErrorNode) Emit(pc uint16, labels map[string]uint16) ([]byte, error) {
	return nil, nil
}
