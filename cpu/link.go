package cpu

// CheckLabels reports duplicated and missing labels as errors, and unused
// labels as warnings.
func CheckLabels(nodes []Node, diag Diagnostics) {
	defined := map[string]*LabelNode{}
	used := map[string]bool{}

	for _, node := range nodes {
		switch n := node.(type) {
		case *LabelNode:
			if _, ok := defined[n.Name]; ok {
				diag.Error(n.Wrap(ErrLabelDuplicate))
				continue
			}
			defined[n.Name] = n
		case *JumpNode:
			if len(n.Target) != 0 {
				used[n.Target] = true
			}
		}
	}

	for _, node := range nodes {
		if n, ok := node.(*JumpNode); ok && len(n.Target) != 0 {
			if _, ok := defined[n.Target]; !ok {
				diag.Error(n.Wrap(ErrLabelMissing(n.Target)))
			}
		}
	}

	for _, node := range nodes {
		if n, ok := node.(*LabelNode); ok && defined[n.Name] == n && !used[n.Name] {
			diag.Warning(n.Wrap(ErrLabelUnused(n.Name)))
		}
	}
}

// Link assigns addresses to nodes, and emits a ROM image no larger than
// romSize. The image ends at the highest emitted byte.
func Link(nodes []Node, romSize int, diag Diagnostics) (rom []byte, names map[uint16]string) {
	addrs := make([]int, len(nodes))
	labels := map[string]uint16{}
	names = map[uint16]string{}

	pc := 0
	end := 0
	overflow := false
	for n, node := range nodes {
		switch node := node.(type) {
		case *OrgNode:
			pc = int(node.Address)
		case *LabelNode:
			if _, ok := labels[node.Name]; !ok {
				labels[node.Name] = uint16(pc)
				if _, ok := names[uint16(pc)]; !ok {
					names[uint16(pc)] = node.Name
				}
			}
		}
		addrs[n] = pc
		pc += node.Size()
		if pc > romSize && !overflow {
			diag.Error(node.Position().Wrap(ErrROMOverflow))
			overflow = true
		}
		end = max(end, pc)
	}

	if overflow {
		return
	}

	rom = make([]byte, end)
	written := make([]bool, end)
	for n, node := range nodes {
		data, err := node.Emit(uint16(addrs[n]), labels)
		if err != nil {
			diag.Error(node.Position().Wrap(err))
			continue
		}
		for i, b := range data {
			addr := addrs[n] + i
			if written[addr] {
				diag.Error(node.Position().Wrap(ErrOverlap))
				break
			}
			written[addr] = true
			rom[addr] = b
		}
	}

	return
}
