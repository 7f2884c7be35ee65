package objfile

// linker.go combines independently assembled ObjectFiles into one, rejecting overlapping address
// ranges and conflicting label definitions. Because the merge is a straight set union followed by
// a pairwise conflict check, Link is associative: Link(Link(a, b), c) and Link(a, Link(b, c))
// produce the same blocks, symbols, and side tables regardless of grouping.

import "sort"

// Link merges a and b. Neither argument is mutated.
func Link(a, b *ObjectFile) (*ObjectFile, error) {
	if err := checkOverlap(a, b); err != nil {
		return nil, err
	}

	if err := checkDuplicateLabels(a, b); err != nil {
		return nil, err
	}

	out := New()
	out.Blocks = append(out.Blocks, a.Blocks...)
	out.Blocks = append(out.Blocks, b.Blocks...)

	for label, addr := range a.Symbols.Labels() {
		out.Symbols.Define(label, addr)
	}

	for label, addr := range b.Symbols.Labels() {
		out.Symbols.Define(label, addr)
	}

	for _, label := range a.Symbols.Externals() {
		out.Symbols.MarkExternal(label)
	}

	for _, label := range b.Symbols.Externals() {
		out.Symbols.MarkExternal(label)
	}

	mergeSideTables(out, a)
	mergeSideTables(out, b)

	return out, nil
}

func mergeSideTables(out, src *ObjectFile) {
	for line, addrs := range src.LineToAddrs {
		out.LineToAddrs[line] = append(out.LineToAddrs[line], addrs...)
	}

	for addr, line := range src.AddrToLine {
		out.AddrToLine[addr] = line
	}

	for addr, rng := range src.AddrSource {
		out.AddrSource[addr] = rng
	}

	for label, rng := range src.LabelSource {
		out.LabelSource[label] = rng
	}
}

func checkOverlap(a, b *ObjectFile) error {
	for _, ba := range a.Blocks {
		for _, bb := range b.Blocks {
			if blocksOverlap(ba, bb) {
				return &LinkError{Reason: "blocks at " + ba.Start.String() + " and " + bb.Start.String() + " overlap"}
			}
		}
	}

	return nil
}

func blocksOverlap(a, b Block) bool {
	aEnd := int(a.Start) + len(a.Words)
	bEnd := int(b.Start) + len(b.Words)

	return int(a.Start) < bEnd && int(b.Start) < aEnd
}

func checkDuplicateLabels(a, b *ObjectFile) error {
	bLabels := b.Symbols.Labels()

	var dup []string

	for label, addrA := range a.Symbols.Labels() {
		if addrB, ok := bLabels[label]; ok && addrA != addrB {
			dup = append(dup, label)
		}
	}

	if len(dup) == 0 {
		return nil
	}

	sort.Strings(dup)

	return &LinkError{Reason: "conflicting definitions of " + dup[0]}
}
