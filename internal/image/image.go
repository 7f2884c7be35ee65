package image

// image.go derives the debug index the disassembly pane reads: an addr -> display string cache
// built from an assembled ObjectFile's source lines, kept current as the simulator mutates memory
// by recomputing just the touched addresses from the observer's modified-address list. Grounded on
// the spec's addr -> display_string algorithm (source text, then printable ASCII annotation, then
// disassembly fallback after mutation); no teacher equivalent exists, since the teacher has no
// debugger-facing annotation layer.

import (
	"sort"
	"strconv"

	"github.com/patt3/lc3core/internal/objfile"
	"github.com/patt3/lc3core/internal/vm"
)

// SourceRange mirrors objfile.SourceRange for callers that only import this package.
type SourceRange = objfile.SourceRange

// Cache is the host-visible annotation map the spec calls ObjectImageCache.
type Cache struct {
	display map[vm.Word]string
	source  map[vm.Word]string // original source text per address, kept so mutation can fall back
	labels  map[string]vm.Word
	addrs   map[vm.Word]string

	labelSource map[string]SourceRange
	addrSource  map[vm.Word]SourceRange
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		display:     make(map[vm.Word]string),
		source:      make(map[vm.Word]string),
		labels:      make(map[string]vm.Word),
		addrs:       make(map[vm.Word]string),
		labelSource: make(map[string]SourceRange),
		addrSource:  make(map[vm.Word]SourceRange),
	}
}

// Clear empties the cache, as happens on simulator reset.
func (c *Cache) Clear() {
	c.display = make(map[vm.Word]string)
	c.source = make(map[vm.Word]string)
	c.labels = make(map[string]vm.Word)
	c.addrs = make(map[vm.Word]string)
	c.labelSource = make(map[string]SourceRange)
	c.addrSource = make(map[vm.Word]SourceRange)
}

// Load populates the cache from a freshly assembled or loaded ObjectFile and the source text it
// was built from (sourceLines is nil for object files with no source, e.g. deserialized binaries).
func (c *Cache) Load(of *objfile.ObjectFile, sourceLines []string) {
	for label, addr := range of.Symbols.Labels() {
		c.labels[label] = addr
		c.addrs[addr] = label
	}

	for label, rng := range of.LabelSource {
		c.labelSource[label] = rng
	}

	for addr, rng := range of.AddrSource {
		c.addrSource[addr] = rng
	}

	for addr, line := range of.AddrToLine {
		text := annotateAddr(of, addr, sourceLines, line)
		c.source[addr] = text
		c.display[addr] = text
	}
}

func annotateAddr(of *objfile.ObjectFile, addr vm.Word, sourceLines []string, line int) string {
	text := ""

	if sourceLines != nil && line >= 1 && line <= len(sourceLines) {
		text = sourceLines[line-1]
	}

	if label, ok := of.Symbols.LabelAt(addr); ok && text == "" {
		text = label
	}

	return text
}

// Get returns the current display string for addr, or "" if nothing is known about it.
func (c *Cache) Get(addr vm.Word) string { return c.display[addr] }

// Update recomputes the display string for each address in addrs by reading its current word from
// mem: printable ASCII bytes are appended in parentheses to the original source text, or, if the
// source text for that address is no longer applicable, the word is disassembled; if disassembly
// also fails, the display string is cleared to empty.
func (c *Cache) Update(addrs []vm.Word, mem *vm.Memory) {
	for _, addr := range addrs {
		word, err := mem.Read(addr, vm.OmnipotentCtx())
		if err != nil {
			c.display[addr] = ""
			continue
		}

		if src, ok := c.source[addr]; ok {
			c.display[addr] = annotateWithASCII(src, word)
			continue
		}

		if text, ok := Disassemble(word); ok {
			c.display[addr] = "*" + text
			continue
		}

		c.display[addr] = ""
	}
}

func annotateWithASCII(source string, word vm.Word) string {
	lo := byte(word & 0xff)
	hi := byte(word >> 8 & 0xff)

	suffix := ""

	for _, b := range []byte{hi, lo} {
		if b >= 0x20 && b < 0x7f {
			suffix += " (" + strconv.QuoteRune(rune(b)) + ")"
		}
	}

	return source + suffix
}

// LabelSourceRange implements getLabelSourceRange.
func (c *Cache) LabelSourceRange(label string) (SourceRange, bool) {
	rng, ok := c.labelSource[label]
	return rng, ok
}

// AddrSourceRange implements getAddrSourceRange.
func (c *Cache) AddrSourceRange(addr vm.Word) (SourceRange, bool) {
	rng, ok := c.addrSource[addr]
	return rng, ok
}

// SymTable implements getCurrSymTable: the address -> label map currently loaded.
func (c *Cache) SymTable() map[vm.Word]string {
	out := make(map[vm.Word]string, len(c.addrs))
	for addr, label := range c.addrs {
		out[addr] = label
	}

	return out
}

// Labels returns the labels known to the cache, ascending by address, for diagnostics/tests.
func (c *Cache) Labels() []string {
	out := make([]string, 0, len(c.labels))
	for label := range c.labels {
		out = append(out, label)
	}

	sort.Slice(out, func(i, j int) bool { return c.labels[out[i]] < c.labels[out[j]] })

	return out
}
