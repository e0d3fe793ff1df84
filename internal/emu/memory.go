package emu

// pageWords is the number of words per lazily allocated memory page
// (Design Notes' example size): large enough that a typical program
// touches only a handful of pages, small enough that indexing a page
// directly with a 14-bit offset is cheap.
const pageWords = 16384

type page = [pageWords]uint32
type validPage = [pageWords]bool

// Memory is a sparse, word-addressed 32-bit address space. It never
// allocates the full 2^32-word range the original emulator's malloc
// pretended to have: pages are created only when first touched, the
// same "virtual memory is cheap, physical commit is lazy" idea the
// original relied on the OS for, done explicitly in Go.
type Memory struct {
	pages      map[uint32]*page
	valid      map[uint32]*validPage
	highWater  uint32 // exclusive upper bound of addresses ever marked valid
}

// NewMemory returns an empty memory region.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32]*page), valid: make(map[uint32]*validPage)}
}

func split(addr uint32) (pageNo uint32, offset uint32) {
	return addr / pageWords, addr % pageWords
}

// Read returns the word at addr and whether it was ever marked valid.
func (m *Memory) Read(addr uint32) (uint32, bool) {
	pageNo, offset := split(addr)
	p, ok := m.pages[pageNo]
	if !ok {
		return 0, false
	}
	v := m.valid[pageNo]
	return p[offset], v != nil && v[offset]
}

// Write stores word at addr and marks it valid, raising HighWater if
// this is the first time addr (or anything above it) was touched.
func (m *Memory) Write(addr uint32, word uint32) {
	pageNo, offset := split(addr)
	p, ok := m.pages[pageNo]
	if !ok {
		p = &page{}
		m.pages[pageNo] = p
	}
	p[offset] = word

	v, ok := m.valid[pageNo]
	if !ok {
		v = &validPage{}
		m.valid[pageNo] = v
	}
	if !v[offset] {
		v[offset] = true
		if addr >= m.highWater {
			m.highWater = addr + 1
		}
	}
}

// HighWater returns the exclusive upper bound of the region that has
// ever been written (data_hi in spec terms).
func (m *Memory) HighWater() uint32 { return m.highWater }

// Valid reports whether addr has ever been written.
func (m *Memory) Valid(addr uint32) bool {
	_, valid := m.Read(addr)
	return valid
}

// ValidAddresses returns every address ever marked valid, in ascending
// order, by walking only the pages that were actually touched rather
// than scanning the full [0, HighWater) range: spec.md's data dump is
// sparse (scenario 3 writes three addresses millions apart), so a dense
// scan would iterate billions of never-written words to find a handful.
func (m *Memory) ValidAddresses() []uint32 {
	pageNos := make([]uint32, 0, len(m.valid))
	for pageNo := range m.valid {
		pageNos = append(pageNos, pageNo)
	}
	for i := 1; i < len(pageNos); i++ {
		for j := i; j > 0 && pageNos[j] < pageNos[j-1]; j-- {
			pageNos[j], pageNos[j-1] = pageNos[j-1], pageNos[j]
		}
	}
	var addrs []uint32
	for _, pageNo := range pageNos {
		v := m.valid[pageNo]
		base := pageNo * pageWords
		for offset := uint32(0); offset < pageWords; offset++ {
			if v[offset] {
				addrs = append(addrs, base+offset)
			}
		}
	}
	return addrs
}
