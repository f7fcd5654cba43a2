package cache

const (
	pageBits = 12
	pageSize = 1 << pageBits
)

// SparseMemory is a byte-addressable memory that allocates 4KB pages on
// first write. Unwritten bytes read as zero.
type SparseMemory struct {
	pages map[uint64]*[pageSize]byte
}

// NewSparseMemory creates an empty memory.
func NewSparseMemory() *SparseMemory {
	return &SparseMemory{pages: make(map[uint64]*[pageSize]byte)}
}

// Read8 reads one byte.
func (m *SparseMemory) Read8(addr uint64) byte {
	page, ok := m.pages[addr>>pageBits]
	if !ok {
		return 0
	}
	return page[addr&(pageSize-1)]
}

// Write8 writes one byte.
func (m *SparseMemory) Write8(addr uint64, value byte) {
	page, ok := m.pages[addr>>pageBits]
	if !ok {
		page = new([pageSize]byte)
		m.pages[addr>>pageBits] = page
	}
	page[addr&(pageSize-1)] = value
}

// Read32 reads a little-endian 32-bit value.
func (m *SparseMemory) Read32(addr uint64) uint32 {
	return uint32(m.readN(addr, 4))
}

// Write32 writes a little-endian 32-bit value.
func (m *SparseMemory) Write32(addr uint64, value uint32) {
	m.writeN(addr, 4, uint64(value))
}

// Read64 reads a little-endian 64-bit value.
func (m *SparseMemory) Read64(addr uint64) uint64 {
	return m.readN(addr, 8)
}

// Write64 writes a little-endian 64-bit value.
func (m *SparseMemory) Write64(addr uint64, value uint64) {
	m.writeN(addr, 8, value)
}

// Pages returns the number of allocated pages.
func (m *SparseMemory) Pages() int {
	return len(m.pages)
}

func (m *SparseMemory) readN(addr uint64, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(m.Read8(addr+uint64(i))) << (i * 8)
	}
	return v
}

func (m *SparseMemory) writeN(addr uint64, n int, value uint64) {
	for i := 0; i < n; i++ {
		m.Write8(addr+uint64(i), byte(value>>(i*8)))
	}
}

// MemoryBacking wraps a SparseMemory as a BackingStore.
type MemoryBacking struct {
	memory *SparseMemory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *SparseMemory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// Read fetches data from the backing memory.
func (m *MemoryBacking) Read(addr uint64, size int) []byte {
	data := make([]byte, size)
	for i := 0; i < size; i++ {
		data[i] = m.memory.Read8(addr + uint64(i))
	}
	return data
}

// Write stores data to the backing memory.
func (m *MemoryBacking) Write(addr uint64, data []byte) {
	for i, b := range data {
		m.memory.Write8(addr+uint64(i), b)
	}
}
