package replacement

// HistoryLen is the number of recent program counters kept for features.
const HistoryLen = 4

// History holds the most recent access PCs, most recent first.
type History [HistoryLen]uint64

// Push shifts every entry one slot older and stores pc at the front.
func (h *History) Push(pc uint64) {
	copy(h[1:], h[:HistoryLen-1])
	h[0] = pc
}

// Pushed returns a copy of h with pc pushed, leaving h untouched.
func (h History) Pushed(pc uint64) History {
	h.Push(pc)
	return h
}

// FeatureVector holds one weight-table index per feature.
type FeatureVector [NumFeatures]uint8

// historyShift is the right shift applied to each history entry before it is
// hashed with the PC.
var historyShift = [HistoryLen]uint{2, 1, 2, 3}

// Tag shifts for the last two features.
const (
	tagShiftLow  = 4
	tagShiftHigh = 7
)

// Features hashes the access PC with the PC history and the block tag. The
// history must already contain pc at index 0.
func Features(pc, tag uint64, h History) FeatureVector {
	var f FeatureVector
	for i, prev := range h {
		f[i] = hashWindow(prev>>historyShift[i], pc)
	}
	f[HistoryLen] = hashWindow(tag>>tagShiftLow, pc)
	f[HistoryLen+1] = hashWindow(tag>>tagShiftHigh, pc)
	return f
}

// hashWindow XORs the low 8 bits of the context value with the low 8 bits
// of the PC.
func hashWindow(context, pc uint64) uint8 {
	return uint8(context) ^ uint8(pc)
}
