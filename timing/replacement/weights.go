package replacement

// Predictor geometry. Each feature owns one table; every table is indexed by
// an 8-bit hash.
const (
	NumFeatures = 6
	TableSize   = 256

	// WeightMax and WeightMin bound every weight (6-bit signed).
	WeightMax = 31
	WeightMin = -32
)

// WeightTables holds one saturating weight table per feature in a single
// flat buffer indexed by table*TableSize + index.
type WeightTables struct {
	weights [NumFeatures * TableSize]int8
}

// Weight returns the weight at index of the given table.
func (t *WeightTables) Weight(table int, index uint8) int32 {
	return int32(t.weights[table*TableSize+int(index)])
}

// Increment raises one weight by 1 unless it is already at WeightMax.
func (t *WeightTables) Increment(table int, index uint8) {
	w := &t.weights[table*TableSize+int(index)]
	if *w < WeightMax {
		*w++
	}
}

// Decrement lowers one weight by 1 unless it is already at WeightMin.
func (t *WeightTables) Decrement(table int, index uint8) {
	w := &t.weights[table*TableSize+int(index)]
	if *w > WeightMin {
		*w--
	}
}

// Score sums the weights addressed by a feature vector. A high score means
// the block is unlikely to be reused.
func (t *WeightTables) Score(f FeatureVector) int32 {
	var yout int32
	for table, index := range f {
		yout += t.Weight(table, index)
	}
	return yout
}

// Train moves every weight addressed by f one step toward "dead"
// (increment) or toward "reused" (decrement).
func (t *WeightTables) Train(f FeatureVector, increment bool) {
	for table, index := range f {
		if increment {
			t.Increment(table, index)
		} else {
			t.Decrement(table, index)
		}
	}
}
