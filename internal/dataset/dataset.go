package dataset

import (
	"math/rand"
)

// Split partitions encoded sequences into disjoint train and validation sets.
// The shuffle is seeded, so the same corpus and seed always produce the same
// partition.
func Split(sequences [][]int, valFraction float64, seed int64) (train, val [][]int) {
	n := len(sequences)
	order := rand.New(rand.NewSource(seed)).Perm(n)

	valCount := int(float64(n) * valFraction)
	if valCount > n {
		valCount = n
	}

	val = make([][]int, 0, valCount)
	train = make([][]int, 0, n-valCount)
	for i, idx := range order {
		if i < valCount {
			val = append(val, sequences[idx])
		} else {
			train = append(train, sequences[idx])
		}
	}
	return train, val
}

// Batches shuffles the sequences with the supplied rng and cuts them into
// mini-batches. The tail batch may be short; zero-length batches are never
// produced.
func Batches(sequences [][]int, batchSize int, rng *rand.Rand) [][][]int {
	if batchSize <= 0 || len(sequences) == 0 {
		return nil
	}

	shuffled := make([][]int, len(sequences))
	copy(shuffled, sequences)
	if rng != nil {
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
	}

	var batches [][][]int
	for start := 0; start < len(shuffled); start += batchSize {
		end := start + batchSize
		if end > len(shuffled) {
			end = len(shuffled)
		}
		batches = append(batches, shuffled[start:end])
	}
	return batches
}
