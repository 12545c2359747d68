package dataset

import (
	"fmt"
	"math/rand"
)

// Split randomly partitions the Frame's rows into two new Frames. testRatio
// is the fraction of rows assigned to the second Frame. The input Frame is
// not modified. A fixed seed gives a reproducible partition.
func Split(f *Frame, testRatio float64, seed int64) (train, test *Frame, err error) {
	if testRatio < 0 || testRatio > 1 {
		return nil, nil, fmt.Errorf("test ratio must be in [0,1], got %f", testRatio)
	}
	n := f.Len()
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(float64(n) * testRatio)

	inTest := make([]bool, n)
	for i := 0; i < nTest; i++ {
		inTest[perm[i]] = true
	}

	train = f.Copy()
	train.Retain(func(i int) bool { return !inTest[i] })
	test = f.Copy()
	test.Retain(func(i int) bool { return inTest[i] })
	return train, test, nil
}
