package dataset

import (
	"testing"

	"go.viam.com/test"
)

func TestSplits(t *testing.T) {
	train, val, test_, err := Splits(100)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, train, test.ShouldHaveLength, 80)
	test.That(t, val, test.ShouldHaveLength, 10)
	test.That(t, test_, test.ShouldHaveLength, 10)

	// Holdout frames are evenly strided with a center offset.
	test.That(t, test_[0], test.ShouldEqual, 2)
	test.That(t, test_[1], test.ShouldEqual, 7)
	test.That(t, val[len(val)-1], test.ShouldEqual, 97)

	// Disjoint and covering.
	seen := make(map[int]bool, 100)
	for _, s := range [][]int{train, val, test_} {
		for _, i := range s {
			test.That(t, seen[i], test.ShouldBeFalse)
			seen[i] = true
		}
	}
	test.That(t, seen, test.ShouldHaveLength, 100)

	for i := 1; i < len(train); i++ {
		test.That(t, train[i], test.ShouldBeGreaterThan, train[i-1])
	}
}

func TestSplitsSmallest(t *testing.T) {
	train, val, test_, err := Splits(10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, train, test.ShouldHaveLength, 8)
	test.That(t, val, test.ShouldResemble, []int{7})
	test.That(t, test_, test.ShouldResemble, []int{2})
}

func TestSplitsTooShort(t *testing.T) {
	_, _, _, err := Splits(9)
	test.That(t, err, test.ShouldNotBeNil)
	_, _, _, err = Splits(0)
	test.That(t, err, test.ShouldNotBeNil)
}
