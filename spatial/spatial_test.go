// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spatial

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impulse2d/engine/math2d"
)

// testBox is an indexable object with a mutable bounding box.
type testBox struct {
	id int
	bb math2d.BB
}

func boxBB(obj interface{}) math2d.BB {

	return obj.(*testBox).bb
}

// lcg is a tiny deterministic pseudo random sequence so the tests
// behave identically on every run.
type lcg struct {
	state uint64
}

func (r *lcg) next() float64 {

	r.state = r.state*6364136223846793005 + 1442695040888963407
	return float64(r.state>>11) / float64(1<<53)
}

func randomBoxes(seed uint64, count int, extent, size float64) []*testBox {

	r := &lcg{state: seed}
	boxes := make([]*testBox, count)
	for i := range boxes {
		x := (r.next()*2 - 1) * extent
		y := (r.next()*2 - 1) * extent
		w := r.next() * size
		h := r.next() * size
		boxes[i] = &testBox{
			id: i,
			bb: math2d.NewBB(x, y, x+w, y+h),
		}
	}
	return boxes
}

type pairKey struct {
	a, b int
}

func newPairKey(a, b int) pairKey {

	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// collectPairs runs ReindexQuery and tallies the emitted pairs.
func collectPairs(index Index) map[pairKey]int {

	pairs := map[pairKey]int{}
	index.ReindexQuery(func(obj, other interface{}) {
		key := newPairKey(obj.(*testBox).id, other.(*testBox).id)
		pairs[key]++
	})
	return pairs
}

// bruteForcePairs returns every pair of boxes with intersecting
// bounding boxes.
func bruteForcePairs(boxes []*testBox) map[pairKey]bool {

	pairs := map[pairKey]bool{}
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			if boxes[i].bb.Intersects(boxes[j].bb) {
				pairs[newPairKey(boxes[i].id, boxes[j].id)] = true
			}
		}
	}
	return pairs
}

// checkCompleteness verifies that ReindexQuery finds every truly
// overlapping pair exactly once. Extra pairs from fattened leaf
// boxes are allowed but must not repeat either.
func checkCompleteness(t *testing.T, index Index, boxes []*testBox) {

	t.Helper()

	found := collectPairs(index)
	expected := bruteForcePairs(boxes)

	for key := range expected {
		assert.Equalf(t, 1, found[key], "pair %v missing or duplicated", key)
	}
	for key, count := range found {
		assert.LessOrEqualf(t, count, 1, "pair %v emitted %d times", key, count)
	}
}

func eachIndexImplementation(t *testing.T, f func(t *testing.T, makeIndex func(staticIndex Index) Index)) {

	t.Run("BBTree", func(t *testing.T) {
		f(t, func(staticIndex Index) Index {
			return NewBBTree(boxBB, staticIndex)
		})
	})
	t.Run("SpaceHash", func(t *testing.T) {
		f(t, func(staticIndex Index) Index {
			return NewSpaceHash(20, 999, boxBB, staticIndex)
		})
	})
}

func TestIndexInsertRemoveContains(t *testing.T) {

	eachIndexImplementation(t, func(t *testing.T, makeIndex func(Index) Index) {
		index := makeIndex(nil)
		boxes := randomBoxes(1, 20, 100, 20)

		for _, box := range boxes {
			index.Insert(box, HashValue(box.id))
		}
		assert.Equal(t, 20, index.Count())

		for _, box := range boxes {
			assert.True(t, index.Contains(box, HashValue(box.id)))
		}

		// Each must visit every object exactly once, in insertion
		// order.
		visited := []int{}
		index.Each(func(obj interface{}) {
			visited = append(visited, obj.(*testBox).id)
		})
		require.Len(t, visited, 20)
		for i, id := range visited {
			assert.Equal(t, i, id)
		}

		index.Remove(boxes[7], HashValue(7))
		assert.Equal(t, 19, index.Count())
		assert.False(t, index.Contains(boxes[7], HashValue(7)))
	})
}

func TestIndexReindexQueryCompleteness(t *testing.T) {

	eachIndexImplementation(t, func(t *testing.T, makeIndex func(Index) Index) {
		index := makeIndex(nil)
		boxes := randomBoxes(42, 100, 200, 40)

		for _, box := range boxes {
			index.Insert(box, HashValue(box.id))
		}

		checkCompleteness(t, index, boxes)
	})
}

func TestIndexReindexQueryAfterMoving(t *testing.T) {

	eachIndexImplementation(t, func(t *testing.T, makeIndex func(Index) Index) {
		index := makeIndex(nil)
		boxes := randomBoxes(7, 60, 150, 30)

		for _, box := range boxes {
			index.Insert(box, HashValue(box.id))
		}
		collectPairs(index)

		// Move half of the boxes and re-check the invariant.
		r := &lcg{state: 99}
		for i, box := range boxes {
			if i%2 == 0 {
				dx := (r.next()*2 - 1) * 50
				dy := (r.next()*2 - 1) * 50
				box.bb = box.bb.Offset(math2d.Vect(dx, dy))
			}
		}

		checkCompleteness(t, index, boxes)
		// And once more with no movement at all, exercising the
		// cached pair path.
		checkCompleteness(t, index, boxes)
	})
}

func TestIndexDynamicStaticPairs(t *testing.T) {

	eachIndexImplementation(t, func(t *testing.T, makeIndex func(Index) Index) {
		staticIndex := makeIndex(nil)
		dynamicIndex := makeIndex(staticIndex)

		// One static box overlapped by one dynamic box, plus a far
		// away dynamic box.
		staticBox := &testBox{id: 100, bb: math2d.NewBB(0, 0, 10, 10)}
		dynamic1 := &testBox{id: 1, bb: math2d.NewBB(5, 5, 15, 15)}
		dynamic2 := &testBox{id: 2, bb: math2d.NewBB(500, 500, 510, 510)}

		staticIndex.Insert(staticBox, 100)
		dynamicIndex.Insert(dynamic1, 1)
		dynamicIndex.Insert(dynamic2, 2)

		pairs := collectPairs(dynamicIndex)

		assert.Equal(t, 1, pairs[newPairKey(1, 100)])
		assert.Zero(t, pairs[newPairKey(2, 100)])
		assert.Zero(t, pairs[newPairKey(1, 2)])
	})
}

func TestIndexQuery(t *testing.T) {

	eachIndexImplementation(t, func(t *testing.T, makeIndex func(Index) Index) {
		index := makeIndex(nil)
		boxes := randomBoxes(5, 50, 100, 25)

		for _, box := range boxes {
			index.Insert(box, HashValue(box.id))
		}

		queryBB := math2d.NewBB(-30, -30, 30, 30)
		found := map[int]int{}
		index.Query(nil, queryBB, func(obj, other interface{}) {
			found[other.(*testBox).id]++
		})

		for _, box := range boxes {
			if box.bb.Intersects(queryBB) {
				assert.Equalf(t, 1, found[box.id], "box %d missing or duplicated", box.id)
			}
		}
	})
}

func TestIndexSegmentQuery(t *testing.T) {

	eachIndexImplementation(t, func(t *testing.T, makeIndex func(Index) Index) {
		index := makeIndex(nil)
		boxes := randomBoxes(11, 50, 100, 25)

		for _, box := range boxes {
			index.Insert(box, HashValue(box.id))
		}

		a := math2d.Vect(-120, -120)
		b := math2d.Vect(120, 120)

		found := map[int]bool{}
		index.SegmentQuery(nil, a, b, 1.0, func(obj, other interface{}) float64 {
			found[other.(*testBox).id] = true
			return 1.0
		})

		for _, box := range boxes {
			if box.bb.IntersectsSegment(a, b) {
				assert.Truef(t, found[box.id], "box %d not found by segment query", box.id)
			}
		}
	})
}

func TestSpaceHashResize(t *testing.T) {

	hash := NewSpaceHash(10, 100, boxBB, nil)
	boxes := randomBoxes(3, 30, 80, 15)

	for _, box := range boxes {
		hash.Insert(box, HashValue(box.id))
	}

	hash.Resize(25, 500)
	assert.Equal(t, 30, hash.Count())
	checkCompleteness(t, hash, boxes)
}

func TestNextPrime(t *testing.T) {

	for _, tc := range []struct{ in, out int }{
		{0, 5}, {5, 5}, {6, 13}, {100, 193}, {1000, 1543},
	} {
		assert.Equal(t, tc.out, nextPrime(tc.in), fmt.Sprintf("nextPrime(%d)", tc.in))
	}
}
