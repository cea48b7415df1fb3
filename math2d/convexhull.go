// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math2d

// LoopIndexes returns the indexes of the extreme points of the loop:
// start is the index of the point with the lexicographically lowest
// (x, y) and end the index of the point with the highest.
func LoopIndexes(verts []Vector2) (start, end int) {

	min := verts[0]
	max := min
	for i, v := range verts {
		if v.X < min.X || (v.X == min.X && v.Y < min.Y) {
			min = v
			start = i
		} else if v.X > max.X || (v.X == max.X && v.Y > max.Y) {
			max = v
			end = i
		}
	}
	return start, end
}

// qhullPartition partitions verts so that the points right of
// (clockwise from) the directed line a->b by more than the tolerance
// come first, returning their count. The point with the greatest
// perpendicular distance from the line is swapped to the front.
func qhullPartition(verts []Vector2, a, b Vector2, tol float64) int {

	count := len(verts)
	if count == 0 {
		return 0
	}

	max := 0.0
	pivot := 0

	delta := b.Sub(a)
	valueTol := tol * delta.Length()

	head := 0
	for tail := count - 1; head <= tail; {
		value := verts[head].Sub(a).Cross(delta)
		if value > valueTol {
			if value > max {
				max = value
				pivot = head
			}
			head++
		} else {
			verts[head], verts[tail] = verts[tail], verts[head]
			tail--
		}
	}

	if pivot != 0 {
		verts[0], verts[pivot] = verts[pivot], verts[0]
	}
	return head
}

func qhullReduce(tol float64, verts []Vector2, a, pivot, b Vector2, result []Vector2) int {

	count := len(verts)
	if count < 0 {
		return 0
	} else if count == 0 {
		result[0] = pivot
		return 1
	}

	leftCount := qhullPartition(verts, a, pivot, tol)
	var index int
	if leftCount-1 >= 0 {
		index = qhullReduce(tol, verts[1:leftCount], a, verts[0], pivot, result)
	}

	result[index] = pivot
	index++

	rightCount := qhullPartition(verts[leftCount:], pivot, b, tol)
	if rightCount-1 < 0 {
		return index
	}
	return index + qhullReduce(tol, verts[leftCount+1:leftCount+rightCount], pivot, verts[leftCount], b, result[index:])
}

// ConvexHull calculates the counter-clockwise convex hull of the
// points using a QuickHull variant. Points within tol*edgeLength
// perpendicular distance of a hull edge are collapsed onto it.
//
// If result is nil, the hull is computed in place, reordering verts.
// Otherwise result must be at least len(verts) long. The returned
// slice aliases whichever buffer was used. A degenerate all-equal
// input yields a single-vertex hull.
func ConvexHull(verts []Vector2, result []Vector2, tol float64) []Vector2 {

	if result != nil {
		copy(result, verts)
	} else {
		result = verts
	}

	start, end := LoopIndexes(verts)
	if start == end {
		return result[:1]
	}

	result[0], result[start] = result[start], result[0]
	if end == 0 {
		end = start
	}
	result[1], result[end] = result[end], result[1]

	a := result[0]
	b := result[1]

	count := len(verts)
	resultCount := qhullReduce(tol, result[2:count], a, b, a, result[1:]) + 1
	return result[:resultCount]
}
