// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spatial implements broad-phase collision indexes over
// axis-aligned bounding boxes. Two interchangeable implementations
// are provided: a bounding box tree tuned for moving objects and a
// uniform spatial hash that performs well when objects are of
// similar size.
package spatial

import (
	"github.com/impulse2d/engine/math2d"
)

// HashValue is an object id used to key objects within an index.
type HashValue uint

// BBFunc returns the current bounding box of an indexed object.
type BBFunc func(obj interface{}) math2d.BB

// Iterator is called once per object by Each.
type Iterator func(obj interface{})

// QueryFunc is called once per object or pair found by a query.
// The first argument is the object or context the query was started
// with, the second the object found.
type QueryFunc func(obj, other interface{})

// SegmentQueryFunc is called for objects along a segment query and
// returns the new exit parameter used to clip the remainder of the
// query. Return 1.0 to leave the query unclipped.
type SegmentQueryFunc func(obj, other interface{}) float64

// Index is the capability set shared by all broad-phase indexes.
type Index interface {
	// Count returns the number of objects in the index.
	Count() int

	// Each calls f once for every object in the index,
	// in insertion order.
	Each(f Iterator)

	// Contains reports whether the index contains the given object.
	Contains(obj interface{}, hashid HashValue) bool

	// Insert adds an object to the index.
	Insert(obj interface{}, hashid HashValue)

	// Remove removes an object from the index.
	Remove(obj interface{}, hashid HashValue)

	// Reindex re-computes the bounding boxes of all objects.
	Reindex()

	// ReindexObject re-computes the bounding box of a single object.
	ReindexObject(obj interface{}, hashid HashValue)

	// ReindexQuery reindexes all objects and emits every pair of
	// objects with overlapping bounding boxes exactly once. If the
	// index is linked to a static index, dynamic-static pairs are
	// emitted as well.
	ReindexQuery(f QueryFunc)

	// Query emits every object whose bounding box overlaps bb.
	Query(obj interface{}, bb math2d.BB, f QueryFunc)

	// SegmentQuery emits objects along the segment from a to b,
	// allowing f to clip the remaining ray with its return value.
	SegmentQuery(obj interface{}, a, b math2d.Vector2, tExit float64, f SegmentQueryFunc)
}

// PointQuery emits every object in the index whose bounding box
// contains the point.
func PointQuery(index Index, point math2d.Vector2, f QueryFunc) {

	index.Query(&point, math2d.NewBB(point.X, point.Y, point.X, point.Y), f)
}

// CollideStatic queries a static index for each object in a dynamic
// index. Used to emit dynamic-static pairs when the static index
// cannot participate in the dynamic index's pairing scheme.
func CollideStatic(dynamicIndex, staticIndex Index, bbfunc BBFunc, f QueryFunc) {

	if staticIndex == nil || staticIndex.Count() == 0 {
		return
	}
	dynamicIndex.Each(func(obj interface{}) {
		staticIndex.Query(obj, bbfunc(obj), f)
	})
}

// orderedSet tracks the insertion order of index objects so that
// iteration is deterministic across runs given the same insertions.
type orderedSet struct {
	objs    []interface{}
	indexes map[interface{}]int
}

func newOrderedSet() *orderedSet {

	return &orderedSet{indexes: map[interface{}]int{}}
}

func (s *orderedSet) count() int {

	return len(s.objs)
}

func (s *orderedSet) contains(obj interface{}) bool {

	_, ok := s.indexes[obj]
	return ok
}

func (s *orderedSet) insert(obj interface{}) bool {

	if _, ok := s.indexes[obj]; ok {
		return false
	}
	s.indexes[obj] = len(s.objs)
	s.objs = append(s.objs, obj)
	return true
}

func (s *orderedSet) remove(obj interface{}) bool {

	pos, ok := s.indexes[obj]
	if !ok {
		return false
	}
	copy(s.objs[pos:], s.objs[pos+1:])
	s.objs[len(s.objs)-1] = nil
	s.objs = s.objs[:len(s.objs)-1]
	delete(s.indexes, obj)
	for i := pos; i < len(s.objs); i++ {
		s.indexes[s.objs[i]] = i
	}
	return true
}

func (s *orderedSet) each(f func(obj interface{})) {

	for _, obj := range s.objs {
		f(obj)
	}
}
