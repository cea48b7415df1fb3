// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spatial

import (
	"math"

	"github.com/impulse2d/engine/math2d"
)

// SpaceHash is a uniform grid broad-phase index. Each object is
// hashed into every grid cell its bounding box overlaps. It performs
// best when the cell size is tuned to roughly match the size of the
// objects in it.
type SpaceHash struct {
	bbfunc BBFunc

	celldim  float64
	numcells int
	table    []*hashBin

	handles    *orderedSet
	handleMap  map[interface{}]*hashHandle
	pooledBins *hashBin

	stamp uint

	staticIndex Index
}

type hashHandle struct {
	obj   interface{}
	stamp uint
}

type hashBin struct {
	handle *hashHandle
	next   *hashBin
}

// The hash table size is kept prime to avoid clustering artifacts
// from the cell hash.
var primes = []int{
	5, 13, 23, 47, 97, 193, 389, 769, 1543, 3079, 6151, 12289,
	24593, 49157, 98317, 196613, 393241, 786433, 1572869, 3145739,
	6291469, 12582917, 25165843, 50331653, 100663319, 201326611,
	402653189, 805306457, 1610612741,
}

func nextPrime(n int) int {

	for _, p := range primes {
		if p >= n {
			return p
		}
	}
	return n
}

// NewSpaceHash creates a spatial hash with the given cell size and
// suggested table size (rounded up to the next prime). If
// staticIndex is non-nil, ReindexQuery also emits pairs between this
// hash's objects and the static index's objects.
func NewSpaceHash(celldim float64, numcells int, bbfunc BBFunc, staticIndex Index) *SpaceHash {

	hash := &SpaceHash{
		bbfunc:      bbfunc,
		handles:     newOrderedSet(),
		handleMap:   map[interface{}]*hashHandle{},
		stamp:       1,
		staticIndex: staticIndex,
	}
	hash.allocTable(celldim, nextPrime(numcells))
	return hash
}

// Resize clears and reallocates the hash table. numcells is rounded
// up to the next prime.
func (hash *SpaceHash) Resize(celldim float64, numcells int) {

	hash.clearTable()
	hash.allocTable(celldim, nextPrime(numcells))
	hash.Reindex()
}

func (hash *SpaceHash) allocTable(celldim float64, numcells int) {

	hash.celldim = celldim
	hash.numcells = numcells
	hash.table = make([]*hashBin, numcells)
}

func (hash *SpaceHash) recycleBin(bin *hashBin) {

	bin.handle = nil
	bin.next = hash.pooledBins
	hash.pooledBins = bin
}

func (hash *SpaceHash) getEmptyBin() *hashBin {

	bin := hash.pooledBins
	if bin != nil {
		hash.pooledBins = bin.next
		return bin
	}
	return &hashBin{}
}

func (hash *SpaceHash) clearTableCell(idx int) {

	bin := hash.table[idx]
	for bin != nil {
		next := bin.next
		hash.recycleBin(bin)
		bin = next
	}
	hash.table[idx] = nil
}

func (hash *SpaceHash) clearTable() {

	for i := range hash.table {
		hash.clearTableCell(i)
	}
}

// hashFunc maps cell coordinates onto the table.
func hashFunc(x, y, n int64) int64 {

	v := (x*1640531513 ^ y*2654435789) % n
	if v < 0 {
		return v + n
	}
	return v
}

// floorInt rounds toward negative infinity; a plain int conversion
// would truncate negative coordinates toward zero.
func floorInt(f float64) int64 {

	return int64(math.Floor(f))
}

func containsHandle(bin *hashBin, hand *hashHandle) bool {

	for ; bin != nil; bin = bin.next {
		if bin.handle == hand {
			return true
		}
	}
	return false
}

func (hash *SpaceHash) hashHandle(hand *hashHandle, bb math2d.BB) {

	// Find the dimensions in cell coordinates.
	dim := hash.celldim
	l := floorInt(bb.L / dim)
	r := floorInt(bb.R / dim)
	b := floorInt(bb.B / dim)
	t := floorInt(bb.T / dim)

	n := int64(hash.numcells)
	for i := l; i <= r; i++ {
		for j := b; j <= t; j++ {
			idx := hashFunc(i, j, n)
			bin := hash.table[idx]

			// Don't add an object twice to the same cell.
			if containsHandle(bin, hand) {
				continue
			}

			newBin := hash.getEmptyBin()
			newBin.handle = hand
			newBin.next = bin
			hash.table[idx] = newBin
		}
	}
}

// Count returns the number of objects in the hash.
func (hash *SpaceHash) Count() int {

	return hash.handles.count()
}

// Each calls f once for every object in the hash in insertion order.
func (hash *SpaceHash) Each(f Iterator) {

	hash.handles.each(f)
}

// Contains reports whether the hash contains the given object.
func (hash *SpaceHash) Contains(obj interface{}, hashid HashValue) bool {

	return hash.handles.contains(obj)
}

// Insert adds an object to the hash.
func (hash *SpaceHash) Insert(obj interface{}, hashid HashValue) {

	if !hash.handles.insert(obj) {
		return
	}
	hand := &hashHandle{obj: obj}
	hash.handleMap[obj] = hand
	hash.hashHandle(hand, hash.bbfunc(obj))
}

// Remove removes an object from the hash. Its cells are lazily
// cleaned out on the next rehash.
func (hash *SpaceHash) Remove(obj interface{}, hashid HashValue) {

	if !hash.handles.remove(obj) {
		return
	}
	hand := hash.handleMap[obj]
	delete(hash.handleMap, obj)
	hand.obj = nil
}

// Reindex rehashes every object.
func (hash *SpaceHash) Reindex() {

	hash.clearTable()
	hash.handles.each(func(obj interface{}) {
		hash.hashHandle(hash.handleMap[obj], hash.bbfunc(obj))
	})
}

// ReindexObject rehashes a single object.
func (hash *SpaceHash) ReindexObject(obj interface{}, hashid HashValue) {

	if !hash.handles.contains(obj) {
		return
	}
	hash.Remove(obj, hashid)
	hash.Insert(obj, hashid)
}

// queryBin calls f for the live objects in a bin chain, using the
// query stamp to skip objects already reported during this query.
func (hash *SpaceHash) queryBin(bin *hashBin, obj interface{}, f QueryFunc) {

	for ; bin != nil; bin = bin.next {
		hand := bin.handle
		other := hand.obj

		if hand.stamp == hash.stamp || obj == other || other == nil {
			continue
		}
		f(obj, other)
		hand.stamp = hash.stamp
	}
}

// Query emits every object whose bounding box overlaps bb.
func (hash *SpaceHash) Query(obj interface{}, bb math2d.BB, f QueryFunc) {

	dim := hash.celldim
	l := floorInt(bb.L / dim)
	r := floorInt(bb.R / dim)
	b := floorInt(bb.B / dim)
	t := floorInt(bb.T / dim)

	n := int64(hash.numcells)
	for i := l; i <= r; i++ {
		for j := b; j <= t; j++ {
			hash.queryBin(hash.table[hashFunc(i, j, n)], obj, f)
		}
	}
	hash.stamp++
}

// ReindexQuery rehashes every object while emitting all overlapping
// pairs exactly once, then emits pairs against the static index.
func (hash *SpaceHash) ReindexQuery(f QueryFunc) {

	hash.clearTable()

	hash.handles.each(func(obj interface{}) {
		hand := hash.handleMap[obj]
		bb := hash.bbfunc(obj)

		dim := hash.celldim
		l := floorInt(bb.L / dim)
		r := floorInt(bb.R / dim)
		b := floorInt(bb.B / dim)
		t := floorInt(bb.T / dim)

		n := int64(hash.numcells)
		for i := l; i <= r; i++ {
			for j := b; j <= t; j++ {
				idx := hashFunc(i, j, n)
				bin := hash.table[idx]
				if containsHandle(bin, hand) {
					continue
				}

				hash.queryBin(bin, obj, f)

				newBin := hash.getEmptyBin()
				newBin.handle = hand
				newBin.next = bin
				hash.table[idx] = newBin
			}
		}
		hash.stamp++
	})

	if hash.staticIndex != nil {
		CollideStatic(hash, hash.staticIndex, hash.bbfunc, f)
	}
}

// SegmentQuery walks the grid cells crossed by the segment from a to
// b in order, letting f clip the remaining ray.
func (hash *SpaceHash) SegmentQuery(obj interface{}, a, b math2d.Vector2, tExit float64, f SegmentQueryFunc) {

	a = a.Mult(1.0 / hash.celldim)
	b = b.Mult(1.0 / hash.celldim)

	cellX := floorInt(a.X)
	cellY := floorInt(a.Y)

	t := 0.0

	var xInc, yInc int64
	var tempH, tempV float64

	if b.X > a.X {
		xInc = 1
		tempH = math.Floor(a.X+1.0) - a.X
	} else {
		xInc = -1
		tempH = a.X - math.Floor(a.X)
	}

	if b.Y > a.Y {
		yInc = 1
		tempV = math.Floor(a.Y+1.0) - a.Y
	} else {
		yInc = -1
		tempV = a.Y - math.Floor(a.Y)
	}

	dx := math2d.Abs(b.X - a.X)
	dy := math2d.Abs(b.Y - a.Y)
	dtdx := math.Inf(1)
	if dx != 0 {
		dtdx = 1.0 / dx
	}
	dtdy := math.Inf(1)
	if dy != 0 {
		dtdy = 1.0 / dy
	}

	nextH := dtdx
	if tempH != 0 {
		nextH = tempH * dtdx
	}
	nextV := dtdy
	if tempV != 0 {
		nextV = tempV * dtdy
	}

	n := int64(hash.numcells)
	for t < tExit {
		bin := hash.table[hashFunc(cellX, cellY, n)]
		for ; bin != nil; bin = bin.next {
			hand := bin.handle
			other := hand.obj

			if hand.stamp == hash.stamp || other == nil {
				continue
			}
			tExit = math2d.Min(tExit, f(obj, other))
			hand.stamp = hash.stamp
		}

		if nextV < nextH {
			cellY += yInc
			t = nextV
			nextV += dtdy
		} else {
			cellX += xInc
			t = nextH
			nextH += dtdx
		}
	}
	hash.stamp++
}
