// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spatial

import (
	"github.com/impulse2d/engine/math2d"
)

// VelocityFunc returns the velocity of an indexed object. When set
// on a BBTree, leaf bounding boxes are inflated along the velocity
// vector so that objects moving in a consistent direction do not
// need to be re-paired every step.
type VelocityFunc func(obj interface{}) math2d.Vector2

// BBTree is a bounding box tree broad-phase index. Leaves cache a
// fattened bounding box and the set of leaves they currently pair
// with, so that an object that stays within its fattened box incurs
// no re-pairing work at all.
type BBTree struct {
	bbfunc       BBFunc
	velocityFunc VelocityFunc

	leaves *orderedSet
	nodes  map[interface{}]*treeNode
	root   *treeNode

	pooledNodes *treeNode
	pooledPairs *treePair

	stamp uint

	// staticIndex, when set, receives dynamic-static pair queries
	// during ReindexQuery. dynamicIndex is the back link set on a
	// static tree so its leaves stamp against the dynamic tree.
	staticIndex  Index
	dynamicIndex *BBTree
}

type treeNode struct {
	obj    interface{}
	bb     math2d.BB
	parent *treeNode

	// Internal nodes
	a, b *treeNode

	// Leaves
	stamp uint
	pairs *treePair
}

type treeThread struct {
	prev *treePair
	leaf *treeNode
	next *treePair
}

type treePair struct {
	a, b treeThread
}

// NewBBTree creates a bounding box tree using bbfunc to fetch object
// bounds. If staticIndex is non-nil, ReindexQuery also emits pairs
// between this tree's objects and the static index's objects. If the
// static index is itself a BBTree it is linked so that its leaves
// participate directly in this tree's pairing scheme.
func NewBBTree(bbfunc BBFunc, staticIndex Index) *BBTree {

	tree := &BBTree{
		bbfunc:      bbfunc,
		leaves:      newOrderedSet(),
		nodes:       map[interface{}]*treeNode{},
		staticIndex: staticIndex,
	}
	if staticTree, ok := staticIndex.(*BBTree); ok {
		staticTree.dynamicIndex = tree
	}
	return tree
}

// SetVelocityFunc sets the velocity hook used to inflate leaf
// bounding boxes for moving objects.
func (tree *BBTree) SetVelocityFunc(f VelocityFunc) {

	tree.velocityFunc = f
}

// masterTree returns the tree whose stamp counter governs pairing.
// A static tree linked to a dynamic tree defers to the dynamic one.
func (tree *BBTree) masterTree() *BBTree {

	if tree.dynamicIndex != nil {
		return tree.dynamicIndex
	}
	return tree
}

func (tree *BBTree) incrementStamp() {

	tree.masterTree().stamp++
}

// leafBB returns the fattened bounding box stored for a leaf.
func (tree *BBTree) leafBB(obj interface{}) math2d.BB {

	bb := tree.bbfunc(obj)

	if tree.velocityFunc != nil {
		coef := 0.1
		x := (bb.R - bb.L) * coef
		y := (bb.T - bb.B) * coef

		v := tree.velocityFunc(obj).Mult(0.1)
		return math2d.NewBB(
			bb.L+math2d.Min(-x, v.X), bb.B+math2d.Min(-y, v.Y),
			bb.R+math2d.Max(x, v.X), bb.T+math2d.Max(y, v.Y),
		)
	}
	return bb
}

// Pair management. Pairs are doubly linked through both of their
// leaves so either leaf can unlink them in constant time.

func (tree *BBTree) pairRecycle(pair *treePair) {

	// Elide the checks to cleanup the lists.
	pair.a.next = tree.pooledPairs
	tree.pooledPairs = pair
}

func (tree *BBTree) pairFromPool() *treePair {

	pair := tree.pooledPairs
	if pair != nil {
		tree.pooledPairs = pair.a.next
		*pair = treePair{}
		return pair
	}
	return &treePair{}
}

func threadUnlink(thread treeThread) {

	next := thread.next
	prev := thread.prev

	if next != nil {
		if next.a.leaf == thread.leaf {
			next.a.prev = prev
		} else {
			next.b.prev = prev
		}
	}

	if prev != nil {
		if prev.a.leaf == thread.leaf {
			prev.a.next = next
		} else {
			prev.b.next = next
		}
	} else {
		thread.leaf.pairs = next
	}
}

func (tree *BBTree) pairsClear(leaf *treeNode) {

	pair := leaf.pairs
	leaf.pairs = nil

	for pair != nil {
		if pair.a.leaf == leaf {
			next := pair.a.next
			threadUnlink(pair.b)
			tree.pairRecycle(pair)
			pair = next
		} else {
			next := pair.b.next
			threadUnlink(pair.a)
			tree.pairRecycle(pair)
			pair = next
		}
	}
}

func (tree *BBTree) pairInsert(a, b *treeNode) {

	pair := tree.pairFromPool()
	nextA := a.pairs
	nextB := b.pairs

	if nextA != nil {
		if nextA.a.leaf == a {
			nextA.a.prev = pair
		} else {
			nextA.b.prev = pair
		}
	}

	if nextB != nil {
		if nextB.a.leaf == b {
			nextB.a.prev = pair
		} else {
			nextB.b.prev = pair
		}
	}

	*pair = treePair{
		a: treeThread{prev: nil, leaf: a, next: nextA},
		b: treeThread{prev: nil, leaf: b, next: nextB},
	}
	a.pairs = pair
	b.pairs = pair
}

// Node management.

func (tree *BBTree) nodeRecycle(node *treeNode) {

	node.parent = tree.pooledNodes
	tree.pooledNodes = node
}

func (tree *BBTree) nodeFromPool() *treeNode {

	node := tree.pooledNodes
	if node != nil {
		tree.pooledNodes = node.parent
		*node = treeNode{}
		return node
	}
	return &treeNode{}
}

func nodeSetA(node, value *treeNode) {

	node.a = value
	value.parent = node
}

func nodeSetB(node, value *treeNode) {

	node.b = value
	value.parent = node
}

func (tree *BBTree) nodeNew(a, b *treeNode) *treeNode {

	node := tree.nodeFromPool()
	node.obj = nil
	node.bb = a.bb.Merge(b.bb)
	node.parent = nil

	nodeSetA(node, a)
	nodeSetB(node, b)
	return node
}

func nodeIsLeaf(node *treeNode) bool {

	return node.obj != nil
}

func nodeOther(node, child *treeNode) *treeNode {

	if node.a == child {
		return node.b
	}
	return node.a
}

func (tree *BBTree) nodeReplaceChild(parent, child, value *treeNode) {

	if parent.a == child {
		tree.nodeRecycle(parent.a)
		nodeSetA(parent, value)
	} else {
		tree.nodeRecycle(parent.b)
		nodeSetB(parent, value)
	}

	for node := parent; node != nil; node = node.parent {
		node.bb = node.a.bb.Merge(node.b.bb)
	}
}

// Subtree operations.

func (tree *BBTree) subtreeInsert(subtree, leaf *treeNode) *treeNode {

	if subtree == nil {
		return leaf
	} else if nodeIsLeaf(subtree) {
		return tree.nodeNew(leaf, subtree)
	}

	costA := subtree.b.bb.Area() + subtree.a.bb.MergedArea(leaf.bb)
	costB := subtree.a.bb.Area() + subtree.b.bb.MergedArea(leaf.bb)

	if costB < costA {
		nodeSetB(subtree, tree.subtreeInsert(subtree.b, leaf))
	} else {
		nodeSetA(subtree, tree.subtreeInsert(subtree.a, leaf))
	}

	subtree.bb = subtree.bb.Merge(leaf.bb)
	return subtree
}

func subtreeQuery(obj interface{}, node *treeNode, bb math2d.BB, f QueryFunc) {

	if node.bb.Intersects(bb) {
		if nodeIsLeaf(node) {
			f(obj, node.obj)
		} else {
			subtreeQuery(obj, node.a, bb, f)
			subtreeQuery(obj, node.b, bb, f)
		}
	}
}

func subtreeSegmentQuery(node *treeNode, obj interface{}, a, b math2d.Vector2, tExit float64, f SegmentQueryFunc) float64 {

	if nodeIsLeaf(node) {
		return f(obj, node.obj)
	}

	tA := node.a.bb.SegmentQuery(a, b)
	tB := node.b.bb.SegmentQuery(a, b)

	if tA < tB {
		if tA < tExit {
			tExit = math2d.Min(tExit, subtreeSegmentQuery(node.a, obj, a, b, tExit, f))
		}
		if tB < tExit {
			tExit = math2d.Min(tExit, subtreeSegmentQuery(node.b, obj, a, b, tExit, f))
		}
	} else {
		if tB < tExit {
			tExit = math2d.Min(tExit, subtreeSegmentQuery(node.b, obj, a, b, tExit, f))
		}
		if tA < tExit {
			tExit = math2d.Min(tExit, subtreeSegmentQuery(node.a, obj, a, b, tExit, f))
		}
	}
	return tExit
}

func (tree *BBTree) subtreeRemove(subtree, leaf *treeNode) *treeNode {

	if leaf == subtree {
		return nil
	}

	parent := leaf.parent
	if parent == subtree {
		other := nodeOther(subtree, leaf)
		other.parent = subtree.parent
		tree.nodeRecycle(subtree)
		return other
	}

	tree.nodeReplaceChild(parent.parent, parent, nodeOther(parent, leaf))
	return subtree
}

// Leaf operations.

func (tree *BBTree) leafNew(obj interface{}) *treeNode {

	node := tree.nodeFromPool()
	node.obj = obj
	node.bb = tree.leafBB(obj)
	node.parent = nil
	node.stamp = 0
	node.pairs = nil
	return node
}

// leafUpdate refreshes a leaf's bounding box. Returns true if the
// object escaped its fattened box and had to be re-inserted.
func (tree *BBTree) leafUpdate(leaf *treeNode) bool {

	bb := tree.bbfunc(leaf.obj)

	if !leaf.bb.Contains(bb) {
		leaf.bb = tree.leafBB(leaf.obj)

		root := tree.subtreeRemove(tree.root, leaf)
		tree.root = tree.subtreeInsert(root, leaf)

		tree.pairsClear(leaf)
		leaf.stamp = tree.masterTree().stamp
		return true
	}
	return false
}

// markContext carries the state of a ReindexQuery traversal.
type markContext struct {
	tree       *BBTree
	staticRoot *treeNode
	f          QueryFunc
}

func (context *markContext) markLeafQuery(subtree, leaf *treeNode, left bool) {

	if leaf.bb.Intersects(subtree.bb) {
		if nodeIsLeaf(subtree) {
			if left {
				context.tree.pairInsert(leaf, subtree)
			} else {
				if subtree.stamp < leaf.stamp {
					context.tree.pairInsert(subtree, leaf)
				}
				if context.f != nil {
					context.f(leaf.obj, subtree.obj)
				}
			}
		} else {
			context.markLeafQuery(subtree.a, leaf, left)
			context.markLeafQuery(subtree.b, leaf, left)
		}
	}
}

func (context *markContext) markLeaf(leaf *treeNode) {

	tree := context.tree
	if leaf.stamp == tree.masterTree().stamp {
		// The leaf was re-inserted this step: rebuild its pairing
		// from scratch by querying the sibling subtrees on the way
		// to the root.
		staticRoot := context.staticRoot
		if staticRoot != nil {
			context.markLeafQuery(staticRoot, leaf, false)
		}

		for node := leaf; node.parent != nil; node = node.parent {
			if node == node.parent.a {
				context.markLeafQuery(node.parent.b, leaf, true)
			} else {
				context.markLeafQuery(node.parent.a, leaf, false)
			}
		}
	} else {
		// The leaf did not move: replay its cached pairs. Each pair
		// is emitted by its b-side leaf only, so every pair comes
		// out exactly once.
		pair := leaf.pairs
		for pair != nil {
			if leaf == pair.b.leaf {
				if context.f != nil {
					context.f(pair.a.leaf.obj, leaf.obj)
				}
				pair = pair.b.next
			} else {
				pair = pair.a.next
			}
		}
	}
}

func (context *markContext) markSubtree(subtree *treeNode) {

	if nodeIsLeaf(subtree) {
		context.markLeaf(subtree)
	} else {
		context.markSubtree(subtree.a)
		context.markSubtree(subtree.b)
	}
}

// leafAddPairs pairs a freshly inserted leaf against the rest of the
// world so that mid-step insertions still collide this step.
func (tree *BBTree) leafAddPairs(leaf *treeNode) {

	dynamicIndex := tree.dynamicIndex
	if dynamicIndex != nil {
		dynamicRoot := dynamicIndex.root
		if dynamicRoot != nil {
			context := markContext{tree: dynamicIndex}
			context.markLeafQuery(dynamicRoot, leaf, true)
		}
	} else {
		var staticRoot *treeNode
		if staticTree, ok := tree.staticIndex.(*BBTree); ok {
			staticRoot = staticTree.root
		}
		context := markContext{tree: tree, staticRoot: staticRoot}
		context.markLeaf(leaf)
	}
}

// Count returns the number of objects in the tree.
func (tree *BBTree) Count() int {

	return tree.leaves.count()
}

// Each calls f once for every object in the tree in insertion order.
func (tree *BBTree) Each(f Iterator) {

	tree.leaves.each(f)
}

// Contains reports whether the tree contains the given object.
func (tree *BBTree) Contains(obj interface{}, hashid HashValue) bool {

	return tree.leaves.contains(obj)
}

// Insert adds an object to the tree.
func (tree *BBTree) Insert(obj interface{}, hashid HashValue) {

	if !tree.leaves.insert(obj) {
		return
	}
	leaf := tree.leafNew(obj)
	tree.nodes[obj] = leaf

	root := tree.root
	if root != nil {
		tree.root = tree.subtreeInsert(root, leaf)
	} else {
		tree.root = leaf
	}

	leaf.stamp = tree.masterTree().stamp
	tree.leafAddPairs(leaf)
	tree.incrementStamp()
}

// Remove removes an object from the tree.
func (tree *BBTree) Remove(obj interface{}, hashid HashValue) {

	if !tree.leaves.remove(obj) {
		return
	}
	leaf := tree.nodes[obj]
	delete(tree.nodes, obj)

	tree.root = tree.subtreeRemove(tree.root, leaf)
	tree.pairsClear(leaf)
	tree.nodeRecycle(leaf)
}

// Reindex re-computes the bounding boxes of every object.
func (tree *BBTree) Reindex() {

	tree.ReindexQuery(nil)
}

// ReindexObject re-computes the bounding box of a single object.
func (tree *BBTree) ReindexObject(obj interface{}, hashid HashValue) {

	leaf, ok := tree.nodes[obj]
	if !ok {
		return
	}
	if tree.leafUpdate(leaf) {
		tree.leafAddPairs(leaf)
	}
	tree.incrementStamp()
}

// ReindexQuery reindexes every object and emits all overlapping
// pairs, including pairs against the linked static index.
func (tree *BBTree) ReindexQuery(f QueryFunc) {

	if tree.root == nil {
		return
	}

	// leafUpdate() may modify tree.root, so iterate the leaf set.
	tree.leaves.each(func(obj interface{}) {
		tree.leafUpdate(tree.nodes[obj])
	})

	staticIndex := tree.staticIndex
	staticTree, _ := staticIndex.(*BBTree)
	var staticRoot *treeNode
	if staticTree != nil {
		staticRoot = staticTree.root
	}

	context := markContext{tree: tree, staticRoot: staticRoot, f: f}
	context.markSubtree(tree.root)

	if staticIndex != nil && staticTree == nil {
		CollideStatic(tree, staticIndex, tree.bbfunc, f)
	}

	tree.incrementStamp()
}

// Query emits every object whose bounding box overlaps bb.
func (tree *BBTree) Query(obj interface{}, bb math2d.BB, f QueryFunc) {

	if tree.root != nil {
		subtreeQuery(obj, tree.root, bb, f)
	}
}

// SegmentQuery emits objects along the segment from a to b in
// approximate hit order, letting f clip the remaining ray.
func (tree *BBTree) SegmentQuery(obj interface{}, a, b math2d.Vector2, tExit float64, f SegmentQueryFunc) {

	if tree.root != nil {
		subtreeSegmentQuery(tree.root, obj, a, b, tExit, f)
	}
}
