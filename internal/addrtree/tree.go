// Package addrtree implements an address-ordered red-black tree used to index
// allocations and free spans by their start address.
package addrtree

type color uint8

const (
	red   color = 0
	black color = 1
)

type node[V any] struct {
	key    uintptr
	val    V
	color  color
	left   *node[V]
	right  *node[V]
	parent *node[V]
}

// Tree maps addresses to values. The zero value is not usable; call New.
// Tree is not safe for concurrent use.
type Tree[V any] struct {
	root *node[V]
	nil  *node[V]
	size int
}

// New returns an empty tree.
func New[V any]() *Tree[V] {
	nilNode := &node[V]{color: black}
	return &Tree[V]{root: nilNode, nil: nilNode}
}

// Len returns the number of keys in the tree.
func (t *Tree[V]) Len() int { return t.size }

// Get returns the value stored at key.
func (t *Tree[V]) Get(key uintptr) (V, bool) {
	n := t.search(key)
	if n == t.nil {
		var zero V
		return zero, false
	}
	return n.val, true
}

// Put inserts or replaces the value stored at key.
func (t *Tree[V]) Put(key uintptr, val V) {
	y := t.nil
	x := t.root
	for x != t.nil {
		y = x
		switch {
		case key < x.key:
			x = x.left
		case key > x.key:
			x = x.right
		default:
			x.val = val
			return
		}
	}
	z := &node[V]{key: key, val: val, color: red, left: t.nil, right: t.nil, parent: y}
	if y == t.nil {
		t.root = z
	} else if z.key < y.key {
		y.left = z
	} else {
		y.right = z
	}
	t.insertFixup(z)
	t.size++
}

// Delete removes key and reports whether it was present.
func (t *Tree[V]) Delete(key uintptr) bool {
	z := t.search(key)
	if z == t.nil {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

// Floor returns the entry with the greatest key <= key.
func (t *Tree[V]) Floor(key uintptr) (uintptr, V, bool) {
	n := t.root
	best := t.nil
	for n != t.nil {
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			best = n
			n = n.right
		default:
			return n.key, n.val, true
		}
	}
	if best == t.nil {
		var zero V
		return 0, zero, false
	}
	return best.key, best.val, true
}

// Ascend calls fn for each entry in ascending key order until fn returns false.
// The tree must not be modified during iteration.
func (t *Tree[V]) Ascend(fn func(key uintptr, val V) bool) {
	for n := t.minNode(t.root); n != t.nil; n = t.next(n) {
		if !fn(n.key, n.val) {
			return
		}
	}
}

/******************** Internal helpers ********************/

func (t *Tree[V]) search(key uintptr) *node[V] {
	n := t.root
	for n != t.nil {
		if key < n.key {
			n = n.left
		} else if key > n.key {
			n = n.right
		} else {
			return n
		}
	}
	return t.nil
}

func (t *Tree[V]) minNode(n *node[V]) *node[V] {
	if n == t.nil {
		return t.nil
	}
	for n.left != t.nil {
		n = n.left
	}
	return n
}

func (t *Tree[V]) next(n *node[V]) *node[V] {
	if n.right != t.nil {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.nil && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func (t *Tree[V]) leftRotate(x *node[V]) {
	y := x.right
	x.right = y.left
	if y.left != t.nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *Tree[V]) rightRotate(y *node[V]) {
	x := y.left
	y.left = x.right
	if x.right != t.nil {
		x.right.parent = y
	}
	x.parent = y.parent
	if y.parent == t.nil {
		t.root = x
	} else if y == y.parent.right {
		y.parent.right = x
	} else {
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *Tree[V]) insertFixup(z *node[V]) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *Tree[V]) transplant(u, v *node[V]) {
	if u.parent == t.nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *Tree[V]) deleteNode(z *node[V]) {
	y := z
	yOrigColor := y.color
	var x *node[V]

	if z.left == t.nil {
		x = z.right
		t.transplant(z, z.right)
	} else if z.right == t.nil {
		x = z.left
		t.transplant(z, z.left)
	} else {
		y = t.minNode(z.right)
		yOrigColor = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yOrigColor == black {
		t.deleteFixup(x)
	}
}

func (t *Tree[V]) deleteFixup(x *node[V]) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.leftRotate(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.right.color == black {
					w.left.color = black
					w.color = red
					t.rightRotate(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = black
				w.right.color = black
				t.leftRotate(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rightRotate(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.left.color == black {
					w.right.color = black
					w.color = red
					t.leftRotate(w)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = black
				w.left.color = black
				t.rightRotate(x.parent)
				x = t.root
			}
		}
	}
	x.color = black
}
