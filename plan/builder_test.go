// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package plan

import (
	"testing"

	"github.com/Slayzur02/Polypheny-DB/algebra"
)

func TestBuilder_PushAndFreeze(t *testing.T) {
	b := New()
	id := b.Arena().Add(algebra.PhysicalNode{Kind: algebra.KindPhysicalValues})
	b.Push(id)

	top, ok := b.Top()
	if !ok || top != id {
		t.Fatalf("expected top %v, got %v (ok=%v)", id, top, ok)
	}

	p := b.Freeze()
	root, ok := p.Root()
	if !ok || root != id {
		t.Fatalf("expected frozen root %v, got %v (ok=%v)", id, root, ok)
	}
}

func TestBuilder_FreezeThenMutatePanics(t *testing.T) {
	b := New()
	id := b.Arena().Add(algebra.PhysicalNode{Kind: algebra.KindPhysicalValues})
	b.Push(id)
	b.Freeze()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic pushing to a frozen builder")
		}
	}()
	b.Push(id)
}

func TestBuilder_ForkIsIndependent(t *testing.T) {
	b := New()
	id1 := b.Arena().Add(algebra.PhysicalNode{Kind: algebra.KindPhysicalValues})
	b.Push(id1)

	fork := b.Fork()
	id2 := fork.Arena().Add(algebra.PhysicalNode{Kind: algebra.KindPhysicalValues})
	fork.Push(id2)

	origTop, _ := b.Top()
	forkTop, _ := fork.Top()
	if origTop == forkTop {
		t.Fatalf("expected fork to diverge from original, both at %v", origTop)
	}
	if b.Arena().Len() != 1 {
		t.Fatalf("expected original arena untouched (len 1), got %d", b.Arena().Len())
	}
	if fork.Arena().Len() != 2 {
		t.Fatalf("expected fork arena to have 2 nodes, got %d", fork.Arena().Len())
	}
}
