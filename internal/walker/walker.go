// Package walker implements an iterative, panic-safe traversal of a
// native accessibility tree that emits a finite Element/Edge sequence
// and releases every native handle it touches exactly once. The walk
// is explicitly iterative: recursion is not a safe shape for an
// unbounded, host-supplied tree.
package walker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/voxmap/voxmap/internal/hashid"
	"github.com/voxmap/voxmap/internal/host"
	"github.com/voxmap/voxmap/internal/model"
)

// Result is the output of one walk: the elements and edges of a single
// screen, plus the content descriptors needed to compute its screen
// hash. ScreenHash on each Element is left empty — the caller fills it
// in once the screen hash has been derived from Descriptors, since the
// screen hash is itself a function of the walk's output.
type Result struct {
	Elements    []*model.Element
	Edges       []model.HierarchyEdge
	Descriptors []hashid.Descriptor
}

// stackFrame is one pending node in the explicit traversal stack. The
// parent class chain and index path accumulate down the tree so each
// node's structural path can be rendered without revisiting ancestors.
type stackFrame struct {
	node             host.NativeNode
	depth            int
	parentHash       string
	parentClassChain string
	parentIndexPath  string
	childOrder       int
}

// HandleCounter observes native-handle acquire/release pairs so the
// engine's metrics can prove the accounting balances. A nil counter is
// valid and counts nothing.
type HandleCounter interface {
	IncrementHandlesAcquired()
	IncrementHandlesReleased()
}

type nopCounter struct{}

func (nopCounter) IncrementHandlesAcquired() {}
func (nopCounter) IncrementHandlesReleased() {}

// Walk performs a bounded, iterative depth-first traversal of root,
// producing Elements in the canonical depth-first/child-order sequence.
// If root is nil the window was torn down mid-event and an empty Result
// is returned. maxDepth bounds traversal; frames beyond it are dropped
// (their handle is still released).
func Walk(ctx context.Context, root host.NativeNode, packageName string, maxDepth int) Result {
	return WalkCounted(ctx, root, packageName, maxDepth, nil)
}

// WalkCounted is Walk with handle accounting: every child handle
// acquired and every handle released is reported to counter. The root
// handle is counted as released (the caller counts its acquisition when
// it obtains the root from the host).
func WalkCounted(ctx context.Context, root host.NativeNode, packageName string, maxDepth int, counter HandleCounter) Result {
	var res Result
	if root == nil {
		return res
	}
	if counter == nil {
		counter = nopCounter{}
	}

	stack := []stackFrame{{node: root, depth: 0}}

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			drainStack(stack, counter)
			return res
		default:
		}

		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.depth > maxDepth {
			frame.node.Release()
			counter.IncrementHandlesReleased()
			continue
		}

		indexPath := appendSegment(frame.parentIndexPath, strconv.Itoa(frame.childOrder))
		path := structuralPath(frame.parentClassChain, indexPath)
		attrs, children, err := readNode(frame.node, counter)
		if err != nil {
			// The node misbehaved reading its own attributes or
			// children; readNode already released it and any children
			// acquired before the failure. Siblings still process.
			continue
		}

		elem := elementFromAttrs(packageName, path, frame.depth, frame.childOrder, attrs)
		res.Elements = append(res.Elements, elem)
		res.Descriptors = append(res.Descriptors, hashid.Descriptor{
			ElementHash:        elem.ElementHash,
			Class:              attrs.ClassName,
			Text:               attrs.Text,
			ContentDescription: attrs.ContentDescription,
			IsClickable:        attrs.IsClickable,
			Depth:              frame.depth,
			ChildOrder:         frame.childOrder,
		})

		if frame.parentHash != "" {
			res.Edges = append(res.Edges, model.HierarchyEdge{
				ParentElementHash: frame.parentHash,
				ChildElementHash:  elem.ElementHash,
				ChildOrder:        frame.childOrder,
			})
		}

		// Push children in reverse so they are popped in forward order,
		// preserving the canonical child-order emission sequence.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, stackFrame{
				node:             children[i],
				depth:            frame.depth + 1,
				parentHash:       elem.ElementHash,
				parentClassChain: appendSegment(frame.parentClassChain, attrs.ClassName),
				parentIndexPath:  indexPath,
				childOrder:       i,
			})
		}
	}

	return res
}

// readNode extracts a node's attributes and child handles, releasing
// the node's own handle exactly once on every exit path, including a
// panic raised by a misbehaving host implementation. On panic, any
// child handle already acquired is released too, so the acquire and
// release counts stay balanced. Children whose GetChild call errors
// are skipped without having acquired a handle.
func readNode(node host.NativeNode, counter HandleCounter) (attrs host.NodeAttributes, children []host.NativeNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("walker: panic reading node: %v", r)
			for _, child := range children {
				child.Release()
				counter.IncrementHandlesReleased()
			}
			children = nil
		}
		node.Release()
		counter.IncrementHandlesReleased()
	}()

	attrs = node.Attributes()
	n := node.ChildCount()
	for i := 0; i < n; i++ {
		child, cerr := node.GetChild(i)
		if cerr != nil {
			continue
		}
		counter.IncrementHandlesAcquired()
		children = append(children, child)
	}
	return attrs, children, nil
}

// drainStack releases every handle still owned by a truncated traversal
// (context cancellation mid-walk); it never reads attributes, only
// releases.
func drainStack(stack []stackFrame, counter HandleCounter) {
	for _, f := range stack {
		f.node.Release()
		counter.IncrementHandlesReleased()
	}
}

// structuralPath renders "parent_class_chain:child_index_chain", e.g.
// "FrameLayout/ListView:0/1/0". The ancestor class chain keeps two
// structurally-mirrored subtrees (identical local index paths under
// differently-classed containers) from hashing to the same element.
func structuralPath(parentClassChain, indexPath string) string {
	return parentClassChain + ":" + indexPath
}

// appendSegment extends a "/"-joined chain with one more segment.
func appendSegment(chain, seg string) string {
	if chain == "" {
		return seg
	}
	return chain + "/" + seg
}

func fieldOrAbsent(s string) hashid.Field {
	if s == "" {
		return hashid.Absent()
	}
	return hashid.Present(s)
}

// visualWeight ranks an element's on-screen prominence by its pixel
// area; larger targets win label-phrase collisions.
func visualWeight(b model.Bounds) float64 {
	w, h := b.Right-b.Left, b.Bottom-b.Top
	if w <= 0 || h <= 0 {
		return 0
	}
	return float64(w) * float64(h)
}

func elementFromAttrs(packageName, structuralPath string, depth, childOrder int, a host.NodeAttributes) *model.Element {
	hash := hashid.HashElement(
		hashid.Present(packageName),
		hashid.Present(a.ClassName),
		fieldOrAbsent(a.ResourceID),
		fieldOrAbsent(a.Text),
		fieldOrAbsent(a.ContentDescription),
		hashid.Present(structuralPath),
	)

	return &model.Element{
		ElementHash:         hash,
		PackageName:         packageName,
		ClassName:           a.ClassName,
		ResourceID:          a.ResourceID,
		Text:                a.Text,
		ContentDescription:  a.ContentDescription,
		StructuralPath:      structuralPath,
		Bounds:              a.Bounds,
		IsClickable:         a.IsClickable,
		IsLongClickable:     a.IsLongClickable,
		IsScrollable:        a.IsScrollable,
		IsFocusable:         a.IsFocusable,
		IsEnabled:           a.IsEnabled,
		InputType:           a.InputType,
		PlaceholderText:     a.PlaceholderText,
		Depth:               depth,
		ChildOrder:          childOrder,
		VisualWeight:        visualWeight(a.Bounds),
		ListIndex:           a.ListIndex,
		LastSeenAt:          time.Now(),
	}
}
