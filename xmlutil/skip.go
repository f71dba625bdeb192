package xmlutil

import (
	"github.com/andaru/ncmgr/ncerr"
	"github.com/pkg/errors"
)

// SkipResult reports how SkipSubtree stopped
type SkipResult int

const (
	// SkipNothing means the start node had no content to skip, or the
	// skip was aborted by a read error.
	SkipNothing SkipResult = iota
	// SkipClosedNormally means the matching end tag was reached.
	SkipClosedNormally
	// SkipClosedByDepthOverride means the reader returned to the start
	// node's depth on a node which is not its matching end tag.
	SkipClosedByDepthOverride
)

func (s SkipResult) String() string {
	switch s {
	case SkipNothing:
		return "nothing"
	case SkipClosedNormally:
		return "closed"
	case SkipClosedByDepthOverride:
		return "closed-by-depth"
	}
	return "unknown"
}

// SkipSubtree advances the reader past the content of start, which must
// be the current node or one of its open ancestors. Namespace and name
// errors inside the skipped content are ignored, and reaching the start
// node's depth always ends the skip. Only a fatal read error is
// returned; callers resynchronising after another error may treat
// ncerr.ErrReaderEOF as nothing left to skip.
func (r *Reader) SkipSubtree(start *Node) (SkipResult, error) {
	if start == nil {
		return SkipNothing, ncerr.ErrInternalPtr
	}
	switch start.Type {
	case NodeEmpty, NodeEnd:
		return SkipNothing, nil
	case NodeStart, NodeText:
	default:
		return SkipNothing, errors.Wrapf(ncerr.ErrInternalValue, "skip %s node", start.Type)
	}

	if r.cur != nil && EndNodeMatch(start, r.cur) == nil {
		return SkipClosedNormally, nil
	}
	// text never nests
	if start.Type == NodeText {
		return SkipClosedNormally, nil
	}

	for {
		n, _, err := r.next()
		if err != nil {
			return SkipNothing, err
		}
		if n.Depth == start.Depth && n.Type == NodeEnd && n.QName == start.QName {
			return SkipClosedNormally, nil
		}
		if n.Depth <= start.Depth {
			return SkipClosedByDepthOverride, nil
		}
	}
}
