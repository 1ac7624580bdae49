package driver

import (
	"github.com/ethereum/go-ethereum/core/types"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

// tipHistorySize bounds how many past safe heads the cursor remembers.
const tipHistorySize = 128

// TipCursor is a safe L2 block together with its sealed header and output root.
type TipCursor struct {
	L2SafeHead           eth.L2BlockRef
	L2SafeHeadHeader     *types.Header
	L2SafeHeadOutputRoot eth.Bytes32
}

// PipelineCursor tracks the current L2 safe head and the L1 block it was derived from.
// Only the driver advances it, once per committed block.
type PipelineCursor struct {
	origin eth.L1BlockRef
	tip    TipCursor

	origins *lru.Cache[uint64, eth.L1BlockRef]
	tips    *lru.Cache[uint64, TipCursor]
}

func NewPipelineCursor(origin eth.L1BlockRef, tip TipCursor) *PipelineCursor {
	origins, _ := lru.New[uint64, eth.L1BlockRef](tipHistorySize)
	tips, _ := lru.New[uint64, TipCursor](tipHistorySize)
	c := &PipelineCursor{origins: origins, tips: tips}
	c.Advance(origin, tip)
	return c
}

// Advance moves the cursor to a new safe head derived from origin.
func (c *PipelineCursor) Advance(origin eth.L1BlockRef, tip TipCursor) {
	c.origin = origin
	c.tip = tip
	c.origins.Add(tip.L2SafeHead.Number, origin)
	c.tips.Add(tip.L2SafeHead.Number, tip)
}

// Origin is the L1 block the current safe head was derived from.
func (c *PipelineCursor) Origin() eth.L1BlockRef {
	return c.origin
}

func (c *PipelineCursor) Tip() TipCursor {
	return c.tip
}

func (c *PipelineCursor) L2SafeHead() eth.L2BlockRef {
	return c.tip.L2SafeHead
}

// TipAt returns a recently committed safe head by L2 block number.
func (c *PipelineCursor) TipAt(number uint64) (TipCursor, bool) {
	return c.tips.Get(number)
}

// OriginAt returns the L1 origin of a recently committed safe head by L2 block number.
func (c *PipelineCursor) OriginAt(number uint64) (eth.L1BlockRef, bool) {
	return c.origins.Get(number)
}
