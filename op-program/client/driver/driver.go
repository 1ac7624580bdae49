package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-altda/op-node/rollup"
	"github.com/mantlenetworkio/mantle-altda/op-node/rollup/derive"
	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
	opmetrics "github.com/mantlenetworkio/mantle-altda/op-service/metrics"
)

// Pipeline produces payload attributes on top of a safe head.
type Pipeline interface {
	// ProducePayload returns the attributes of the block after safeHead,
	// or derive.ErrEndOfSource once no more data can be derived.
	ProducePayload(ctx context.Context, safeHead eth.L2BlockRef) (*eth.PayloadAttributes, error)
	Signal(ctx context.Context, signal derive.Signal) error
	// Origin is the L1 block the pipeline is currently reading from.
	Origin() eth.L1BlockRef
}

// Executor executes payload attributes on top of the parent header it was built with.
type Executor interface {
	ExecutePayload(attrs *eth.PayloadAttributes) (*types.Header, error)
	// ComputeOutputRoot returns the output root of the last executed block.
	ComputeOutputRoot() (eth.Bytes32, error)
}

type ExecutorConstructor interface {
	NewExecutor(parent *types.Header) Executor
}

var errDiscarded = errors.New("block discarded")

type Driver struct {
	log      log.Logger
	cfg      *rollup.Config
	cursor   *PipelineCursor
	executor ExecutorConstructor
	pipeline Pipeline
	metrics  opmetrics.RefMetricer
}

func NewDriver(logger log.Logger, cfg *rollup.Config, cursor *PipelineCursor, executor ExecutorConstructor, pipeline Pipeline) *Driver {
	return &Driver{
		log:      logger,
		cfg:      cfg,
		cursor:   cursor,
		executor: executor,
		pipeline: pipeline,
		metrics:  new(opmetrics.NoopRefMetrics),
	}
}

// WithMetrics records the L1 origin and L2 safe head on every advance.
func (d *Driver) WithMetrics(m opmetrics.RefMetricer) *Driver {
	d.metrics = m
	return d
}

func (d *Driver) Cursor() *PipelineCursor {
	return d.cursor
}

// AdvanceToTarget derives and executes blocks until the safe head reaches target,
// or until the data source is exhausted. It returns the final safe head number and output root.
func (d *Driver) AdvanceToTarget(ctx context.Context, target uint64) (uint64, eth.Bytes32, error) {
	for {
		tip := d.cursor.Tip()
		safeHead := tip.L2SafeHead
		if safeHead.Number >= target {
			d.log.Info("Derivation complete: reached L2 block", "head", safeHead, "target", target)
			return safeHead.Number, tip.L2SafeHeadOutputRoot, nil
		}

		attrs, err := d.pipeline.ProducePayload(ctx, safeHead)
		if errors.Is(err, derive.ErrEndOfSource) {
			d.log.Warn("Exhausted data source, stopping at safe head", "head", safeHead, "target", target)
			target = safeHead.Number
			continue
		} else if err != nil {
			return 0, eth.Bytes32{}, fatal(PipelineFailure, err)
		}

		executor, header, attrs, err := d.execute(ctx, tip.L2SafeHeadHeader, attrs)
		if errors.Is(err, errDiscarded) {
			continue
		} else if err != nil {
			return 0, eth.Bytes32{}, err
		}

		if err := d.commit(executor, header, attrs); err != nil {
			return 0, eth.Bytes32{}, err
		}
	}
}

// execute runs attrs on top of parent. If execution fails once Holocene is active, the
// pipeline is told to flush its channel and a deposit-only copy of attrs is executed once.
// Before Holocene the block is discarded with errDiscarded.
func (d *Driver) execute(ctx context.Context, parent *types.Header, attrs *eth.PayloadAttributes) (Executor, *types.Header, *eth.PayloadAttributes, error) {
	executor := d.executor.NewExecutor(parent)
	header, err := executor.ExecutePayload(attrs)
	if err == nil {
		return executor, header, attrs, nil
	}

	if !d.cfg.IsHolocene(uint64(attrs.Timestamp)) {
		d.log.Warn("Failed to execute payload, discarding block", "timestamp", uint64(attrs.Timestamp), "txs", len(attrs.Transactions), "err", err)
		return nil, nil, nil, errDiscarded
	}

	d.log.Warn("Failed to execute payload, retrying with deposits only", "timestamp", uint64(attrs.Timestamp), "txs", len(attrs.Transactions), "err", err)
	if err := d.pipeline.Signal(ctx, derive.FlushChannel); err != nil {
		return nil, nil, nil, fatal(PipelineFailure, fmt.Errorf("failed to flush channel: %w", err))
	}

	depositAttrs := attrs.DepositsOnly()
	executor = d.executor.NewExecutor(parent)
	header, err = executor.ExecutePayload(depositAttrs)
	if err != nil {
		return nil, nil, nil, fatal(ExecutorFailure, fmt.Errorf("failed to execute deposit-only payload: %w", err))
	}
	return executor, header, depositAttrs, nil
}

// commit assembles the executed block and advances the cursor to it.
func (d *Driver) commit(executor Executor, header *types.Header, attrs *eth.PayloadAttributes) error {
	txs := make(types.Transactions, 0, len(attrs.Transactions))
	for i, opaqueTx := range attrs.Transactions {
		var tx types.Transaction
		if err := tx.UnmarshalBinary(opaqueTx); err != nil {
			return fatal(DecodeFailure, fmt.Errorf("failed to decode transaction %d: %w", i, err))
		}
		txs = append(txs, &tx)
	}
	block := types.NewBlockWithHeader(header).WithBody(types.Body{Transactions: txs})

	ref, err := derive.L2BlockToBlockRef(d.cfg, block)
	if err != nil {
		return fatal(BlockRefFailure, err)
	}

	origin := d.pipeline.Origin()
	if origin == (eth.L1BlockRef{}) {
		return fatal(MissingOrigin, derive.ErrMissingOrigin)
	}

	outputRoot, err := executor.ComputeOutputRoot()
	if err != nil {
		return fatal(OutputRootFailure, fmt.Errorf("failed to compute output root of block %s: %w", ref, err))
	}

	d.cursor.Advance(origin, TipCursor{
		L2SafeHead:           ref,
		L2SafeHeadHeader:     block.Header(),
		L2SafeHeadOutputRoot: outputRoot,
	})
	d.metrics.RecordL1Ref("l1_origin", origin)
	d.metrics.RecordL2Ref("l2_safe", ref)
	d.log.Info("Advanced safe head", "head", ref, "origin", origin, "txs", len(txs), "output_root", outputRoot)
	return nil
}
