package metrics

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

// Layers a block reference is recorded under.
const (
	LayerL1       = "l1"
	LayerL2       = "l2"
	LayerL1Origin = "l1_origin"
)

type RefMetricer interface {
	RecordRef(layer string, name string, num uint64, timestamp uint64, h common.Hash)
	RecordL1Ref(name string, ref eth.L1BlockRef)
	RecordL2Ref(name string, ref eth.L2BlockRef)
}

// RefMetrics tracks the L1 blocks read by derivation and the L2 blocks derived from them.
// It is embedded into a service metrics type, which owns the namespace and factory.
type RefMetrics struct {
	RefsNumber  *prometheus.GaugeVec
	RefsTime    *prometheus.GaugeVec
	RefsHash    *prometheus.GaugeVec
	RefsSeqNr   *prometheus.GaugeVec
	RefsLatency *prometheus.GaugeVec

	mu       *sync.Mutex
	lastSeen map[string]common.Hash
}

var _ RefMetricer = (*RefMetrics)(nil)

// MakeRefMetrics registers the block reference gauges under the namespace ns, e.g. "altda_derive".
func MakeRefMetrics(ns string, factory Factory) RefMetrics {
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: name, Help: help}, labels)
	}
	return RefMetrics{
		RefsNumber:  gauge("refs_number", "Block number of the latest reference, by layer and type", "layer", "type"),
		RefsTime:    gauge("refs_time", "Block timestamp of the latest reference, by layer and type", "layer", "type"),
		RefsHash:    gauge("refs_hash", "First 8 bytes of the latest reference block hash, as a float", "layer", "type"),
		RefsSeqNr:   gauge("refs_seqnr", "Sequence number of the latest L2 reference within its epoch", "type"),
		RefsLatency: gauge("refs_latency", "Block timestamp minus wall clock time in seconds, when a reference is first seen", "layer", "type"),
		mu:          new(sync.Mutex),
		lastSeen:    make(map[string]common.Hash),
	}
}

func (m *RefMetrics) RecordRef(layer string, name string, num uint64, timestamp uint64, h common.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RefsNumber.WithLabelValues(layer, name).Set(float64(num))
	// converted rather than reinterpreted, so a changed hash shows up as a jump on a graph
	m.RefsHash.WithLabelValues(layer, name).Set(float64(binary.LittleEndian.Uint64(h[:])))
	if timestamp == 0 {
		return
	}
	m.RefsTime.WithLabelValues(layer, name).Set(float64(timestamp))
	if m.lastSeen[name] == h {
		return
	}
	m.lastSeen[name] = h
	now := float64(time.Now().UnixNano()) / 1e9
	m.RefsLatency.WithLabelValues(layer, name).Set(float64(timestamp) - now)
}

func (m *RefMetrics) RecordL1Ref(name string, ref eth.L1BlockRef) {
	m.RecordRef(LayerL1, name, ref.Number, ref.Time, ref.Hash)
}

// RecordL2Ref records the L2 block and, without a timestamp, the L1 origin it was derived from.
func (m *RefMetrics) RecordL2Ref(name string, ref eth.L2BlockRef) {
	m.RecordRef(LayerL2, name, ref.Number, ref.Time, ref.Hash)
	m.RecordRef(LayerL1Origin, name, ref.L1Origin.Number, 0, ref.L1Origin.Hash)
	m.RefsSeqNr.WithLabelValues(name).Set(float64(ref.SequenceNumber))
}

type NoopRefMetrics struct{}

func (*NoopRefMetrics) RecordRef(string, string, uint64, uint64, common.Hash) {}
func (*NoopRefMetrics) RecordL1Ref(string, eth.L1BlockRef)                    {}
func (*NoopRefMetrics) RecordL2Ref(string, eth.L2BlockRef)                    {}
