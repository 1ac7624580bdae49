package derive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mantlenetworkio/mantle-altda/op-node/rollup"
	"github.com/mantlenetworkio/mantle-altda/op-service/eth"
)

const (
	L1InfoFuncBedrockSignature = "setL1BlockValues(uint64,uint64,uint256,bytes32,uint64,bytes32,uint256,uint256)"
	L1InfoFuncEcotoneSignature = "setL1BlockValuesEcotone()"
	L1InfoFuncIsthmusSignature = "setL1BlockValuesIsthmus()"
	L1InfoArguments            = 8
	L1InfoBedrockLen           = 4 + 32*L1InfoArguments
	L1InfoEcotoneLen           = 4 + 32*5 // after Ecotone upgrade, args are packed into 5 32-byte slots
	L1InfoIsthmusLen           = 4 + 32*5 + 4 + 8
	// RegolithSystemTxGas is the gas limit of system deposits, with the regolith fork
	RegolithSystemTxGas = 1_000_000
)

var (
	L1InfoFuncBedrockBytes4 = crypto.Keccak256([]byte(L1InfoFuncBedrockSignature))[:4]
	L1InfoFuncEcotoneBytes4 = crypto.Keccak256([]byte(L1InfoFuncEcotoneSignature))[:4]
	L1InfoFuncIsthmusBytes4 = crypto.Keccak256([]byte(L1InfoFuncIsthmusSignature))[:4]
	L1InfoDepositerAddress  = common.HexToAddress("0xdeaddeaddeaddeaddeaddeaddeaddeaddead0001")
	L1BlockAddress          = common.HexToAddress("0x4200000000000000000000000000000000000015")
)

var ErrInvalidL1Info = errors.New("invalid L1 info deposit")

// L1BlockInfo presents the information stored in a L1Block.setL1BlockValues call
type L1BlockInfo struct {
	Number    uint64
	Time      uint64
	BaseFee   *big.Int
	BlockHash common.Hash
	// Not strictly a piece of L1 information. Represents the number of L2 blocks since the start of the epoch,
	// i.e. when the actual L1 info was first introduced.
	SequenceNumber uint64
	// BatcherHash version 0 is just the address with 0 padding to the left.
	BatcherAddr common.Address

	L1FeeOverhead eth.Bytes32 // ignored after Ecotone upgrade
	L1FeeScalar   eth.Bytes32 // ignored after Ecotone upgrade

	BlobBaseFee       *big.Int // added by Ecotone upgrade
	BaseFeeScalar     uint32   // added by Ecotone upgrade
	BlobBaseFeeScalar uint32   // added by Ecotone upgrade

	OperatorFeeScalar   uint32 // added by Isthmus upgrade
	OperatorFeeConstant uint64 // added by Isthmus upgrade
}

// Bedrock Binary Format
// +---------+--------------------------+
// | Bytes   | Field                    |
// +---------+--------------------------+
// | 4       | Function signature       |
// | 32      | Number                   |
// | 32      | Time                     |
// | 32      | BaseFee                  |
// | 32      | BlockHash                |
// | 32      | SequenceNumber           |
// | 32      | BatcherHash              |
// | 32      | L1FeeOverhead            |
// | 32      | L1FeeScalar              |
// +---------+--------------------------+

func (info *L1BlockInfo) marshalBinaryBedrock() ([]byte, error) {
	w := bytes.NewBuffer(make([]byte, 0, L1InfoBedrockLen))
	w.Write(L1InfoFuncBedrockBytes4)
	writeUint256(w, new(big.Int).SetUint64(info.Number))
	writeUint256(w, new(big.Int).SetUint64(info.Time))
	writeUint256(w, info.BaseFee)
	w.Write(info.BlockHash[:])
	writeUint256(w, new(big.Int).SetUint64(info.SequenceNumber))
	w.Write(common.LeftPadBytes(info.BatcherAddr[:], 32))
	w.Write(info.L1FeeOverhead[:])
	w.Write(info.L1FeeScalar[:])
	return w.Bytes(), nil
}

func (info *L1BlockInfo) unmarshalBinaryBedrock(data []byte) error {
	if len(data) != L1InfoBedrockLen {
		return fmt.Errorf("data is unexpected length: %d", len(data))
	}
	r := data[4:]
	var err error
	if info.Number, err = readUint64Word(r[0:32]); err != nil {
		return err
	}
	if info.Time, err = readUint64Word(r[32:64]); err != nil {
		return err
	}
	info.BaseFee = new(big.Int).SetBytes(r[64:96])
	info.BlockHash = common.BytesToHash(r[96:128])
	if info.SequenceNumber, err = readUint64Word(r[128:160]); err != nil {
		return err
	}
	if !isZero(r[160:172]) {
		return fmt.Errorf("%w: batcher hash is not an address", ErrInvalidL1Info)
	}
	info.BatcherAddr = common.BytesToAddress(r[172:192])
	copy(info.L1FeeOverhead[:], r[192:224])
	copy(info.L1FeeScalar[:], r[224:256])
	return nil
}

// Ecotone Binary Format
// +---------+--------------------------+
// | Bytes   | Field                    |
// +---------+--------------------------+
// | 4       | Function signature       |
// | 4       | BaseFeeScalar            |
// | 4       | BlobBaseFeeScalar        |
// | 8       | SequenceNumber           |
// | 8       | Timestamp                |
// | 8       | L1BlockNumber            |
// | 32      | BaseFee                  |
// | 32      | BlobBaseFee              |
// | 32      | BlockHash                |
// | 32      | BatcherHash              |
// +---------+--------------------------+
// Isthmus appends:
// | 4       | OperatorFeeScalar        |
// | 8       | OperatorFeeConstant      |

func (info *L1BlockInfo) marshalBinaryEcotone(isthmus bool) ([]byte, error) {
	size, selector := L1InfoEcotoneLen, L1InfoFuncEcotoneBytes4
	if isthmus {
		size, selector = L1InfoIsthmusLen, L1InfoFuncIsthmusBytes4
	}
	w := bytes.NewBuffer(make([]byte, 0, size))
	w.Write(selector)
	_ = binary.Write(w, binary.BigEndian, info.BaseFeeScalar)
	_ = binary.Write(w, binary.BigEndian, info.BlobBaseFeeScalar)
	_ = binary.Write(w, binary.BigEndian, info.SequenceNumber)
	_ = binary.Write(w, binary.BigEndian, info.Time)
	_ = binary.Write(w, binary.BigEndian, info.Number)
	writeUint256(w, info.BaseFee)
	blobBasefee := info.BlobBaseFee
	if blobBasefee == nil {
		blobBasefee = big.NewInt(1) // set to 1, to match the min blob basefee as defined in EIP-4844
	}
	writeUint256(w, blobBasefee)
	w.Write(info.BlockHash[:])
	w.Write(common.LeftPadBytes(info.BatcherAddr[:], 32))
	if isthmus {
		_ = binary.Write(w, binary.BigEndian, info.OperatorFeeScalar)
		_ = binary.Write(w, binary.BigEndian, info.OperatorFeeConstant)
	}
	return w.Bytes(), nil
}

func (info *L1BlockInfo) unmarshalBinaryEcotone(data []byte, isthmus bool) error {
	size := L1InfoEcotoneLen
	if isthmus {
		size = L1InfoIsthmusLen
	}
	if len(data) != size {
		return fmt.Errorf("data is unexpected length: %d", len(data))
	}
	r := data[4:]
	info.BaseFeeScalar = binary.BigEndian.Uint32(r[0:4])
	info.BlobBaseFeeScalar = binary.BigEndian.Uint32(r[4:8])
	info.SequenceNumber = binary.BigEndian.Uint64(r[8:16])
	info.Time = binary.BigEndian.Uint64(r[16:24])
	info.Number = binary.BigEndian.Uint64(r[24:32])
	info.BaseFee = new(big.Int).SetBytes(r[32:64])
	info.BlobBaseFee = new(big.Int).SetBytes(r[64:96])
	info.BlockHash = common.BytesToHash(r[96:128])
	if !isZero(r[128:140]) {
		return fmt.Errorf("%w: batcher hash is not an address", ErrInvalidL1Info)
	}
	info.BatcherAddr = common.BytesToAddress(r[140:160])
	if isthmus {
		info.OperatorFeeScalar = binary.BigEndian.Uint32(r[160:164])
		info.OperatorFeeConstant = binary.BigEndian.Uint64(r[164:172])
	}
	return nil
}

// L1BlockInfoFromBytes is the inverse of L1InfoDeposit, to see where the L2 chain is derived from.
// The format is selected by the function selector of the calldata.
func L1BlockInfoFromBytes(data []byte) (*L1BlockInfo, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: data too short: %d", ErrInvalidL1Info, len(data))
	}
	var info L1BlockInfo
	var err error
	switch {
	case bytes.Equal(data[:4], L1InfoFuncBedrockBytes4):
		err = info.unmarshalBinaryBedrock(data)
	case bytes.Equal(data[:4], L1InfoFuncEcotoneBytes4):
		err = info.unmarshalBinaryEcotone(data, false)
	case bytes.Equal(data[:4], L1InfoFuncIsthmusBytes4):
		err = info.unmarshalBinaryEcotone(data, true)
	default:
		return nil, fmt.Errorf("%w: unknown selector %x", ErrInvalidL1Info, data[:4])
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// L1InfoDeposit creates a L1 Info deposit transaction based on the L1 block,
// and the L2 block-height difference with the start of the epoch.
func L1InfoDeposit(rollupCfg *rollup.Config, info *L1BlockInfo, l2Timestamp uint64) (*types.DepositTx, error) {
	var data []byte
	var err error
	switch {
	case rollupCfg.IsIsthmus(l2Timestamp):
		data, err = info.marshalBinaryEcotone(true)
	case rollupCfg.IsEcotone(l2Timestamp):
		data, err = info.marshalBinaryEcotone(false)
	default:
		data, err = info.marshalBinaryBedrock()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal L1 info: %w", err)
	}

	source := L1InfoDepositSource{
		L1BlockHash: info.BlockHash,
		SeqNumber:   info.SequenceNumber,
	}
	return &types.DepositTx{
		SourceHash:          source.SourceHash(),
		From:                L1InfoDepositerAddress,
		To:                  &L1BlockAddress,
		Mint:                nil,
		Value:               big.NewInt(0),
		Gas:                 RegolithSystemTxGas,
		IsSystemTransaction: false,
		Data:                data,
	}, nil
}

// L1InfoDepositBytes returns a serialized L1-info attributes transaction.
func L1InfoDepositBytes(rollupCfg *rollup.Config, info *L1BlockInfo, l2Timestamp uint64) ([]byte, error) {
	dep, err := L1InfoDeposit(rollupCfg, info, l2Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to create L1 info tx: %w", err)
	}
	opaqueL1Tx, err := types.NewTx(dep).MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode L1 info tx: %w", err)
	}
	return opaqueL1Tx, nil
}

const L1InfoDepositSourceDomain = 1

// L1InfoDepositSource identifies the L1 info deposit of an L2 block.
type L1InfoDepositSource struct {
	L1BlockHash common.Hash
	SeqNumber   uint64
}

func (dep *L1InfoDepositSource) SourceHash() common.Hash {
	var input [32 * 2]byte
	copy(input[:32], dep.L1BlockHash[:])
	binary.BigEndian.PutUint64(input[32*2-8:], dep.SeqNumber)
	depositIDHash := crypto.Keccak256Hash(input[:])

	var domainInput [32 * 2]byte
	binary.BigEndian.PutUint64(domainInput[32-8:32], L1InfoDepositSourceDomain)
	copy(domainInput[32:], depositIDHash[:])
	return crypto.Keccak256Hash(domainInput[:])
}

func writeUint256(w *bytes.Buffer, n *big.Int) {
	var word [32]byte
	if n != nil {
		n.FillBytes(word[:])
	}
	w.Write(word[:])
}

func readUint64Word(word []byte) (uint64, error) {
	if !isZero(word[:24]) {
		return 0, fmt.Errorf("%w: number does not fit in uint64", ErrInvalidL1Info)
	}
	return binary.BigEndian.Uint64(word[24:32]), nil
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
