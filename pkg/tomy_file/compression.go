package tomy_file

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// EncoderLevel selects the zstd level used for VARCHAR data.
type EncoderLevel = zstd.EncoderLevel

const DefaultEncoderLevel = zstd.SpeedDefault

// ParseEncoderLevel accepts the names understood by zstd ("fastest",
// "default", "better", "best").
func ParseEncoderLevel(s string) (EncoderLevel, error) {
	ok, lvl := zstd.EncoderLevelFromString(s)
	if !ok {
		return DefaultEncoderLevel, errors.Errorf("unknown zstd level %q", s)
	}
	return lvl, nil
}

// Ints compression

// ZigZagEncode int64 => uint64.
func ZigZagEncode(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// ZigZagDecode uint64 => int64.
func ZigZagDecode(z uint64) int64 {
	return int64((z >> 1) ^ uint64((int64(z&1)<<63)>>63))
}

// CompressInt64Column encodes values as Delta -> ZigZag -> Varint.
func CompressInt64Column(col Int64Column) []byte {
	tmpBuf := make([]byte, binary.MaxVarintLen64)

	var buf bytes.Buffer
	var prev int64

	for _, v := range col.Values {
		delta := v - prev
		prev = v

		n := binary.PutUvarint(tmpBuf, ZigZagEncode(delta))
		buf.Write(tmpBuf[:n])
	}
	return buf.Bytes()
}

// DecompressInt64Column reverses CompressInt64Column.
func DecompressInt64Column(data []byte, numRows uint64) (*Int64Column, error) {
	reader := bytes.NewReader(data)
	values := make([]int64, numRows)
	var prev int64

	for i := range numRows {
		zz, err := ReadVarint(reader)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}

		prev += ZigZagDecode(zz)
		values[i] = prev
	}
	return &Int64Column{
		Values: values,
	}, nil
}

// Varchar compression

// CompressVarcharColumn compresses offsets and data of a VarcharColumn.
// Offsets: Delta -> Varint
// Data: ZSTD
// Output: [LenCompressedOffsets(varint)][CompressedOffsets][CompressedData]
func CompressVarcharColumn(col VarcharColumn, level EncoderLevel) ([]byte, error) {
	tmpBuf := make([]byte, binary.MaxVarintLen64)

	var offsetsBuf bytes.Buffer
	var prevOffset uint64

	for _, off := range col.Offsets {
		// offsets are increasing, no zigzag needed
		n := binary.PutUvarint(tmpBuf, off-prevOffset)
		prevOffset = off
		offsetsBuf.Write(tmpBuf[:n])
	}
	compressedOffsets := offsetsBuf.Bytes()

	var dataBuf bytes.Buffer
	enc, err := zstd.NewWriter(&dataBuf, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zstd writer")
	}
	if _, err := enc.Write(col.Data); err != nil {
		enc.Close()
		return nil, errors.Wrap(err, "failed to compress varchar data")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to flush zstd writer")
	}

	var finalBuf bytes.Buffer
	n := binary.PutUvarint(tmpBuf, uint64(len(compressedOffsets)))
	finalBuf.Write(tmpBuf[:n])
	finalBuf.Write(compressedOffsets)
	finalBuf.Write(dataBuf.Bytes())

	return finalBuf.Bytes(), nil
}

// DecompressVarcharColumn reverses CompressVarcharColumn.
func DecompressVarcharColumn(data []byte, numRows uint64) (*VarcharColumn, error) {
	reader := bytes.NewReader(data)

	offsetsLen, err := binary.ReadUvarint(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read offsets length")
	}

	offsetsBytes := make([]byte, offsetsLen)
	if _, err := io.ReadFull(reader, offsetsBytes); err != nil {
		return nil, errors.Wrap(err, "failed to read compressed offsets")
	}

	offsetReader := bytes.NewReader(offsetsBytes)
	offsets := make([]uint64, numRows)
	var prevOffset uint64

	for i := range numRows {
		delta, err := ReadVarint(offsetReader)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode offset delta at row %d", i)
		}
		prevOffset += delta
		offsets[i] = prevOffset
	}

	dec, err := zstd.NewReader(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zstd reader")
	}
	defer dec.Close()

	uncompressedData, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress varchar data")
	}

	return &VarcharColumn{
		Offsets: offsets,
		Data:    uncompressedData,
	}, nil
}
