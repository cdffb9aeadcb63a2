package tomy_file

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

func WriteVarint(w io.Writer, value uint64) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, value)
	if _, err := w.Write(buf[:n]); err != nil {
		return errors.Wrap(err, "failed to write varint")
	}
	return nil
}

func ReadVarint(r io.Reader) (uint64, error) {
	byteReader, ok := r.(io.ByteReader)
	if !ok {
		return 0, errors.New("reader does not implement io.ByteReader")
	}

	value, err := binary.ReadUvarint(byteReader)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read varint")
	}
	return value, nil
}
