package tomy_file

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// AnyColumn interface method
func (c Int64Column) SerializeData(w io.Writer, _ EncoderLevel) (compressedSize int64, err error) {
	n, err := w.Write(CompressInt64Column(c))
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// AnyColumn interface method
func (c VarcharColumn) SerializeData(w io.Writer, level EncoderLevel) (compressedSize int64, err error) {
	compressedData, err := CompressVarcharColumn(c, level)
	if err != nil {
		return 0, err
	}

	n, err := w.Write(compressedData)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// Serialize writes the table with the default zstd level.
func (table ColumnarTable) Serialize(filePath string) error {
	return table.SerializeLevel(filePath, DefaultEncoderLevel)
}

func (table ColumnarTable) SerializeLevel(filePath string, level EncoderLevel) error {
	if err := table.Validate(); err != nil {
		return err
	}

	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer f.Close()

	if _, err := f.WriteString(BeginMagic); err != nil {
		return errors.Wrap(err, "failed to write magic begin")
	}

	numColumns := uint64(len(table.Columns))
	colMeta := make([]ColumnMetaData, 0, numColumns)

	for _, col := range table.Columns {
		offset, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return errors.Wrapf(err, "failed to get current offset for column %s", col.GetName())
		}

		compressedSize, err := col.SerializeData(f, level)
		if err != nil {
			return errors.Wrapf(err, "failed to serialize data for column %s", col.GetName())
		}

		colMeta = append(colMeta, ColumnMetaData{
			Name:           col.GetName(),
			Type:           col.GetType(),
			DataOffset:     offset,
			CompressedSize: compressedSize,
		})
	}

	if err := writeMetadataBlockAndOffset(f, FileMetaData{
		NumRows:    table.NumRows,
		NumColumns: numColumns,
		Columns:    colMeta,
	}); err != nil {
		return errors.Wrap(err, "failed to write metadata")
	}

	if _, err := f.WriteString(EndMagic); err != nil {
		return errors.Wrap(err, "failed to write magic end")
	}

	return f.Sync()
}

func writeMetadataBlockAndOffset(f *os.File, meta FileMetaData) error {
	metadataOffset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(err, "failed to get metadata offset")
	}

	if err := writeMetadataVLE(f, meta); err != nil {
		return err
	}

	if err := binary.Write(f, binary.LittleEndian, metadataOffset); err != nil {
		return errors.Wrap(err, "failed to write metadata offset")
	}
	return nil
}

func writeMetadataVLE(w io.Writer, meta FileMetaData) error {
	if err := WriteVarint(w, meta.NumRows); err != nil {
		return err
	}
	if err := WriteVarint(w, meta.NumColumns); err != nil {
		return err
	}

	for _, col := range meta.Columns {
		// Name Length + Name
		if err := WriteVarint(w, uint64(len(col.Name))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, col.Name); err != nil {
			return err
		}

		// Type (1 byte)
		if err := binary.Write(w, binary.LittleEndian, byte(col.Type)); err != nil {
			return err
		}

		// Data Offset (8 bytes, LE)
		if err := binary.Write(w, binary.LittleEndian, col.DataOffset); err != nil {
			return err
		}

		// Compressed Size (VLE)
		if err := WriteVarint(w, uint64(col.CompressedSize)); err != nil {
			return err
		}
	}
	return nil
}
