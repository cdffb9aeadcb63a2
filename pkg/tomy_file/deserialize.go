package tomy_file

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

func Deserialize(filePath string) (*ColumnarTable, error) {
	return DeserializeColumns(filePath, nil)
}

// DeserializeColumns loads only the named columns, in the requested order.
// A nil list loads every column in file order.
func DeserializeColumns(filePath string, columnsToRead []string) (*ColumnarTable, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "can't open the file")
	}
	defer f.Close()

	if err := verifyMagicValue(f, BeginMagic, 0); err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "can't get the size of the file")
	}

	metadata, err := readMetadata(f, fi.Size())
	if err != nil {
		return nil, err
	}

	selected, err := selectColumns(metadata.Columns, columnsToRead)
	if err != nil {
		return nil, errors.Wrapf(err, "file %s", filePath)
	}

	table := &ColumnarTable{
		NumRows: metadata.NumRows,
		Columns: make([]AnyColumn, 0, len(selected)),
	}

	for _, colMeta := range selected {
		compressedData, err := readColumnData(f, colMeta)
		if err != nil {
			return nil, err
		}

		var col AnyColumn

		switch colMeta.Type {
		case TypeInt64:
			decodedCol, err := DecompressInt64Column(compressedData, metadata.NumRows)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to decode INT64 column '%s'", colMeta.Name)
			}
			decodedCol.Name = colMeta.Name
			col = decodedCol

		case TypeVarchar:
			decodedCol, err := DecompressVarcharColumn(compressedData, metadata.NumRows)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to decode VARCHAR column '%s'", colMeta.Name)
			}
			decodedCol.Name = colMeta.Name
			col = decodedCol

		default:
			return nil, errors.Errorf("unknown column type for '%s': %v", colMeta.Name, colMeta.Type)
		}

		table.Columns = append(table.Columns, col)
	}

	return table, nil
}

func selectColumns(all []ColumnMetaData, names []string) ([]ColumnMetaData, error) {
	if names == nil {
		return all, nil
	}
	byName := make(map[string]ColumnMetaData, len(all))
	for _, c := range all {
		byName[c.Name] = c
	}
	res := make([]ColumnMetaData, 0, len(names))
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			return nil, errors.Errorf("column %s not found", name)
		}
		res = append(res, c)
	}
	return res, nil
}

func verifyMagicValue(f *os.File, expectedMagic string, offset int64) error {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrapf(err, "failed to seek to %s (offset %d)", expectedMagic, offset)
	}

	magicBuffer := make([]byte, len(expectedMagic))
	if _, err := io.ReadFull(f, magicBuffer); err != nil {
		return errors.Wrapf(err, "file is too short, error reading %s", expectedMagic)
	}

	if string(magicBuffer) != expectedMagic {
		return errors.Errorf("invalid magic: expected '%s', got '%s'", expectedMagic, string(magicBuffer))
	}
	return nil
}

func readMetadata(f *os.File, fileSize int64) (*FileMetaData, error) {
	endMagicStart := fileSize - int64(len(EndMagic))
	if endMagicStart < int64(len(BeginMagic)) {
		return nil, errors.Errorf("file is too short: %d bytes", fileSize)
	}
	if err := verifyMagicValue(f, EndMagic, endMagicStart); err != nil {
		return nil, err
	}

	// metadata offset is the 8 bytes before EndMagic
	offsetPointerStart := endMagicStart - 8

	if _, err := f.Seek(offsetPointerStart, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "couldn't seek to metadata offset pointer")
	}

	var metadataOffset int64
	if err := binary.Read(f, binary.LittleEndian, &metadataOffset); err != nil {
		return nil, errors.Wrap(err, "couldn't read the metadata offset")
	}

	if metadataOffset < int64(len(BeginMagic)) || metadataOffset >= offsetPointerStart {
		return nil, errors.Errorf("invalid metadata offset value: %d", metadataOffset)
	}

	if _, err := f.Seek(metadataOffset, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "couldn't seek to the beginning of metadata")
	}

	metadataBuffer := make([]byte, offsetPointerStart-metadataOffset)
	if _, err := io.ReadFull(f, metadataBuffer); err != nil {
		return nil, errors.Wrap(err, "error while reading metadata block")
	}

	return deserializeMetadata(metadataBuffer)
}

func deserializeMetadata(buf []byte) (*FileMetaData, error) {
	reader := bytes.NewReader(buf)
	meta := &FileMetaData{}

	numRows, err := ReadVarint(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read NumRows")
	}
	meta.NumRows = numRows

	numColumns, err := ReadVarint(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read NumColumns")
	}
	meta.NumColumns = numColumns

	meta.Columns = make([]ColumnMetaData, meta.NumColumns)

	for i := range meta.Columns {
		nameLength, err := ReadVarint(reader)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read length of column %d name", i)
		}
		nameBuffer := make([]byte, nameLength)
		if _, err := io.ReadFull(reader, nameBuffer); err != nil {
			return nil, errors.Wrapf(err, "failed to read column %d name", i)
		}
		meta.Columns[i].Name = string(nameBuffer)

		colType, err := reader.ReadByte()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read type of column %d", i)
		}
		meta.Columns[i].Type = ColumnType(colType)

		if err := binary.Read(reader, binary.LittleEndian, &meta.Columns[i].DataOffset); err != nil {
			return nil, errors.Wrapf(err, "failed to read offset of column %d data", i)
		}

		compressedSize, err := ReadVarint(reader)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read size of the column %d", i)
		}
		meta.Columns[i].CompressedSize = int64(compressedSize)
	}

	return meta, nil
}

func readColumnData(f *os.File, colMeta ColumnMetaData) ([]byte, error) {
	if _, err := f.Seek(colMeta.DataOffset, io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "failed to seek to column %s data", colMeta.Name)
	}

	compressedData := make([]byte, colMeta.CompressedSize)
	if _, err := io.ReadFull(f, compressedData); err != nil {
		return nil, errors.Wrapf(err, "failed to read column %s data", colMeta.Name)
	}
	return compressedData, nil
}
