package csvingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readManifest loads a CSV file and returns the normalized header plus the
// data records. Manifests exported from spreadsheet tools on Windows often
// arrive as Windows-1252; anything that is not valid UTF-8 is decoded as
// that before parsing.
func readManifest(path string, delimiter rune) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, nil, fmt.Errorf("decode manifest: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("manifest is empty")
	}
	return rows[0], rows[1:], nil
}
