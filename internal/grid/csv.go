package grid

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/roach88/gridmerge/internal/ir"
)

// Supported source encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingLatin1      = "latin1"
)

// ValidEncodings lists the accepted --encoding values.
var ValidEncodings = []string{EncodingUTF8, EncodingWindows1252, EncodingLatin1}

// lookupEncoding maps an encoding name to a decoder factory.
// UTF-8 input has a leading byte order mark stripped.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", EncodingUTF8, "utf8":
		return unicode.UTF8BOM, nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252, nil
	case EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q: must be one of %v", name, ValidEncodings)
	}
}

// CheckEncoding reports whether name is a supported encoding.
func CheckEncoding(name string) error {
	_, err := lookupEncoding(name)
	return err
}

// ReadCSV parses r into a grid. Rows may have differing lengths.
// Empty fields become empty cells; everything else is kept as text.
func ReadCSV(r io.Reader, opts Options) (ir.Grid, error) {
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	cr.FieldsPerRecord = -1
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}

	var grid ir.Grid
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		grid = append(grid, ir.StrRow(record...))
	}

	return grid, nil
}
