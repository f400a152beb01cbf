package pdfinfo

import (
	"bytes"
	"errors"

	"github.com/ledongthuc/pdf"
)

var ErrNotPDF = errors.New("not a valid pdf file")

// Info carries the metadata extracted from an uploaded PDF.
type Info struct {
	PageCount int
	Title     string
}

// Inspect validates that data is a parseable PDF and returns its page count
// and document title (empty if the file declares none).
func Inspect(data []byte) (*Info, error) {
	if len(data) < 5 || !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, ErrNotPDF
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrNotPDF
	}

	info := &Info{PageCount: reader.NumPage()}
	if meta := reader.Trailer().Key("Info"); !meta.IsNull() {
		if title := meta.Key("Title"); title.Kind() == pdf.String {
			info.Title = title.RawString()
		}
	}
	return info, nil
}
