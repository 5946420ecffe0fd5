package excel

import (
	"archive/zip"
	"bytes"
	"mime"
	"strings"

	"sheetview/domain/sheet"

	"github.com/gabriel-vasile/mimetype"
)

var contentTypeFormats = map[string]sheet.Format{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": sheet.FormatXLSX,
	"application/vnd.ms-excel.sheet.macroenabled.12":                    sheet.FormatXLSX,
	"application/vnd.ms-excel.sheet.binary.macroenabled.12":             sheet.FormatXLSB,
	"application/vnd.ms-excel":                                          sheet.FormatXLS,
	"application/vnd.oasis.opendocument.spreadsheet":                    sheet.FormatODS,
	"application/vnd.oasis.opendocument.spreadsheet-flat-xml":           sheet.FormatFODS,
	"text/csv":                                                          sheet.FormatCSV,
	"application/csv":                                                   sheet.FormatCSV,
	"text/tab-separated-values":                                         sheet.FormatCSV,
	"text/html":                                                         sheet.FormatHTML,
	"application/xhtml+xml":                                             sheet.FormatHTML,
}

// DetectFormat picks a decoder for doc: file extension first, then the
// Content-Type it was served with, then the bytes themselves.
func DetectFormat(doc *sheet.Document) sheet.Format {
	if doc == nil {
		return sheet.FormatUnknown
	}
	if f := sheet.FormatForName(doc.Name); f != sheet.FormatUnknown {
		return f
	}
	if f := formatForContentType(doc.ContentType); f != sheet.FormatUnknown {
		return f
	}
	return SniffFormat(doc.Data)
}

func formatForContentType(contentType string) sheet.Format {
	if contentType == "" {
		return sheet.FormatUnknown
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return sheet.FormatUnknown
	}
	return contentTypeFormats[strings.ToLower(mediaType)]
}

// SniffFormat identifies a format from content alone
func SniffFormat(data []byte) sheet.Format {
	if len(data) == 0 {
		return sheet.FormatUnknown
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		switch {
		case m.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
			return sheet.FormatXLSX
		case m.Is("application/vnd.ms-excel"), m.Is("application/x-ole-storage"):
			return sheet.FormatXLS
		case m.Is("application/vnd.oasis.opendocument.spreadsheet"):
			return sheet.FormatODS
		case m.Is("application/zip"):
			return zipFormat(data)
		case m.Is("text/html"):
			return sheet.FormatHTML
		case m.Is("text/xml"), m.Is("application/xml"):
			if bytes.Contains(data, []byte("office:document")) {
				return sheet.FormatFODS
			}
			return sheet.FormatUnknown
		case m.Is("text/csv"), m.Is("text/tab-separated-values"), m.Is("text/plain"):
			return sheet.FormatCSV
		}
	}
	return sheet.FormatUnknown
}

// zipFormat tells the zip-based spreadsheet formats apart by their entries
func zipFormat(data []byte) sheet.Format {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return sheet.FormatUnknown
	}
	for _, f := range zr.File {
		switch f.Name {
		case "xl/workbook.bin":
			return sheet.FormatXLSB
		case "xl/workbook.xml":
			return sheet.FormatXLSX
		case "content.xml":
			return sheet.FormatODS
		}
	}
	return sheet.FormatUnknown
}
