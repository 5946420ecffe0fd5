package sheet

import (
	"path/filepath"
	"strings"
)

// Format names a spreadsheet encoding understood by the parsing boundary
type Format string

const (
	FormatUnknown Format = ""
	FormatXLSX    Format = "xlsx"
	FormatXLSB    Format = "xlsb"
	FormatXLS     Format = "xls"
	FormatCSV     Format = "csv"
	FormatHTML    Format = "html"
	FormatODS     Format = "ods"
	FormatFODS    Format = "fods"
	// FormatOther covers accepted extensions without a decoder
	FormatOther Format = "other"
)

// AcceptedExtensions is the advisory list offered to file pickers. Entries
// ending in "*" are prefixes.
var AcceptedExtensions = []string{
	"xlsx", "xlsb", "xlsm", "xls", "xml", "csv", "txt", "ods", "fods", "uos",
	"sylk", "dif", "dbf", "prn", "qpw", "123", "wb*", "wq*", "html", "htm",
}

var extensionFormats = map[string]Format{
	"xlsx": FormatXLSX,
	"xlsm": FormatXLSX,
	"xltx": FormatXLSX,
	"xltm": FormatXLSX,
	"xlsb": FormatXLSB,
	"xls":  FormatXLS,
	"csv":  FormatCSV,
	"txt":  FormatCSV,
	"prn":  FormatCSV,
	"tsv":  FormatCSV,
	"html": FormatHTML,
	"htm":  FormatHTML,
	"ods":  FormatODS,
	"fods": FormatFODS,
}

// AcceptAttribute renders AcceptedExtensions for an <input accept="...">
func AcceptAttribute() string {
	exts := make([]string, len(AcceptedExtensions))
	for i, ext := range AcceptedExtensions {
		exts[i] = "." + ext
	}
	return strings.Join(exts, ",")
}

// IsAcceptedExtension reports whether name ends in an advisory extension
func IsAcceptedExtension(name string) bool {
	ext := extensionOf(name)
	if ext == "" {
		return false
	}
	for _, accepted := range AcceptedExtensions {
		if prefix, ok := strings.CutSuffix(accepted, "*"); ok {
			if strings.HasPrefix(ext, prefix) {
				return true
			}
			continue
		}
		if ext == accepted {
			return true
		}
	}
	return false
}

// FormatForName maps a file name's extension to a Format. Accepted
// extensions without a decoder map to FormatOther; anything else is unknown.
func FormatForName(name string) Format {
	ext := extensionOf(name)
	if f, ok := extensionFormats[ext]; ok {
		return f
	}
	if IsAcceptedExtension(name) {
		return FormatOther
	}
	return FormatUnknown
}

func extensionOf(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
