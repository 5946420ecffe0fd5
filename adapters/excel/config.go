package excel

// ParserConfig holds decoding options shared by the format adapters
type ParserConfig struct {
	// XLSCharset is the code page used for legacy BIFF string records.
	XLSCharset string `json:"xls_charset"`
	// CSVFallbackCharset decodes delimited text that is not valid UTF-8.
	CSVFallbackCharset string `json:"csv_fallback_charset"`
	// MaxUnzipSize bounds decompressed xlsx content; 0 keeps the library default.
	MaxUnzipSize int64 `json:"max_unzip_size"`
}

// DefaultParserConfig returns sensible defaults for spreadsheet decoding
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		XLSCharset:         "utf-8",
		CSVFallbackCharset: "windows-1252",
		MaxUnzipSize:       0,
	}
}
