package sheet

// BuildColumns returns one descriptor per column in ascending key order
func BuildColumns(columnCount int) []ColumnDescriptor {
	if columnCount <= 0 {
		return []ColumnDescriptor{}
	}
	cols := make([]ColumnDescriptor, columnCount)
	for i := range cols {
		cols[i] = ColumnDescriptor{Name: EncodeColumn(i), Key: i}
	}
	return cols
}

// ColumnsForRange decodes ref and builds its column descriptors
func ColumnsForRange(ref string) ([]ColumnDescriptor, error) {
	n, err := ColumnCount(ref)
	if err != nil {
		return nil, err
	}
	return BuildColumns(n), nil
}
