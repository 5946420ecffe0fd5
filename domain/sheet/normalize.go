package sheet

import (
	"context"
	"fmt"

	"sheetview/domain/core"

	"golang.org/x/sync/errgroup"
)

// maxNormalizeWorkers bounds how many sheets are read at once
const maxNormalizeWorkers = 4

// Normalize converts a parsed workbook into a SheetCollection. Sheets are
// read concurrently but stored by index, so the result keeps workbook
// order. Any failure discards the whole result.
func Normalize(ctx context.Context, wb *Workbook) (*SheetCollection, error) {
	if wb == nil {
		return nil, fmt.Errorf("%w: workbook is nil", core.ErrParseFailed)
	}

	n := len(wb.SheetNames)
	names := make([]string, n)
	copy(names, wb.SheetNames)
	data := make([][]Row, n)
	columns := make([][]ColumnDescriptor, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxNormalizeWorkers)

	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, ok := wb.SheetsByName[name]
			if !ok || s == nil {
				return fmt.Errorf("%w: %q", core.ErrSheetNotFound, name)
			}

			rows, err := s.Rows()
			if err != nil {
				return fmt.Errorf("sheet %q: %w", name, err)
			}
			cols, err := ColumnsForRange(s.UsedRange())
			if err != nil {
				return fmt.Errorf("sheet %q: %w", name, err)
			}

			if rows == nil {
				rows = []Row{}
			}
			data[i] = rows
			columns[i] = cols
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &SheetCollection{
		SheetNames: names,
		Data:       data,
		Columns:    columns,
	}, nil
}
