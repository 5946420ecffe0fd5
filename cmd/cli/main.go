package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"sheetview/adapters/excel"
	"sheetview/adapters/source"
	"sheetview/domain/sheet"
	"sheetview/internal/profiling"
	"sheetview/internal/viewer"
	"sheetview/ports"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "sheetview-cli",
		Short:        "Inspect spreadsheets from the command line",
		SilenceUsage: true,
	}

	var timeout time.Duration
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Maximum time to load a source")

	rootCmd.AddCommand(
		newSheetsCmd(&timeout),
		newDumpCmd(&timeout),
		newColumnsCmd(&timeout),
		newProfileCmd(&timeout),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSheetsCmd(timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets [path-or-url]",
		Short: "List the sheets of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := loadSource(cmd.Context(), args[0], *timeout)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), res)
		},
	}
}

func newDumpCmd(timeout *time.Duration) *cobra.Command {
	var sheetArg string
	var format string

	cmd := &cobra.Command{
		Use:   "dump [path-or-url]",
		Short: "Print the rows of one sheet",
		Long: `Print the rows of one sheet as an aligned table, CSV or JSON.

Example: sheetview-cli dump report.xlsx --sheet Totals --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := loadSource(cmd.Context(), args[0], *timeout)
			if err != nil {
				return err
			}
			index, err := resolveSheet(res.Collection, sheetArg)
			if err != nil {
				return err
			}
			return writeSheet(cmd.OutOrStdout(), res.Collection, index, format)
		},
	}

	cmd.Flags().StringVar(&sheetArg, "sheet", "0", "Sheet index or name")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, csv or json")

	return cmd
}

func newColumnsCmd(timeout *time.Duration) *cobra.Command {
	var sheetArg string

	cmd := &cobra.Command{
		Use:   "columns [path-or-url]",
		Short: "Print the column descriptors of one sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := loadSource(cmd.Context(), args[0], *timeout)
			if err != nil {
				return err
			}
			index, err := resolveSheet(res.Collection, sheetArg)
			if err != nil {
				return err
			}
			_, _, cols, _ := res.Collection.Sheet(index)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME")
			for _, col := range cols {
				fmt.Fprintf(tw, "%d\t%s\n", col.Key, col.Name)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&sheetArg, "sheet", "0", "Sheet index or name")
	return cmd
}

func newProfileCmd(timeout *time.Duration) *cobra.Command {
	var sheetArg string

	cmd := &cobra.Command{
		Use:   "profile [path-or-url]",
		Short: "Summarize the values in each column of one sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := loadSource(cmd.Context(), args[0], *timeout)
			if err != nil {
				return err
			}
			index, err := resolveSheet(res.Collection, sheetArg)
			if err != nil {
				return err
			}
			_, rows, cols, _ := res.Collection.Sheet(index)
			return writeProfile(cmd.OutOrStdout(), profiling.ProfileSheet(rows, cols))
		},
	}

	cmd.Flags().StringVar(&sheetArg, "sheet", "0", "Sheet index or name")
	return cmd
}

func loadSource(ctx context.Context, arg string, timeout time.Duration) (viewer.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v := viewer.New(excel.NewRegistry(excel.DefaultParserConfig()))
	return v.Load(ctx, loaderFor(arg))
}

func loaderFor(arg string) ports.SourceLoader {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		// the operator names the source, so local addresses are fair game
		config := source.DefaultURLConfig()
		config.AllowPrivateNetworks = true
		return source.NewURLLoader(arg, config)
	}
	return source.NewFileLoader(arg)
}

// resolveSheet accepts a sheet name or a zero-based index
func resolveSheet(coll *sheet.SheetCollection, arg string) (int, error) {
	if i := coll.IndexOf(arg); i >= 0 {
		return i, nil
	}
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 || i >= coll.Len() {
		return 0, fmt.Errorf("no sheet %q (workbook has %d sheets)", arg, coll.Len())
	}
	return i, nil
}

func writeSummary(w io.Writer, res viewer.Result) error {
	fmt.Fprintf(w, "Source: %s\n", res.Source)
	fmt.Fprintf(w, "Format: %s\n", res.Format)
	fmt.Fprintf(w, "Size: %s\n", humanize.Bytes(uint64(res.Bytes)))
	fmt.Fprintf(w, "Checksum: %s\n", res.Checksum.Short())
	fmt.Fprintf(w, "Loaded in: %v\n\n", res.Duration.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tROWS\tCOLUMNS")
	for i, name := range res.Collection.SheetNames {
		_, rows, cols, _ := res.Collection.Sheet(i)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", i, name, humanize.Comma(int64(len(rows))), len(cols))
	}
	return tw.Flush()
}

func writeSheet(w io.Writer, coll *sheet.SheetCollection, index int, format string) error {
	name, rows, cols, ok := coll.Sheet(index)
	if !ok {
		return fmt.Errorf("no sheet %d", index)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"name": name, "columns": cols, "rows": rows})
	case "csv":
		cw := csv.NewWriter(w)
		for _, row := range rows {
			if err := cw.Write(row.Texts(len(cols))); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		header := make([]string, 0, len(cols)+1)
		header = append(header, "")
		for _, col := range cols {
			header = append(header, col.Name)
		}
		fmt.Fprintln(tw, strings.Join(header, "\t"))
		for i, row := range rows {
			fmt.Fprintf(tw, "%d\t%s\n", i+1, strings.Join(row.Texts(len(cols)), "\t"))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (want table, csv or json)", format)
	}
}

func writeProfile(w io.Writer, profiles []profiling.ColumnProfile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tCELLS\tEMPTY\tNUMBERS\tSTRINGS\tBOOLS\tDISTINCT\tMIN\tMEDIAN\tMAX\tOUTLIERS")
	for _, p := range profiles {
		minV, median, maxV, outliers := "-", "-", "-", "-"
		if p.Numeric != nil {
			minV = sheet.FormatNumber(p.Numeric.Min)
			median = sheet.FormatNumber(p.Numeric.Median)
			maxV = sheet.FormatNumber(p.Numeric.Max)
			outliers = strconv.Itoa(p.Numeric.Outliers)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			p.Name, p.Cells, p.Empty, p.Numbers, p.Strings, p.Bools, p.Distinct, minV, median, maxV, outliers)
	}
	return tw.Flush()
}
