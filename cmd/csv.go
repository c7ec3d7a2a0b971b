/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/deepler/internal/deepl"
)

var (
	csvInputFile  string
	csvOutputFile string
	csvSourceLang string
	csvTargetLang string
	csvColumns    []int
	csvSkipHeader bool
	csvFormality  string
	csvGlossaryID string
)

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Translate columns of a CSV file",
	Long: `Translate one or more columns in a CSV file.

By default all columns are translated. Use -l to select specific columns
(0-indexed). The flag may be repeated to select multiple columns. Cells are
sent in batches of up to 50, so a large file needs few requests.

Example:
  deepler translate csv -i data.csv -o out.csv -t uk -l 1 -l 3 --skip-header`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if csvInputFile == csvOutputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		target, err := parseTarget(csvTargetLang)
		if err != nil {
			return err
		}
		opts := deepl.NewTextOptions(target).SetGlossaryID(csvGlossaryID)
		if source, ok, err := parseSource(csvSourceLang); err != nil {
			return err
		} else if ok {
			opts.SetSourceLang(source)
		}
		f, err := deepl.ParseFormality(csvFormality)
		if err != nil {
			return err
		}
		opts.SetFormality(f)

		in, err := os.Open(csvInputFile)
		if err != nil {
			return fmt.Errorf("failed to open input CSV: %w", err)
		}
		defer in.Close()

		reader := csv.NewReader(in)
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}
		if len(records) == 0 {
			return fmt.Errorf("CSV file is empty")
		}

		cells := selectCells(records, csvColumns, csvSkipHeader)
		if len(cells) == 0 {
			return fmt.Errorf("no cells to translate")
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		texts := make([]string, len(cells))
		for i, c := range cells {
			texts[i] = records[c.row][c.col]
		}
		res, err := translateAll(cmd.Context(), client, opts, texts)
		if err != nil {
			return describeError(err)
		}
		for i, c := range cells {
			records[c.row][c.col] = res[i].Text
		}

		out, err := os.Create(csvOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output CSV: %w", err)
		}
		defer out.Close()

		writer := csv.NewWriter(out)
		if err := writer.WriteAll(records); err != nil {
			return fmt.Errorf("failed to write output CSV: %w", err)
		}

		fmt.Printf("CSV translated successfully: %s (%d cells)\n", csvOutputFile, len(cells))
		return nil
	},
}

type cellRef struct {
	row, col int
}

// selectCells lists the non-blank cells of the chosen columns in row order.
func selectCells(records [][]string, columns []int, skipHeader bool) []cellRef {
	colSet := make(map[int]bool, len(columns))
	for _, c := range columns {
		colSet[c] = true
	}

	var cells []cellRef
	for rowIdx, row := range records {
		if skipHeader && rowIdx == 0 {
			continue
		}
		for colIdx, cell := range row {
			if len(columns) > 0 && !colSet[colIdx] {
				continue
			}
			if strings.TrimSpace(cell) == "" {
				continue
			}
			cells = append(cells, cellRef{row: rowIdx, col: colIdx})
		}
	}
	return cells
}

func init() {
	translateCmd.AddCommand(csvCmd)

	csvCmd.Flags().StringVarP(&csvInputFile, "input", "i", "", "Input CSV file (required)")
	csvCmd.Flags().StringVarP(&csvOutputFile, "output", "o", "", "Output CSV file (required)")
	csvCmd.Flags().StringVarP(&csvSourceLang, "source", "s", "auto", "Source language code")
	csvCmd.Flags().StringVarP(&csvTargetLang, "target", "t", "", "Target language code (required)")
	csvCmd.Flags().IntSliceVarP(&csvColumns, "column", "l", nil, "Column index to translate (0-indexed, repeatable; default: all columns)")
	csvCmd.Flags().BoolVar(&csvSkipHeader, "skip-header", false, "Leave the first row untranslated")
	csvCmd.Flags().StringVar(&csvFormality, "formality", "", "more, less, prefer_more or prefer_less")
	csvCmd.Flags().StringVar(&csvGlossaryID, "glossary", "", "Glossary id to apply")

	csvCmd.MarkFlagRequired("input")
	csvCmd.MarkFlagRequired("output")
	csvCmd.MarkFlagRequired("target")
}
