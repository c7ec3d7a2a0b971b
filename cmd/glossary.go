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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/deepler/internal/glossary"
	"github.com/valpere/deepler/internal/lang"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage glossaries on the service",
	Long: `Create, inspect and delete glossaries.

A glossary maps source terms to fixed target terms for one language pair and
is applied by passing its id to 'translate --glossary' or
'document translate --glossary'. Glossaries cannot be edited; create a new
one instead.`,
}

var glossaryPairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "List language pairs glossaries can be created for",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		pairs, err := client.GlossaryLanguagePairs(cmd.Context())
		if err != nil {
			return describeError(err)
		}
		for _, p := range pairs {
			fmt.Printf("%s -> %s\n", p.SourceLang, p.TargetLang)
		}
		return nil
	},
}

var (
	glossarySource  string
	glossaryTarget  string
	glossaryFile    string
	glossaryFormat  string
	glossaryEntries []string
)

var glossaryCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a glossary",
	Long: `Create a glossary from a TSV or CSV file (--file) or from --entry pairs.

Example:
  deepler glossary create brands -s en -t uk --entry "Kyiv=Київ" --entry "Lviv=Львів"
  deepler glossary create legal -s en -t de --file terms.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := lang.Parse(glossarySource)
		if err != nil {
			return fmt.Errorf("--source: %w", err)
		}
		target, err := lang.Parse(glossaryTarget)
		if err != nil {
			return fmt.Errorf("--target: %w", err)
		}

		format, blob, err := glossaryInput()
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		g, err := client.CreateGlossary(cmd.Context(), args[0], source, target, blob, format)
		if err != nil {
			return describeError(err)
		}
		fmt.Printf("Created glossary %s (%d entries)\n", g.ID, g.EntryCount)
		return nil
	},
}

// glossaryInput returns the entries blob from --file or --entry flags.
func glossaryInput() (glossary.Format, string, error) {
	if glossaryFile != "" && len(glossaryEntries) > 0 {
		return 0, "", fmt.Errorf("use either --file or --entry, not both")
	}

	if glossaryFile != "" {
		format, err := glossary.ParseFormat(glossaryFormat)
		if glossaryFormat == "" {
			format, err = glossary.ParseFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(glossaryFile)), "."))
		}
		if err != nil {
			return 0, "", fmt.Errorf("cannot tell the entries format, pass --format: %w", err)
		}
		data, err := os.ReadFile(glossaryFile)
		if err != nil {
			return 0, "", fmt.Errorf("failed to read glossary file: %w", err)
		}
		return format, string(data), nil
	}

	entries := make(glossary.Entries, len(glossaryEntries))
	for _, e := range glossaryEntries {
		src, tgt, ok := strings.Cut(e, "=")
		if !ok || strings.TrimSpace(src) == "" || strings.TrimSpace(tgt) == "" {
			return 0, "", fmt.Errorf("invalid --entry %q, expected source=target", e)
		}
		entries[strings.TrimSpace(src)] = strings.TrimSpace(tgt)
	}
	if len(entries) == 0 {
		return 0, "", fmt.Errorf("no entries: pass --file or --entry")
	}
	blob, err := glossary.Encode(entries, glossary.TSV)
	if err != nil {
		return 0, "", fmt.Errorf("invalid --entry: %w", err)
	}
	return glossary.TSV, blob, nil
}

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all glossaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		list, err := client.Glossaries(cmd.Context())
		if err != nil {
			return describeError(err)
		}

		if len(list) == 0 {
			fmt.Println("No glossaries.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSOURCE\tTARGET\tENTRIES\tREADY\tCREATED")
		for _, g := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%v\t%s\n",
				g.ID, g.Name, g.SourceLang, g.TargetLang, g.EntryCount, g.Ready,
				g.CreationTime.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var glossaryInfoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show glossary metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		g, err := client.Glossary(cmd.Context(), args[0])
		if err != nil {
			return describeError(err)
		}
		fmt.Printf("ID:       %s\n", g.ID)
		fmt.Printf("Name:     %s\n", g.Name)
		fmt.Printf("Pair:     %s -> %s\n", g.SourceLang, g.TargetLang)
		fmt.Printf("Entries:  %d\n", g.EntryCount)
		fmt.Printf("Ready:    %v\n", g.Ready)
		fmt.Printf("Created:  %s\n", g.CreationTime.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

var glossaryEntriesFormat string

var glossaryEntriesCmd = &cobra.Command{
	Use:   "entries <id>",
	Short: "Print the entries of a glossary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := glossary.ParseFormat(glossaryEntriesFormat)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		entries, err := client.GlossaryEntries(cmd.Context(), args[0])
		if err != nil {
			return describeError(err)
		}
		if len(entries) == 0 {
			return nil
		}
		blob, err := glossary.Encode(entries, format)
		if err != nil {
			return fmt.Errorf("cannot print entries as %s, try --format tsv: %w", format, err)
		}
		fmt.Println(blob)
		return nil
	},
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a glossary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if err := client.DeleteGlossary(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete glossary: %w", describeError(err))
		}
		fmt.Printf("Deleted glossary: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCreateCmd.Flags().StringVarP(&glossarySource, "source", "s", "", "Source language code (required)")
	glossaryCreateCmd.Flags().StringVarP(&glossaryTarget, "target", "t", "", "Target language code (required)")
	glossaryCreateCmd.Flags().StringVarP(&glossaryFile, "file", "f", "", "Entries file in TSV or CSV")
	glossaryCreateCmd.Flags().StringVar(&glossaryFormat, "format", "", "Entries file format: tsv or csv (default: from extension)")
	glossaryCreateCmd.Flags().StringArrayVarP(&glossaryEntries, "entry", "e", nil, "Entry as source=target (repeatable)")
	glossaryCreateCmd.MarkFlagRequired("source")
	glossaryCreateCmd.MarkFlagRequired("target")

	glossaryEntriesCmd.Flags().StringVar(&glossaryEntriesFormat, "format", "tsv", "Output format: tsv or csv")

	glossaryCmd.AddCommand(glossaryPairsCmd)
	glossaryCmd.AddCommand(glossaryCreateCmd)
	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryInfoCmd)
	glossaryCmd.AddCommand(glossaryEntriesCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
}
