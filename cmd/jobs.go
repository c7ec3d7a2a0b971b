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
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var pruneOlderThan time.Duration

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in the local registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		jobs, err := db.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}

		if len(jobs) == 0 {
			fmt.Println("No documents recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DOCUMENT ID\tTARGET\tSTATE\tBILLED\tUPDATED\tFILE\tOUTPUT")
		for _, j := range jobs {
			billed := "-"
			if j.BilledCharacters.Valid {
				billed = fmt.Sprint(j.BilledCharacters.Int64)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				j.DocumentID, j.TargetLang, j.State, billed,
				j.UpdatedAt.Local().Format("2006-01-02 15:04"),
				j.FilePath, j.OutputPath)
		}
		return w.Flush()
	},
}

var documentForgetCmd = &cobra.Command{
	Use:   "forget <document-id>",
	Short: "Remove a document from the local registry",
	Long: `Remove a document from the local registry. The document itself is not
touched on the service, but without its key it can no longer be addressed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to forget document: %w", err)
		}
		fmt.Printf("Forgot document: %s\n", args[0])
		return nil
	},
}

var documentPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove finished documents from the local registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.Prune(cmd.Context(), time.Now().Add(-pruneOlderThan))
		if err != nil {
			return fmt.Errorf("failed to prune registry: %w", err)
		}
		fmt.Printf("Removed %d finished documents.\n", n)
		return nil
	},
}

func init() {
	documentPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 7*24*time.Hour, "Only remove documents last updated before this age")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentForgetCmd)
	documentCmd.AddCommand(documentPruneCmd)
}
