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

	"github.com/spf13/cobra"

	"github.com/valpere/deepler/internal/deepl"
	"github.com/valpere/deepler/internal/lang"
)

var (
	languagesTarget bool
	languagesLocal  bool
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	Long: `List the languages the service accepts as source (default) or target.

With --local the built-in language table is printed instead, without
contacting the service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

		if languagesLocal {
			fmt.Fprintln(w, "CODE\tNAME\tROLE")
			for _, l := range lang.All() {
				if languagesTarget && !l.CanTarget() || !languagesTarget && !l.CanSource() {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", l, l.Name(), l.Role())
			}
			return w.Flush()
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		t := deepl.LanguageSource
		if languagesTarget {
			t = deepl.LanguageTarget
		}
		langs, err := client.Languages(cmd.Context(), t)
		if err != nil {
			return describeError(err)
		}

		if languagesTarget {
			fmt.Fprintln(w, "CODE\tNAME\tFORMALITY")
		} else {
			fmt.Fprintln(w, "CODE\tNAME")
		}
		for _, l := range langs {
			if languagesTarget {
				fmt.Fprintf(w, "%s\t%s\t%v\n", l.Code, l.Name, l.SupportsFormality)
			} else {
				fmt.Fprintf(w, "%s\t%s\n", l.Code, l.Name)
			}
		}
		return w.Flush()
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show character usage for the current billing period",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		u, err := client.Usage(cmd.Context())
		if err != nil {
			return describeError(err)
		}

		fmt.Printf("Characters used:  %d\n", u.CharacterCount)
		fmt.Printf("Character limit:  %d\n", u.CharacterLimit)
		if u.CharacterLimit > 0 {
			fmt.Printf("Used:             %.1f%%\n", float64(u.CharacterCount)*100/float64(u.CharacterLimit))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(usageCmd)

	languagesCmd.Flags().BoolVar(&languagesTarget, "target", false, "List target languages instead of source languages")
	languagesCmd.Flags().BoolVar(&languagesLocal, "local", false, "Print the built-in language table")
}
