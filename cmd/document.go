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
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/deepler/internal/batch"
	"github.com/valpere/deepler/internal/deepl"
	"github.com/valpere/deepler/internal/poller"
	"github.com/valpere/deepler/internal/store"
)

var (
	docSourceLang string
	docTargetLang string
	docFormality  string
	docGlossaryID string
	docFilename   string
	docOutput     string
	docKey        string
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Translate documents",
	Long: `Upload documents for translation, follow their progress and download
the results.

Uploaded documents are recorded in the local registry (--db) so later
commands only need the document id. Documents uploaded elsewhere can be
addressed with --key.

Example:
  deepler document translate -t de report.docx slides.pptx
  deepler document upload -t fr contract.pdf
  deepler document wait <document-id>
  deepler document download <document-id> -o contract.fr.pdf`,
}

func documentOptions(path string) (*deepl.DocumentOptions, error) {
	target, err := parseTarget(docTargetLang)
	if err != nil {
		return nil, err
	}
	opts := deepl.NewDocumentOptions(target, path).
		SetGlossaryID(docGlossaryID).
		SetFilename(docFilename)
	if source, ok, err := parseSource(docSourceLang); err != nil {
		return nil, err
	} else if ok {
		opts.SetSourceLang(source)
	}
	f, err := deepl.ParseFormality(docFormality)
	if err != nil {
		return nil, err
	}
	opts.SetFormality(f)
	return opts, nil
}

// resolveDocument finds the handle for id, from --key or the registry.
func resolveDocument(ctx context.Context, db *store.Store, id string) (deepl.Document, error) {
	if docKey != "" {
		return deepl.Document{ID: id, Key: docKey}, nil
	}
	job, err := db.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return deepl.Document{}, fmt.Errorf("document %s is not in the registry %s; pass --key", id, cfg.DBPath)
		}
		return deepl.Document{}, err
	}
	return job.Document(), nil
}

// recordStatus updates the registry; documents addressed with --key may be
// unknown to it.
func recordStatus(ctx context.Context, db *store.Store, status *deepl.DocumentStatus, outputPath string) {
	if err := db.RecordStatus(ctx, status, outputPath); err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Warn().Err(err).Str("document_id", status.ID).Msg("failed to update registry")
	}
}

func printStatus(s *deepl.DocumentStatus) {
	line := fmt.Sprintf("%s: %s", s.ID, s.State)
	if s.SecondsRemaining != nil {
		line += fmt.Sprintf(" (about %ds remaining)", *s.SecondsRemaining)
	}
	if s.BilledCharacters != nil {
		line += fmt.Sprintf(" (%d characters billed)", *s.BilledCharacters)
	}
	if s.ErrorMessage != "" {
		line += ": " + s.ErrorMessage
	}
	fmt.Println(line)
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document for translation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := documentOptions(args[0])
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		doc, err := client.UploadDocument(ctx, opts)
		if err != nil {
			return describeError(err)
		}
		if err := db.RecordUpload(ctx, opts, doc); err != nil {
			return fmt.Errorf("document %s uploaded but not recorded: %w", doc.ID, err)
		}

		fmt.Printf("Uploaded %s as document %s\n", args[0], doc.ID)
		return nil
	},
}

var documentStatusCmd = &cobra.Command{
	Use:   "status <document-id>",
	Short: "Show the translation state of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		doc, err := resolveDocument(ctx, db, args[0])
		if err != nil {
			return err
		}
		status, err := client.DocumentStatus(ctx, doc)
		if err != nil {
			return describeError(err)
		}
		recordStatus(ctx, db, status, "")
		printStatus(status)
		return nil
	},
}

var documentWaitCmd = &cobra.Command{
	Use:   "wait <document-id>",
	Short: "Poll until a document is translated or fails",
	Long: `Poll until a document is translated or fails.

Interrupting the wait does not cancel the translation on the service.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		doc, err := resolveDocument(ctx, db, args[0])
		if err != nil {
			return err
		}

		w := poller.New(client, waiterOptions()...)
		var last deepl.DocumentState
		w.OnStatus = func(s *deepl.DocumentStatus) {
			recordStatus(ctx, db, s, "")
			if s.State != last {
				printStatus(s)
				last = s.State
			}
		}
		if _, err := w.Wait(ctx, doc); err != nil {
			return describeError(err)
		}
		return nil
	},
}

var documentDownloadCmd = &cobra.Command{
	Use:   "download <document-id>",
	Short: "Download a translated document",
	Long: `Download a translated document to --output, or to a file named after the
document id. The document must be done; see 'deepler document wait'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		doc, err := resolveDocument(ctx, db, args[0])
		if err != nil {
			return err
		}
		out := docOutput
		if out == "" {
			if job, err := db.Get(ctx, doc.ID); err == nil {
				out = batch.OutputPath(job.FilePath, job.TargetLang)
			}
		}

		path, err := client.DownloadDocument(ctx, doc, out)
		if err != nil {
			return describeError(err)
		}
		recordStatus(ctx, db, &deepl.DocumentStatus{ID: doc.ID, State: deepl.StateDone}, path)
		fmt.Printf("Saved %s\n", path)
		return nil
	},
}

var documentTranslateCmd = &cobra.Command{
	Use:   "translate <file>...",
	Short: "Upload, wait for and download one or more documents",
	Long: `Upload, wait for and download one or more documents.

Up to --concurrency documents are processed at once. Each result is written
next to its input with the target language in the name, e.g. report.de.docx,
unless --output is given for a single file. A failing document does not stop
the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if docOutput != "" && len(args) > 1 {
			return fmt.Errorf("--output can only be used with a single file")
		}

		jobs := make([]batch.Job, 0, len(args))
		for _, path := range args {
			opts, err := documentOptions(path)
			if err != nil {
				return err
			}
			jobs = append(jobs, batch.Job{Options: opts, Output: docOutput})
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		runner := batch.New(client,
			batch.WithConcurrency(cfg.Concurrency),
			batch.WithRecorder(db),
			batch.WithWaiterOptions(waiterOptions()...),
			batch.WithLogger(logger))
		summary := runner.Run(cmd.Context(), jobs)

		for _, res := range summary.Results {
			switch {
			case res.Err == nil:
				fmt.Printf("%s -> %s\n", res.Job.Options.FilePath(), res.OutputPath)
			case res.Document != nil:
				fmt.Fprintf(os.Stderr, "%s: %v (document %s)\n", res.Job.Options.FilePath(), describeError(res.Err), res.Document.ID)
			default:
				fmt.Fprintf(os.Stderr, "%s: %v\n", res.Job.Options.FilePath(), describeError(res.Err))
			}
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d documents failed", summary.Failed, len(jobs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(documentCmd)

	for _, c := range []*cobra.Command{documentUploadCmd, documentTranslateCmd} {
		c.Flags().StringVarP(&docSourceLang, "source", "s", "auto", "Source language code")
		c.Flags().StringVarP(&docTargetLang, "target", "t", "", "Target language code (required)")
		c.Flags().StringVar(&docFormality, "formality", "", "more, less, prefer_more or prefer_less")
		c.Flags().StringVar(&docGlossaryID, "glossary", "", "Glossary id to apply")
		c.MarkFlagRequired("target")
	}
	documentUploadCmd.Flags().StringVar(&docFilename, "filename", "", "File name reported to the service (default: base name)")

	for _, c := range []*cobra.Command{documentStatusCmd, documentWaitCmd, documentDownloadCmd} {
		c.Flags().StringVar(&docKey, "key", "", "Document key, for documents not in the registry")
	}
	documentDownloadCmd.Flags().StringVarP(&docOutput, "output", "o", "", "Output file")
	documentTranslateCmd.Flags().StringVarP(&docOutput, "output", "o", "", "Output file (single input only)")

	documentCmd.AddCommand(documentUploadCmd)
	documentCmd.AddCommand(documentStatusCmd)
	documentCmd.AddCommand(documentWaitCmd)
	documentCmd.AddCommand(documentDownloadCmd)
	documentCmd.AddCommand(documentTranslateCmd)
}
