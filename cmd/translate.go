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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/deepler/internal/chunker"
	"github.com/valpere/deepler/internal/deepl"
	"github.com/valpere/deepler/internal/markdown"
	"github.com/valpere/deepler/internal/placeholder"
)

var (
	inputFile  string
	outputFile string
	sourceLang string
	targetLang string

	formality          string
	glossaryID         string
	splitSentences     string
	tagHandling        string
	preserveFormatting bool
	noOutlineDetection bool
	ignoreTags         []string
	splittingTags      []string
	nonSplittingTags   []string

	renderMarkdown bool
	protectMarkup  bool
	showDetected   bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate text",
	Long: `Translate the given arguments, or the content of --input.

Each argument is translated separately and printed on its own line. File input
is split at paragraph boundaries into pieces the service accepts and put back
together in the original layout.

Markdown input (--markdown, implied for .md files) is rendered to HTML first
and translated with HTML tag handling, leaving code blocks untouched. --protect keeps code spans, HTML
tags and {variables} of plain text input untranslated.

Examples:
  deepler translate -t de "Good morning" "How are you?"
  deepler translate -t uk -i notes.md --markdown -o notes.uk.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		useMarkdown := len(args) == 0 && markdownInput(cmd.Flags().Changed("markdown"))
		if err := checkMarkupFlags(useMarkdown); err != nil {
			return err
		}
		opts, err := textOptions()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if len(args) > 0 {
			if inputFile != "" {
				return fmt.Errorf("use either text arguments or --input, not both")
			}
			texts := make([]string, 0, len(args))
			for _, a := range args {
				if strings.TrimSpace(a) != "" {
					texts = append(texts, a)
				}
			}
			if len(texts) == 0 {
				return fmt.Errorf("nothing to translate")
			}
			res, err := translateTexts(ctx, client, opts, texts)
			if err != nil {
				return err
			}
			var b strings.Builder
			for _, t := range res {
				b.WriteString(t)
				b.WriteString("\n")
			}
			return writeOutput(outputFile, b.String())
		}

		if inputFile == "" {
			return fmt.Errorf("nothing to translate: pass text arguments or --input")
		}
		if outputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		raw, err := readInput(inputFile)
		if err != nil {
			return err
		}
		text := string(raw)
		if useMarkdown {
			text = markdown.ToHTML(raw)
			opts.SetTagHandling(deepl.TagHandlingHTML)
			if len(ignoreTags) == 0 {
				opts.SetIgnoreTags(markdown.IgnoreTags...)
			}
		}

		translated, err := translateDocument(ctx, client, opts, text)
		if err != nil {
			return fmt.Errorf("%s: %w", inputFile, err)
		}
		return writeOutput(outputFile, translated)
	},
}

// markdownInput reports whether the input file is rendered as Markdown: as
// --markdown says when given, otherwise by file extension unless another
// markup mode was chosen.
func markdownInput(flagChanged bool) bool {
	if flagChanged {
		return renderMarkdown
	}
	return !protectMarkup && tagHandling == "" && inputFile != "-" && markdown.IsMarkdown(inputFile)
}

// checkMarkupFlags rejects markup modes that would override each other.
func checkMarkupFlags(useMarkdown bool) error {
	th := strings.ToLower(strings.TrimSpace(tagHandling))
	if useMarkdown && protectMarkup {
		return fmt.Errorf("--markdown and --protect cannot be combined")
	}
	if protectMarkup && th != "" && th != string(deepl.TagHandlingXML) {
		return fmt.Errorf("--protect requires xml tag handling, got --tag-handling %s", tagHandling)
	}
	if useMarkdown && th != "" && th != string(deepl.TagHandlingHTML) {
		return fmt.Errorf("--markdown requires html tag handling, got --tag-handling %s", tagHandling)
	}
	return nil
}

func textOptions() (*deepl.TextOptions, error) {
	target, err := parseTarget(targetLang)
	if err != nil {
		return nil, err
	}
	opts := deepl.NewTextOptions(target)

	if source, ok, err := parseSource(sourceLang); err != nil {
		return nil, err
	} else if ok {
		opts.SetSourceLang(source)
	}

	f, err := deepl.ParseFormality(formality)
	if err != nil {
		return nil, err
	}
	th, err := deepl.ParseTagHandling(tagHandling)
	if err != nil {
		return nil, err
	}
	ss, err := deepl.ParseSplitSentences(splitSentences)
	if err != nil {
		return nil, err
	}

	opts.SetFormality(f).
		SetGlossaryID(glossaryID).
		SetSplitSentences(ss).
		SetTagHandling(th).
		SetPreserveFormatting(preserveFormatting).
		SetIgnoreTags(ignoreTags...).
		SetSplittingTags(splittingTags...).
		SetNonSplittingTags(nonSplittingTags...)
	if noOutlineDetection {
		opts.SetOutlineDetection(false)
	}
	return opts, nil
}

// translateTexts translates texts in order, protecting markup in each text
// when --protect is set.
func translateTexts(ctx context.Context, client *deepl.Client, opts *deepl.TextOptions, texts []string) ([]string, error) {
	markers := make([][]string, len(texts))
	if protectMarkup {
		opts.SetTagHandling(deepl.TagHandlingXML)
		protected := make([]string, len(texts))
		for i, t := range texts {
			protected[i], markers[i] = placeholder.Protect(t)
		}
		texts = protected
	}

	res, err := translateAll(ctx, client, opts, texts)
	if err != nil {
		return nil, describeError(err)
	}
	reportDetected(res)

	out := make([]string, len(res))
	for i, t := range res {
		out[i] = t.Text
		if protectMarkup {
			out[i] = restoreProtected(t.Text, markers[i])
		}
	}
	return out, nil
}

// translateDocument translates a long text piece by piece and puts it back
// together in the original layout. With --protect the text is protected as a
// whole before it is split, so a protected span never straddles two pieces.
func translateDocument(ctx context.Context, client *deepl.Client, opts *deepl.TextOptions, text string) (string, error) {
	var markers []string
	if protectMarkup {
		opts.SetTagHandling(deepl.TagHandlingXML)
		text, markers = placeholder.Protect(text)
	}

	chunks := chunker.Split(text, 0)
	if len(chunks) == 0 {
		return "", fmt.Errorf("input is empty")
	}
	logger.Debug().Int("chunks", len(chunks)).Int("bytes", len(text)).Int("protected", len(markers)).Msg("input split")

	res, err := translateAll(ctx, client, opts, chunker.Texts(chunks))
	if err != nil {
		return "", describeError(err)
	}
	reportDetected(res)

	translated := make([]string, len(res))
	for i, t := range res {
		translated[i] = t.Text
	}
	out := chunker.Join(chunks, translated)
	if protectMarkup {
		out = restoreProtected(out, markers)
	}
	return out, nil
}

func restoreProtected(text string, markers []string) string {
	if missing := placeholder.Validate(text, markers); len(missing) > 0 {
		logger.Warn().Ints("missing_markers", missing).Msg("protected spans lost in translation")
	}
	return placeholder.Restore(text, markers)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return data, nil
}

func reportDetected(res []deepl.Translation) {
	if !showDetected || len(res) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "Detected source language: %s\n", res[0].DetectedSourceLanguage)
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to translate, - for stdin")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default stdout)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code (required)")

	translateCmd.Flags().StringVar(&formality, "formality", "", "more, less, prefer_more or prefer_less")
	translateCmd.Flags().StringVar(&glossaryID, "glossary", "", "Glossary id to apply")
	translateCmd.Flags().StringVar(&splitSentences, "split-sentences", "", "0, 1 or nonewlines")
	translateCmd.Flags().StringVar(&tagHandling, "tag-handling", "", "xml or html")
	translateCmd.Flags().BoolVar(&preserveFormatting, "preserve-formatting", false, "Keep the original formatting")
	translateCmd.Flags().BoolVar(&noOutlineDetection, "no-outline-detection", false, "Disable automatic XML structure detection")
	translateCmd.Flags().StringSliceVar(&ignoreTags, "ignore-tags", nil, "Tags whose content is not translated")
	translateCmd.Flags().StringSliceVar(&splittingTags, "splitting-tags", nil, "Tags that always split sentences")
	translateCmd.Flags().StringSliceVar(&nonSplittingTags, "non-splitting-tags", nil, "Tags that never split sentences")

	translateCmd.Flags().BoolVar(&renderMarkdown, "markdown", false, "Render Markdown input to HTML before translating (default: on for .md input)")
	translateCmd.Flags().BoolVar(&protectMarkup, "protect", false, "Keep code, HTML tags and {variables} untranslated")
	translateCmd.Flags().BoolVar(&showDetected, "show-detected", false, "Print the detected source language to stderr")

	translateCmd.MarkFlagRequired("target")
}
