package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/contact-mapper/internal/classify"
	"github.com/sells-group/contact-mapper/internal/fetcher"
	"github.com/sells-group/contact-mapper/internal/htmltext"
	"github.com/sells-group/contact-mapper/internal/model"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <url>",
	Short: "Fetch one page and print the classifier verdict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := initClassifier(cfg)
		if err != nil {
			return err
		}
		f := fetcher.NewHTTPFetcher(fetcherOptions(cfg))
		defer f.CloseIdleConnections()

		report, err := classifyURL(cmd.Context(), f, c, args[0])
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, report)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

// classifyReport explains a single classifier verdict.
type classifyReport struct {
	URL     string `json:"url"`
	Name    string `json:"name"`
	Heading string `json:"heading"`
	Title   string `json:"title"`
	model.Classification
	Evidence string `json:"evidence,omitempty"`
}

func classifyURL(ctx context.Context, f fetcher.Fetcher, c *classify.Classifier, pageURL string) (*classifyReport, error) {
	resp, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page := htmltext.Extract(pageURL, resp.Text())
	name := c.PickName(page)
	report := &classifyReport{
		URL:            pageURL,
		Name:           name,
		Heading:        page.Heading,
		Title:          page.Title,
		Classification: c.Classify(name, page.RawText),
	}
	if report.Accepted {
		report.Evidence = htmltext.Truncate(page.RawText, htmltext.MaxEvidenceRunes)
	}
	return report, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
