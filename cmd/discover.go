package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contact-mapper/internal/discover"
	"github.com/sells-group/contact-mapper/internal/fetcher"
	"github.com/sells-group/contact-mapper/internal/model"
	"github.com/sells-group/contact-mapper/internal/seeds"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <domain>",
	Short: "List candidate profile URLs for one firm domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		f := fetcher.NewHTTPFetcher(fetcherOptions(cfg))
		defer f.CloseIdleConnections()

		res, err := discoverDomain(cmd.Context(), f, discoverOptions(cfg), args[0])
		if err != nil {
			return err
		}
		return printDiscovery(os.Stdout, res, asJSON)
	},
}

func init() {
	discoverCmd.Flags().Bool("json", false, "print the result as JSON")
	rootCmd.AddCommand(discoverCmd)
}

func discoverDomain(ctx context.Context, f fetcher.Fetcher, opts discover.Options, domain string) (*model.DiscoveryResult, error) {
	host := seeds.NormalizeDomain(domain)
	if host == "" {
		return nil, eris.Errorf("discover: %q is not a domain", domain)
	}
	return discover.New(f, opts).Discover(ctx, "https://"+host)
}

func printDiscovery(w io.Writer, res *model.DiscoveryResult, asJSON bool) error {
	if asJSON {
		return writeJSON(w, res)
	}

	_, _ = fmt.Fprintf(w, "method: %s (%d candidates)\n", res.Method, len(res.URLs))
	for _, u := range res.URLs {
		_, _ = fmt.Fprintln(w, u)
	}
	return nil
}
