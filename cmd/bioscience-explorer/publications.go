package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bioscience-explorer/internal/search"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

var publicationsCmd = &cobra.Command{
	Use:     "publications [term]",
	Aliases: []string{"pubs"},
	Short:   "Search, filter, and page through publications",
	Long: `Publications loads the feed, then applies the search term, the filter
flags, and pagination in that order. The term matches title, abstract,
authors, and keywords case-insensitively; terms shorter than the configured
minimum are ignored.

Use --save to record the query and its page as YAML, and --query-file to
replay a saved query against the current dataset.`,
	RunE: runPublications,
}

func init() {
	addCriteriaFlags(publicationsCmd)
	publicationsCmd.Flags().Int("page", 1, "1-based page number")
	publicationsCmd.Flags().Int("page-size", 0, "results per page (default 50)")
	publicationsCmd.Flags().String("save", "", "write the query and results to this YAML file")
	publicationsCmd.Flags().String("query-file", "", "replay a query saved with --save")
	publicationsCmd.Flags().Bool("json", false, "output the page as JSON")
	publicationsCmd.Flags().Bool("csl", false, "output the page as CSL-JSON for reference managers")

	rootCmd.AddCommand(publicationsCmd)
}

func runPublications(cmd *cobra.Command, args []string) error {
	q, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := newService(ctx, newLogger())
	if err != nil {
		return err
	}
	defer svc.Close()

	page, err := svc.Query(ctx, q)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteQueryFile(path, q, page); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query to %s\n", path)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	asCSL, _ := cmd.Flags().GetBool("csl")
	switch {
	case asCSL:
		return search.FormatCSL(page.Data, os.Stdout)
	case asJSON:
		return search.FormatJSON(page, os.Stdout)
	default:
		search.FormatTable(page, os.Stdout)
		return nil
	}
}

// queryFromFlags builds the query from a saved file when --query-file is
// set, otherwise from the positional term and filter flags. Explicitly set
// flags override the saved query.
func queryFromFlags(cmd *cobra.Command, args []string) (search.Query, error) {
	var q search.Query
	if path, _ := cmd.Flags().GetString("query-file"); path != "" {
		qf, err := search.ReadQueryFile(path)
		if err != nil {
			return search.Query{}, err
		}
		q = qf.Query
	}

	if len(args) > 0 {
		q.Term = strings.Join(args, " ")
	}
	applyCriteriaFlags(cmd, &q.Criteria)

	if cmd.Flags().Changed("page") || q.Page == 0 {
		q.Page, _ = cmd.Flags().GetInt("page")
	}
	if cmd.Flags().Changed("page-size") {
		q.PageSize, _ = cmd.Flags().GetInt("page-size")
	} else if q.PageSize == 0 {
		q.PageSize = viper.GetInt("serve.default_page_size")
	}
	return q, nil
}

// --- shared criteria flags ---

func addCriteriaFlags(cmd *cobra.Command) {
	cmd.Flags().String("organism", "", "filter by organism (e.g. Mouse, Human, Plant)")
	cmd.Flags().String("experiment-type", "", "filter by experiment type (e.g. Microgravity, Radiation)")
	cmd.Flags().String("theme", "", "filter by research theme")
	cmd.Flags().String("date-range", "", "filter by publication year (YYYY) or \""+types.DateRangeOlder+"\"")
}

// applyCriteriaFlags overwrites the fields of c whose flags were set.
func applyCriteriaFlags(cmd *cobra.Command, c *types.Criteria) {
	fields := map[string]*string{
		"organism":        &c.Organism,
		"experiment-type": &c.ExperimentType,
		"theme":           &c.Theme,
		"date-range":      &c.DateRange,
	}
	for name, dst := range fields {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
}
