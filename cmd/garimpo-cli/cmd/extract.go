package cmd

import (
	"strings"

	"garimpo-backend/lib/scrapers/retail"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(ingestCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extracts offer data from a product url without saving it.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var extraction retail.Extraction
		res, err := client.R().
			SetContext(cmd.Context()).
			SetBody(map[string]string{"url": args[0]}).
			SetResult(&extraction).
			Post("/offers/extract")
		if err != nil {
			fail(err)
		}
		failOnApiError(res)

		renderExtraction(extraction)
	},
}

type ingestResponse struct {
	OfferId    string            `json:"offerId"`
	Duplicate  bool              `json:"duplicate"`
	Extraction retail.Extraction `json:"extraction"`
	Warnings   []string          `json:"warnings"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <url>",
	Short: "Extracts an offer and saves it to the catalog.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var result ingestResponse
		res, err := client.R().
			SetContext(cmd.Context()).
			SetBody(map[string]string{"url": args[0]}).
			SetResult(&result).
			Post("/offers/ingest")
		if err != nil {
			fail(err)
		}
		failOnApiError(res)

		t := newTable()
		t.AppendRow(table.Row{"Offer", result.OfferId})
		t.AppendRow(table.Row{"Duplicate", result.Duplicate})
		for _, warning := range result.Warnings {
			t.AppendRow(table.Row{"Warning", warning})
		}
		t.Render()

		renderExtraction(result.Extraction)
	},
}

func renderExtraction(e retail.Extraction) {
	t := newTable()
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Status", e.Status},
		{"Source", e.Source},
		{"Title", e.Title},
		{"Price", formatPrice(e.Price, e.Currency)},
		{"Original", formatPrice(e.OriginalPrice, e.Currency)},
		{"Discount", e.Discount},
		{"Installments", e.Installments},
		{"Images", strings.Join(e.Images, "\n")},
	})
	if e.Note != "" {
		t.AppendRow(table.Row{"Note", e.Note})
	}
	t.Render()
}
