package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	offersCmd.Flags().Int64Var(&offersLimit, "limit", 20, "Maximum number of offers to list.")
	offersCmd.Flags().StringVar(&offersStatus, "status", "", "Only list offers in this lifecycle state (pending, approved).")
	rootCmd.AddCommand(offersCmd)

	historyCmd.Flags().IntVar(&historyDays, "days", 30, "How many days of history to fetch.")
	rootCmd.AddCommand(historyCmd)

	rootCmd.AddCommand(statusCmd)
}

var offersLimit int64
var offersStatus string

type offerRow struct {
	Id              string   `json:"id"`
	Source          string   `json:"source"`
	Title           string   `json:"title"`
	PriceDiscounted *float64 `json:"price_discounted"`
	Discount        string   `json:"discount"`
	Currency        string   `json:"currency"`
	Category        string   `json:"category"`
	Status          string   `json:"status"`
	CreatedAt       int64    `json:"created_at"`
}

var offersCmd = &cobra.Command{
	Use:   "offers",
	Short: "Lists the most recently saved offers.",
	Run: func(cmd *cobra.Command, args []string) {
		var rows []offerRow
		req := client.R().
			SetContext(cmd.Context()).
			SetQueryParam("limit", fmt.Sprint(offersLimit)).
			SetResult(&rows)
		if offersStatus != "" {
			req.SetQueryParam("status", offersStatus)
		}
		res, err := req.Get("/offers")
		if err != nil {
			fail(err)
		}
		failOnApiError(res)

		t := newTable()
		t.AppendHeader(table.Row{"Id", "Source", "Title", "Price", "Discount", "Category", "Status", "Created"})
		for _, row := range rows {
			t.AppendRow(table.Row{
				row.Id,
				row.Source,
				row.Title,
				formatPrice(row.PriceDiscounted, row.Currency),
				row.Discount,
				row.Category,
				row.Status,
				time.Unix(row.CreatedAt, 0).Format(time.DateTime),
			})
		}
		t.Render()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <offer-id> <status>",
	Short: "Moves an offer to another lifecycle state (pending, approved).",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := client.R().
			SetContext(cmd.Context()).
			SetBody(map[string]string{"status": args[1]}).
			Patch(fmt.Sprintf("/offers/%s/status", args[0]))
		if err != nil {
			fail(err)
		}
		failOnApiError(res)

		fmt.Printf("%s -> %s\n", args[0], args[1])
	},
}

var historyDays int

type historyResponse struct {
	History []struct {
		PriceOriginal   *float64 `json:"price_original"`
		PriceDiscounted *float64 `json:"price_discounted"`
		Discount        string   `json:"discount"`
		Currency        string   `json:"currency"`
		Source          string   `json:"source"`
		CreatedAt       int64    `json:"created_at"`
	} `json:"history"`
	Lowest    *float64 `json:"lowest"`
	Variation *struct {
		VariationPercent float64 `json:"variation_percent"`
		Trend            string  `json:"trend"`
	} `json:"variation"`
}

var historyCmd = &cobra.Command{
	Use:   "history <offer-id>",
	Short: "Prints the price history of a saved offer.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		since := time.Now().AddDate(0, 0, -historyDays).Unix()

		var result historyResponse
		res, err := client.R().
			SetContext(cmd.Context()).
			SetQueryParam("since", fmt.Sprint(since)).
			SetResult(&result).
			Get(fmt.Sprintf("/offers/%s/history", args[0]))
		if err != nil {
			fail(err)
		}
		failOnApiError(res)

		t := newTable()
		t.AppendHeader(table.Row{"Time", "Price", "Original", "Discount", "Source"})
		for _, point := range result.History {
			t.AppendRow(table.Row{
				time.Unix(point.CreatedAt, 0).Format(time.DateTime),
				formatPrice(point.PriceDiscounted, point.Currency),
				formatPrice(point.PriceOriginal, point.Currency),
				point.Discount,
				point.Source,
			})
		}
		t.Render()

		if result.Lowest != nil {
			fmt.Printf("Lowest in the last %d days: %.2f\n", historyDays, *result.Lowest)
		}
		if result.Variation != nil {
			fmt.Printf("Variation: %.2f%% (%s)\n", result.Variation.VariationPercent, result.Variation.Trend)
		}
	},
}
