package cmd

import (
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var BaseUrl string
var client *resty.Client

var rootCmd = &cobra.Command{
	Use:   "garimpo-cli",
	Short: "Command line client for the garimpo offers service.",
}

func Execute() {
	client = resty.New().SetBaseURL(BaseUrl)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	return t
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

// failOnApiError reports the error body a non-2xx response carries.
func failOnApiError(res *resty.Response) {
	if res.IsSuccess() {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", res.Status(), res.String())
	os.Exit(1)
}

func formatPrice(v *float64, currency string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%s %.2f", currency, *v)
}
