package commands

import (
	"encoding/json"
	"io"
	"medprice-backend/internal/offer"
	"medprice-backend/internal/telemetry"
	"medprice-backend/services/search"
	"net/http"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	searchStores *[]string
	searchJson   *bool
	searchRemote *string
)

func init() {
	searchStores = searchCmd.Flags().StringSlice("lojas", nil, "Only search these stores, ex. --lojas drogasil,\"pague menos\".")
	searchJson = searchCmd.Flags().Bool("json", false, "Print the offers as json instead of a table.")
	searchRemote = searchCmd.Flags().String("remote", "", "Ask a running medprice-server (ex. http://localhost:8000) instead of searching locally.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <remedio> [--lojas a,b] [--json] [--remote <url>]",
	Short: "Searches every store for a medicine and prints the offers, cheapest first.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		var offers []search.OfferJSON
		if *searchRemote != "" {
			client := search.NewClient(http.DefaultClient, *searchRemote)
			res, err := client.Search(cmd.Context(), search.SearchRequest{
				Remedio: query,
				Lojas:   *searchStores,
			})
			if err != nil {
				return err
			}
			offers = res
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			service, err := search.NewService(cfg.Stores, search.Options{
				MaxConcurrency: cfg.MaxConcurrency,
			}, telemetry.SlogAPI{})
			if err != nil {
				return err
			}
			res, err := service.Search(cmd.Context(), query, *searchStores)
			if err != nil {
				return err
			}
			offers = search.ToOffersJSON(res)
		}

		return renderOffers(os.Stdout, offers, *searchJson)
	},
}

func renderOffers(w io.Writer, offers []search.OfferJSON, asJson bool) error {
	if asJson {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(offers)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Loja", "Nome", "Preço", "Link"})
	for _, o := range offers {
		t.AppendRow(table.Row{
			o.Loja,
			o.Nome,
			offer.FormatPrice(decimal.NewFromFloat(o.Preco)),
			o.Link,
		})
	}
	t.AppendFooter(table.Row{"", "", len(offers), ""})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
