package commands

import (
	"io"
	"medprice-backend/internal/telemetry"
	"medprice-backend/services/search"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(storesCmd)
}

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Prints the stores that are searched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		service, err := search.NewService(cfg.Stores, search.Options{}, telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		renderStores(os.Stdout, service.Stores())
		return nil
	},
}

func renderStores(w io.Writer, stores []search.StoreInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Loja", "Tipo"})
	for _, s := range stores {
		t.AppendRow(table.Row{s.Name, s.Kind})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
