package main

import (
	"fmt"

	"github.com/dgallion1/mdledger/internal/ledger"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	var h2 string
	var full bool

	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Ingest pipe-delimited table data from a markdown file",
		Long: `Ingest structured table data into the ledger. Tables are pipe-delimited
with row ids in the first column, grouped under H2 sections. Use --full to
ingest every table, or --h2 to target sections by name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !full && h2 == "" {
				return fmt.Errorf("either --full or --h2 is required")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.ledger.Ingest(args[0], ledger.Options{Full: full, H2Target: h2})
			if err != nil {
				return err
			}

			fmt.Printf("Successfully ingested %d row(s) from %s.\n", report.RowsIngested, report.File)
			for section, count := range report.PerH2 {
				fmt.Printf("H2 %q: %d row(s) ingested.\n", section, count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&h2, "h2", "", "ingest only tables under this H2 section name")
	cmd.Flags().BoolVar(&full, "full", false, "ingest all tables in the file")
	return cmd
}

func newQueryCmd() *cobra.Command {
	var h2, typ string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query ingested table rows from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.ledger.Query(h2, typ)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("0 rows returned. Check h2 name or ingest status.")
				return nil
			}
			for _, r := range rows {
				fmt.Printf("%s | %s | %s | %s | %s | %s:%d | %s\n",
					r.RowID, r.H2, r.Text, r.Src, r.Type, r.File, r.LineNo, r.Status)
			}
			fmt.Printf("\n%d rows\n", len(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&h2, "h2", "", "filter by H2 section name")
	cmd.Flags().StringVar(&typ, "type", "", "filter by row type")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update ROW_ID TEXT",
		Short: "Update a table row in its source markdown file",
		Long: `Update a previously ingested row by id. Rewrites only the text column of
the source line and synchronizes the ledger record.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.ledger.Update(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Updated row %s in %s at line %d\n", args[0], res.File, res.LineNo)
			return nil
		},
	}
}
