package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maraichr/ontograph/internal/app"
	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/ontology"
)

var ontologiesOutput string

var ontologiesCmd = &cobra.Command{
	Use:   "ontologies",
	Short: "Inspect the ontology registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var ontologiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the ontologies the preferred backend holds",
	RunE:  runOntologiesList,
}

func init() {
	ontologiesListCmd.Flags().StringVarP(&ontologiesOutput, "output", "o", "default", "Output format: default or jsonl")
	ontologiesCmd.AddCommand(ontologiesListCmd)
}

func runOntologiesList(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close(context.Background())

	return printOntologies(cmd.OutOrStdout(), ontologiesOutput, p.Registry.List())
}

func printOntologies(w io.Writer, format string, list []*ontology.Ontology) error {
	switch format {
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, o := range list {
			if err := enc.Encode(ingestion.OntologySummary(o, false)); err != nil {
				return err
			}
		}
		return nil
	case "default":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tIRI\tTITLE\tVERSION\tTRIPLES")
		for _, o := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", o.ID, o.IRI, o.Title, o.Version, o.Graph.Len())
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
