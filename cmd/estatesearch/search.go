package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/estatesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
)

// Searchable entities.
const (
	entityProperties    = "properties"
	entityWikipedia     = "wikipedia"
	entityNeighborhoods = "neighborhoods"
)

type searchFlags struct {
	entity string
	query  string
	mode   string
	target string
	size   int
}

func newSearchCmd(a *app) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run one search and print the JSON response",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stack, closeStack, err := a.buildSearchStack()
			if err != nil {
				return err
			}
			defer closeStack()
			return runSearch(cmd.Context(), stack, f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&f.entity, "entity", entityProperties, "properties, wikipedia or neighborhoods")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "search text")
	cmd.Flags().StringVar(&f.mode, "mode", "", "text, semantic or hybrid (default depends on entity)")
	cmd.Flags().StringVar(&f.target, "search-in", "", "wikipedia target: full, chunks or summaries")
	cmd.Flags().IntVar(&f.size, "size", request.DefaultSize, "number of results")
	return cmd
}

func runSearch(ctx context.Context, stack *searchStack, f searchFlags, out io.Writer) error {
	m, ok := mode.Parse(f.mode, "")
	if !ok {
		return fmt.Errorf("unknown mode %q", f.mode)
	}

	var resp any
	switch f.entity {
	case entityProperties:
		req, err := request.NewProperty(request.PropertyParams{Query: f.query, Mode: m, Size: f.size})
		if err != nil {
			return err
		}
		if resp, err = stack.properties.Search(ctx, &req); err != nil {
			return err
		}
	case entityWikipedia:
		req, err := request.NewWikipedia(request.WikipediaParams{
			Query: f.query, Mode: m, Target: request.Target(f.target), Size: f.size,
		})
		if err != nil {
			return err
		}
		if resp, err = stack.wikipedia.Search(ctx, &req); err != nil {
			return err
		}
	case entityNeighborhoods:
		req, err := request.NewNeighborhood(request.NeighborhoodParams{Query: f.query, Mode: m, Size: f.size})
		if err != nil {
			return err
		}
		if resp, err = stack.neighborhoods.SearchWithStats(ctx, &req); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown entity %q", f.entity)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
