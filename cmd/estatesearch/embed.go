package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/estatesearch/internal/domain"
)

type embedOutput struct {
	ID          string    `json:"id,omitempty"`
	Dimensions  int       `json:"dimensions"`
	Cached      bool      `json:"cached"`
	TotalTokens int       `json:"total_tokens"`
	Embedding   []float32 `json:"embedding"`
}

func newEmbedCmd(a *app) *cobra.Command {
	var id, text string

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed a document text through the cache and print the vector",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if text == "" {
				return fmt.Errorf("--text is required")
			}
			emb, closeEmb, err := buildEmbedders(a.cfg.Embedding, a.logger)
			if err != nil {
				return err
			}
			defer closeEmb()

			res, err := embedDocument(cmd.Context(), emb, id, text)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(embedOutput{
				ID:          id,
				Dimensions:  len(res.Embedding),
				Cached:      res.Cached,
				TotalTokens: res.TotalTokens,
				Embedding:   res.Embedding,
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "document id; enables the per-document cache key")
	cmd.Flags().StringVar(&text, "text", "", "document content")
	return cmd
}

// embedDocument uses the document cache when one is configured and an id is given.
func embedDocument(ctx context.Context, emb *embedders, id, text string) (domain.EmbeddingResult, error) {
	if emb.document != nil && id != "" {
		return emb.document.EmbedDocument(ctx, id, text)
	}
	return emb.base.Embed(ctx, text)
}
