// Package estatesearch is an in-process Go client for estatesearch: property, Wikipedia and
// neighborhood search over Elasticsearch without running the HTTP server.
//
//	client, _ := estatesearch.New(ctx,
//	    estatesearch.WithElasticsearch("http://localhost:9200"),
//	    estatesearch.WithEmbedder(myEmbedder),
//	)
//	res, _ := client.Properties().Search(ctx, estatesearch.PropertyQuery{
//	    Query:   "mountain views",
//	    Mode:    estatesearch.ModeHybrid,
//	    Filters: estatesearch.PropertyFilters{City: "Park City"},
//	})
//
// Text search works without an embedder; semantic and hybrid search require one.
package estatesearch
