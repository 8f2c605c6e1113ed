// Package connector defines the document model shared between crawl engines
// and ingestion sinks, plus the batch emission helper that feeds them.
package connector

import "context"

// Source identifies the origin system of a Document.
type Source string

// SourceWeb tags documents produced by the web crawl connector.
const SourceWeb Source = "web"

// Section is one contiguous piece of extracted content inside a Document.
type Section struct {
	Link string `json:"link"`
	Text string `json:"text"`
}

// Document is the unit of content handed to the ingestion sink. It is built
// once per successfully processed URL and never mutated afterwards.
type Document struct {
	// ID is the canonical URL of the fetched resource, unique within a run.
	ID                 string            `json:"id"`
	Sections           []Section         `json:"sections"`
	Source             Source            `json:"source"`
	SemanticIdentifier string            `json:"semantic_identifier"`
	Metadata           map[string]string `json:"metadata"`
}

// Sink accepts completed batches of documents. Emit must fully consume the
// batch before returning; the caller does not build the next batch until it
// does, which is how back-pressure toward the consumer works.
type Sink interface {
	Emit(ctx context.Context, batch []Document) error
}

// Connector is anything that produces document batches into a Sink. The crawl
// engine is one implementation; other traversal strategies can share the same
// sink and batching semantics.
type Connector interface {
	Run(ctx context.Context) error
}
