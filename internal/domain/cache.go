package domain

// EnrichmentCache maps a normalized title key to an enrichment record.
// A stored nil value is a confirmed miss.
type EnrichmentCache interface {
	Lookup(key string) (*Enrichment, bool)
	Store(key string, e *Enrichment)
	Save() error
	Len() int
}
