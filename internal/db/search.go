package db

// ScoreField is the alias the KNN distance is returned under.
const ScoreField = "__vector_score"

// KNNQuery is the input for vector similarity search.
// Documents without a value in Field are not part of the vector index and never match.
type KNNQuery struct {
	IndexName    string
	Field        string
	Vector       []float32
	K            int
	EFRuntime    int // HNSW EF_RUNTIME override, 0 keeps the index default
	ReturnFields []string
}

// TextQuery is the input for scored full-text search.
// Query is a pre-built query expression applied to Field.
type TextQuery struct {
	IndexName    string
	Field        string
	Query        string
	Limit        int
	Scorer       string // BM25, BM25STD, TFIDF...; empty keeps the server default
	Language     string // stemming language for query terms
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// For KNN queries Score is the similarity max(0, 1-distance).
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
