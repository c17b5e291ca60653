package tweet

import (
	"github.com/kailas-cloud/tweetdex/internal/db"
	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/domain/text"
)

const (
	indexName = domain.KeyPrefix + "tweets:idx"
	keyPrefix = domain.KeyPrefix + "tweet:"

	language = "spanish"
	scorer   = "BM25"
)

// Hash field names.
const (
	fieldText       = "text"
	fieldTextFolded = "text_folded"
	fieldCreatedAt  = "created_at"
	fieldLang       = "lang"
	fieldIsRetweet  = "is_retweet"
	fieldHasMedia   = "has_media"
	fieldEmbedding  = "embedding"
)

// candidateFields are loaded for every search hit; the embedding blob never is.
var candidateFields = []string{fieldText, fieldCreatedAt, fieldIsRetweet, fieldHasMedia}

func tweetKey(id string) string {
	return keyPrefix + id
}

// buildIndex defines the tweet index: folded text with Spanish stemming and stop words,
// sortable creation time, flag tags and an HNSW cosine index over embeddings.
// Hashes without an embedding field are simply absent from the vector index.
func buildIndex(vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	return db.NewIndex(indexName).
		Prefix(keyPrefix).
		Language(language).
		Stopwords(text.Stopwords()...).
		Text(fieldTextFolded).
		SortableNumeric(fieldCreatedAt).
		Tag(fieldLang).
		Tag(fieldIsRetweet).
		Tag(fieldHasMedia).
		VectorHNSW(fieldEmbedding, vectorDim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct).
		Build()
}
