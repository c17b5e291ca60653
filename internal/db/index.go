package db

import (
	"errors"
	"fmt"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

// DistanceCosine is cosine distance; KNN scores are 1 - cosine similarity.
const DistanceCosine DistanceMetric = "COSINE"

// VectorAlgorithm selects the indexing algorithm for vector fields in FT.CREATE.
type VectorAlgorithm string

// VectorHNSW uses the HNSW approximate nearest-neighbour graph.
const VectorHNSW VectorAlgorithm = "HNSW"

// IndexFieldType enumerates the FT schema field types tweet indexes use.
type IndexFieldType int

const (
	// IndexFieldNumeric is a numeric field.
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is a tag field.
	IndexFieldTag
	// IndexFieldText is a full-text field.
	IndexFieldText
	// IndexFieldVector is a FLOAT32 vector field.
	IndexFieldVector
)

// String returns the FT.CREATE keyword for the field type.
func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldNumeric:
		return "NUMERIC"
	case IndexFieldTag:
		return "TAG"
	case IndexFieldText:
		return "TEXT"
	case IndexFieldVector:
		return "VECTOR"
	default:
		return fmt.Sprintf("IndexFieldType(%d)", int(t))
	}
}

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name     string
	Type     IndexFieldType
	Sortable bool // NUMERIC only

	VectorAlgo        VectorAlgorithm
	VectorDim         int
	VectorDistance    DistanceMetric
	VectorM           int // 0 keeps the server default
	VectorEFConstruct int // 0 keeps the server default
}

// IndexDefinition is an FT index over hashes.
// A nil Stopwords keeps the server list; a non-nil empty slice disables stop words.
type IndexDefinition struct {
	Name      string
	Prefixes  []string
	Language  string
	Stopwords []string
	Fields    []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool, len(idx.Fields))
	vectors := 0
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field name is required at index %d", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = true

		if f.Sortable && f.Type != IndexFieldNumeric {
			return fmt.Errorf("field %s: only NUMERIC fields are sortable", f.Name)
		}
		if f.Type != IndexFieldVector {
			continue
		}
		vectors++
		if vectors > 1 {
			return errors.New("at most one vector field is supported")
		}
		if f.VectorDim <= 0 {
			return fmt.Errorf("field %s: vector requires positive DIM", f.Name)
		}
		if f.VectorM < 0 || f.VectorEFConstruct < 0 {
			return fmt.Errorf("field %s: HNSW parameters must be non-negative", f.Name)
		}
	}

	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
