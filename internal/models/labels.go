package models

// Label is a graph node label. Labels are interpolated into Cypher, so only
// values from ValidLabels may ever reach a query.
type Label string

const (
	LabelDocument Label = "Document"
	LabelSentence Label = "SentenceConcept"
	LabelToken    Label = "TokenConcept"
	LabelEntity   Label = "Entity"
)

// ValidLabels is the set of all node labels the graph uses.
var ValidLabels = []Label{
	LabelDocument,
	LabelSentence,
	LabelToken,
	LabelEntity,
}

// IsValid returns true if the label is recognized.
func (l Label) IsValid() bool {
	for _, v := range ValidLabels {
		if l == v {
			return true
		}
	}
	return false
}

// ParseLabel resolves a user-supplied label name. Besides the canonical names it
// accepts the short aliases used by the HTTP and CLI surfaces.
func ParseLabel(s string) (Label, bool) {
	switch s {
	case "Document", "document", "doc":
		return LabelDocument, true
	case "SentenceConcept", "sentence":
		return LabelSentence, true
	case "TokenConcept", "token":
		return LabelToken, true
	case "Entity", "entity":
		return LabelEntity, true
	}
	return "", false
}

// RelType is a structural relationship type owned by the ingestion engine.
type RelType string

const (
	RelContains RelType = "CONTAINS"
	RelChain    RelType = "CHAIN"
	RelRelated  RelType = "RELATED"
	RelLinks    RelType = "LINKS"
)

// StructuralRelTypes cannot be created through curation; only ingestion and
// entity linking write them.
var StructuralRelTypes = []RelType{RelContains, RelChain, RelRelated, RelLinks}

// IsStructural reports whether name collides with a structural relationship type.
func IsStructural(name string) bool {
	for _, v := range StructuralRelTypes {
		if string(v) == name {
			return true
		}
	}
	return false
}

// IsIdentifier reports whether s is safe to use as a Cypher relationship type
// or property name: a letter or underscore followed by letters, digits or
// underscores.
func IsIdentifier(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
