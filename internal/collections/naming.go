// Package collections derives physical Qdrant collection names from logical
// collection families and caller-supplied namespaces.
//
// A logical collection ("memories", "documents") maps to one physical
// collection per namespace. The default namespace maps to the bare logical
// name; any other namespace is sanitized and appended with an underscore:
//
//	Resolve("memories", "")                  -> "memories"
//	Resolve("memories", "Feedback-Loop")     -> "memories_feedback_loop"
//	Resolve("documents", "!!!")              -> "documents"
package collections

// Sanitize normalizes a namespace for use in a collection name.
//
// Every rune is lower-cased, every non-alphanumeric rune becomes an
// underscore, and leading/trailing underscores are trimmed. The result
// contains only [a-z0-9_]. An empty result means "no namespace".
func Sanitize(namespace string) string {
	out := make([]byte, 0, len(namespace))
	for _, r := range namespace {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			out = append(out, byte(r))
		case r >= 'A' && r <= 'Z':
			out = append(out, byte(r-'A'+'a'))
		default:
			out = append(out, '_')
		}
	}

	start, end := 0, len(out)
	for start < end && out[start] == '_' {
		start++
	}
	for end > start && out[end-1] == '_' {
		end--
	}
	return string(out[start:end])
}

// Resolve returns the physical collection name for a logical collection and
// an optional namespace. A namespace that sanitizes to empty falls back to
// the bare logical name. Resolve never fails.
func Resolve(logical, namespace string) string {
	ns := Sanitize(namespace)
	if ns == "" {
		return logical
	}
	return logical + "_" + ns
}
