package driven

// SpecCodec converts between catalog file bytes and spec dictionaries.
type SpecCodec interface {
	// Format returns the codec name, e.g. "toml".
	Format() string

	// Extensions returns the file extensions handled, including the dot.
	Extensions() []string

	// Decode parses a catalog file into a spec dictionary.
	Decode(data []byte) (map[string]any, error)

	// Encode renders a spec dictionary as catalog file bytes.
	Encode(spec map[string]any) ([]byte, error)
}
