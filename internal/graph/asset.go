package graph

// Asset is one resolved module.
type Asset struct {
	// ID is unique within a graph and assigned in discovery order from 0.
	ID int
	// AbsolutePath is the canonical filesystem location of the source.
	AbsolutePath string
	// Code is the lowered source text produced by the transformer.
	Code string
	// Specifiers lists the module's import specifiers in declaration order,
	// duplicates preserved.
	Specifiers []string
	// Mapping resolves each entry of Specifiers to the ID of the Asset it
	// refers to. Populated once, while the graph is being built.
	Mapping map[string]int
}
