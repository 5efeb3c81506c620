package ir

// Version constants for the expression tree encoding and the builder.
const (
	// IRVersion is the expression tree encoding version.
	IRVersion = "1"

	// BuilderVersion is the criteria builder version recorded in the catalog.
	BuilderVersion = "0.3.0"
)
