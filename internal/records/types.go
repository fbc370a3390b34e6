package records

// ParsedFile is the record an extraction front-end produces for one source
// file. The graph kernel consumes these records verbatim; it never parses
// source code itself.
type ParsedFile struct {
	// Path is the file path relative to the project root.
	Path string `json:"path"`

	// Language is the source language tag (e.g., "python", "go", "csharp").
	Language string `json:"language"`

	Module    *ModuleDef    `json:"module,omitempty"`
	Classes   []ClassDef    `json:"classes,omitempty"`
	Functions []FunctionDef `json:"functions,omitempty"`
	Imports   []ImportRef   `json:"imports,omitempty"`
}

// ModuleDef describes the module/package a file belongs to.
type ModuleDef struct {
	Name          string `json:"name"`
	QualifiedName string `json:"qualified_name"`
	Docstring     string `json:"docstring,omitempty"`
}

// ClassDef describes a class/type definition with its raw base-class
// reference strings. Bases are resolved to graph edges by the resolver,
// not here.
type ClassDef struct {
	Name          string        `json:"name"`
	QualifiedName string        `json:"qualified_name"`
	StartLine     int           `json:"start_line"`
	EndLine       int           `json:"end_line"`
	Docstring     string        `json:"docstring,omitempty"`
	Decorators    []string      `json:"decorators,omitempty"`
	Bases         []string      `json:"bases,omitempty"`
	Methods       []FunctionDef `json:"methods,omitempty"`
}

// FunctionDef describes a function or method definition. Complexity is
// computed by the front-end parser and stored verbatim.
type FunctionDef struct {
	Name          string    `json:"name"`
	QualifiedName string    `json:"qualified_name"`
	StartLine     int       `json:"start_line"`
	EndLine       int       `json:"end_line"`
	Complexity    int       `json:"complexity"`
	Docstring     string    `json:"docstring,omitempty"`
	Decorators    []string  `json:"decorators,omitempty"`
	ReturnType    string    `json:"return_type,omitempty"`
	Calls         []CallRef `json:"calls,omitempty"`
}

// CallRef is a raw call-site reference: the textual call target and the
// line where the call occurs.
type CallRef struct {
	Target string `json:"target"`
	Line   int    `json:"line"`
}

// ImportRef is a raw import reference.
type ImportRef struct {
	Target string `json:"target"`
	Line   int    `json:"line"`
}
