package records

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads a single parsed-file record from a JSON file and validates it.
func Load(path string) (*ParsedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var record ParsedFile
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse record %s: %w", path, err)
	}

	if err := Validate(&record); err != nil {
		return nil, fmt.Errorf("invalid record %s: %w", path, err)
	}

	return &record, nil
}

// Validate checks that a record carries the attributes the builder requires.
// A failed record is rejected as a whole; it never reaches the store.
func Validate(record *ParsedFile) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if record.Path == "" {
		return fmt.Errorf("record is missing path")
	}
	if record.Language == "" {
		return fmt.Errorf("record %s is missing language tag", record.Path)
	}

	for _, class := range record.Classes {
		if class.Name == "" || class.QualifiedName == "" {
			return fmt.Errorf("record %s has a class without name or qualified name", record.Path)
		}
		for _, method := range class.Methods {
			if err := validateFunction(record.Path, &method); err != nil {
				return err
			}
		}
	}

	for _, fn := range record.Functions {
		if err := validateFunction(record.Path, &fn); err != nil {
			return err
		}
	}

	for _, imp := range record.Imports {
		if imp.Target == "" {
			return fmt.Errorf("record %s has an import without target", record.Path)
		}
	}

	return nil
}

func validateFunction(filePath string, fn *FunctionDef) error {
	if fn.Name == "" || fn.QualifiedName == "" {
		return fmt.Errorf("record %s has a function without name or qualified name", filePath)
	}
	if fn.Complexity < 0 {
		return fmt.Errorf("record %s: function %s has negative complexity", filePath, fn.Name)
	}
	return nil
}
