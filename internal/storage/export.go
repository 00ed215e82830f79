package storage

import (
	"encoding/json"
	"io"
	"os"
)

// ExportJSON writes a run as indented JSON.
func ExportJSON(w io.Writer, run *Run) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(run)
}

// ExportJSONFile writes a run as indented JSON to path.
func ExportJSONFile(path string, run *Run) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(file, run); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
