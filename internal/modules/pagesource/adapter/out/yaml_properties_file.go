package out

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"pagesource/internal/modules/pagesource/domain"
)

// ReadPropertiesFile loads a source record from YAML. Keys absent from the
// file keep the host defaults; unknown keys are rejected.
func ReadPropertiesFile(path string) (domain.Properties, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Properties{}, fmt.Errorf("read properties file: %w", err)
	}
	props := domain.DefaultProperties()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&props); err != nil && !errors.Is(err, io.EOF) {
		return domain.Properties{}, fmt.Errorf("decode properties %s: %w", path, err)
	}
	return props, nil
}

// WriteProperties encodes a source record in the format ReadPropertiesFile
// accepts.
func WriteProperties(w io.Writer, props domain.Properties) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(props); err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	return enc.Close()
}
