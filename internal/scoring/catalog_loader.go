package scoring

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadCatalogYAML decodes and validates a catalog document. Questions without
// an explicit weight default to 1.
func LoadCatalogYAML(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	for i := range c.Questions {
		if c.Questions[i].Weight == 0 {
			c.Questions[i].Weight = 1
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadCatalogFile reads a YAML catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	c, err := LoadCatalogYAML(f)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}
