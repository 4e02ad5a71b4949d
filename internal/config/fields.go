package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	thumbsgen "github.com/giobyte8/newsroom/internal/thumbs_gen"
)

// fieldsFile is the layout of THUMBS_FIELDS_FILE:
//
//	fields:
//	  news.entry.image:
//	    sizes: ["125x125", "300x200"]
//	  news.category.icon:
//	    sizes:
//	      - {width: 64, height: 64}
type fieldsFile struct {
	Fields map[string]struct {
		Sizes []thumbsgen.Size `yaml:"sizes"`
	} `yaml:"fields"`
}

// LoadFieldsFile reads image field definitions from a YAML file.
func LoadFieldsFile(path string) (map[string][]thumbsgen.Size, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fields file %s: %w", path, err)
	}

	var parsed fieldsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse fields file %s: %w", path, err)
	}

	fields := make(map[string][]thumbsgen.Size, len(parsed.Fields))
	for name, def := range parsed.Fields {
		for _, size := range def.Sizes {
			if err := size.Validate(); err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
		}
		if err := checkDuplicates(def.Sizes); err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}

		fields[name] = def.Sizes
	}

	return fields, nil
}
