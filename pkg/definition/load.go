package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/ritzau/infra-diagrams/pkg/logging"
)

// IsDefinitionFile reports whether path has a definition file extension.
func IsDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".hcl":
		return true
	}
	return false
}

// LoadFile parses one definition file, choosing the syntax by extension.
func LoadFile(path string) ([]*Definition, error) {
	var (
		defs []*Definition
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		defs, err = parseYAML(data, path)
	case ".hcl":
		defs, err = parseHCL(hclparse.NewParser(), path)
	default:
		return nil, fmt.Errorf("unsupported definition file %s", path)
	}
	if err != nil {
		return nil, err
	}

	for i, d := range defs {
		if d == nil {
			return nil, fmt.Errorf("%s: diagram %d is empty", path, i+1)
		}
		d.Source = path
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

// Load reads every definition file under the given paths. Directories are
// walked recursively. Two diagrams with the same artifact name are rejected.
func Load(paths ...string) ([]*Definition, error) {
	files, err := collect(paths)
	if err != nil {
		return nil, err
	}

	var all []*Definition
	names := make(map[string]string)
	for _, f := range files {
		defs, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		for _, d := range defs {
			if prev, dup := names[d.FileName()]; dup {
				return nil, fmt.Errorf("diagram name %q defined in both %s and %s", d.FileName(), prev, f)
			}
			names[d.FileName()] = f
		}
		logging.Debug("loaded definition file", "path", f, "diagrams", len(defs))
		all = append(all, defs...)
	}
	return all, nil
}

func collect(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && path != p && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if !d.IsDir() && IsDefinitionFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func parseYAML(data []byte, path string) ([]*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", path, err)
	}
	return f.Diagrams, nil
}

func parseHCL(parser *hclparse.Parser, path string) ([]*Definition, error) {
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var f File
	diags = gohcl.DecodeBody(hclFile.Body, nil, &f)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	return f.Diagrams, nil
}
