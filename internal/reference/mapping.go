package reference

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/reshape/internal/reshape"
)

// mappingFile is the on-disk shape of a rename mapping:
//
//	rename:
//	  顧客ID: ID
//	  商品名: Name
type mappingFile struct {
	Rename map[string]string `yaml:"rename"`
}

// LoadRenameMapping reads a YAML rename mapping. An empty path returns the
// built-in reshape.DefaultRename.
func LoadRenameMapping(path string) (map[string]string, error) {
	if path == "" {
		return reshape.DefaultRename(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rename mapping: %w", err)
	}

	var mf mappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse rename mapping %s: %w", path, err)
	}
	if len(mf.Rename) == 0 {
		return nil, fmt.Errorf("rename mapping %s: no entries under \"rename\"", path)
	}
	for from, to := range mf.Rename {
		if from == "" || to == "" {
			return nil, fmt.Errorf("rename mapping %s: empty name in %q -> %q", path, from, to)
		}
	}
	return mf.Rename, nil
}
