// Package files persists a store as a single YAML dataset file.
package files

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/ledgerline/mdm/internal/store/memory"
	"github.com/ledgerline/mdm/pkg/constants"
	"github.com/ledgerline/mdm/pkg/errors"
	"github.com/ledgerline/mdm/pkg/rules"
	"github.com/ledgerline/mdm/pkg/store"
)

// Load reads a dataset file.
func Load(path string) (*store.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var ds store.Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &ds, nil
}

// Marshal encodes a dataset as YAML.
func Marshal(ds *store.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf, yaml.Indent(2), yaml.IndentSequence(true))
	if err := enc.Encode(ds); err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	return buf.Bytes(), nil
}

// Save writes a dataset file, replacing it atomically via a temp file in
// the same directory.
func Save(path string, ds *store.Dataset) error {
	data, err := Marshal(ds)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".mdm-*.yaml")
	if err != nil {
		return errors.WrapIO("create", dir, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return errors.WrapIO("write", tmp.Name(), err)
	}
	if err := tmp.Chmod(constants.FilePermissions); err != nil {
		tmp.Close() //nolint:errcheck
		return errors.WrapIO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("write", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// Store is an in-memory store backed by a dataset file. Changes stay in
// memory until Save is called.
type Store struct {
	*memory.Store
	path  string
	rules []rules.MdmRule
}

var _ store.Store = (*Store)(nil)

// Open loads the dataset at path. A missing file opens an empty store.
func Open(path string) (*Store, error) {
	ds, err := Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		ds = &store.Dataset{}
	}
	return &Store{
		Store: memory.NewFromDataset(ds),
		path:  path,
		rules: ds.Rules,
	}, nil
}

// Path returns the dataset file path.
func (s *Store) Path() string {
	return s.path
}

// Rules returns the rules embedded in the dataset file.
func (s *Store) Rules() []rules.MdmRule {
	return append([]rules.MdmRule(nil), s.rules...)
}

// Save writes the current contents back to the dataset file.
func (s *Store) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ds := s.Dataset()
	ds.Rules = s.Rules()
	return Save(s.path, ds)
}
