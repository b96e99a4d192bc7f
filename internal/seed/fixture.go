// Package seed loads a directory tree from YAML and creates it through a
// session, so seeded data goes through the same validation and cache path
// as interactive edits.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"vfs/internal/domain"
	"vfs/internal/domain/models"
	"vfs/internal/session"
)

// Fixture is a tree of directories to create.
type Fixture struct {
	Directories []Node `yaml:"directories"`
}

// Node is one directory with its files and child directories.
type Node struct {
	Name     string   `yaml:"name"`
	Files    []string `yaml:"files"`
	Children []Node   `yaml:"children"`
}

// Result counts what Apply created and what already existed.
type Result struct {
	DirectoriesCreated int
	DirectoriesExisted int
	FilesCreated       int
	FilesExisted       int
}

// Parse decodes a fixture. Unknown keys are rejected.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// LoadFile reads a fixture from path.
func LoadFile(path string) (*Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Parse(fh)
}

// Apply creates the fixture tree. Directories that already exist under the
// same parent are reused, as are files with the same name, so applying a
// fixture twice is a no-op. Apply stops at the first failure.
func Apply(ctx context.Context, s *session.Session, f *Fixture, logger *slog.Logger) (Result, error) {
	var res Result
	if err := s.Load(ctx); err != nil {
		return res, err
	}

	a := applier{s: s, logger: logger, res: &res}
	for _, n := range f.Directories {
		if err := a.node(ctx, n, nil); err != nil {
			return res, err
		}
	}
	return res, nil
}

type applier struct {
	s      *session.Session
	logger *slog.Logger
	res    *Result
}

func (a applier) node(ctx context.Context, n Node, parentID *int64) error {
	dir, err := a.directory(ctx, n.Name, parentID)
	if err != nil {
		return err
	}

	if len(n.Files) > 0 {
		if err := a.files(ctx, dir, n.Files); err != nil {
			return err
		}
	}

	for _, child := range n.Children {
		if err := a.node(ctx, child, &dir.ID); err != nil {
			return err
		}
	}
	return nil
}

func (a applier) directory(ctx context.Context, name string, parentID *int64) (models.Directory, error) {
	for _, d := range a.s.Directories() {
		if d.Name == name && models.SameParent(d.ParentID, parentID) {
			a.res.DirectoriesExisted++
			return d, nil
		}
	}

	created, err := a.s.SaveDirectory(ctx, models.DirectoryInput{Name: name, ParentID: parentID}, nil)
	if err != nil {
		return models.Directory{}, fmt.Errorf("directory %q: %w", name, err)
	}
	a.res.DirectoriesCreated++
	a.logger.Debug("seeded directory", "id", created.ID, "name", created.Name)
	return *created, nil
}

func (a applier) files(ctx context.Context, dir models.Directory, names []string) error {
	if err := a.s.RefreshFiles(ctx, dir.ID); err != nil {
		return err
	}
	loaded, _ := a.s.Cache().Get(dir.ID)

	existing := make(map[string]bool, len(loaded.Files))
	for _, f := range loaded.Files {
		existing[f.Name] = true
	}

	for _, name := range names {
		if existing[name] {
			a.res.FilesExisted++
			continue
		}
		_, err := a.s.SaveFile(ctx, models.FileInput{Name: name}, dir.ID, nil)
		if errors.Is(err, domain.ErrConflict) {
			a.res.FilesExisted++
			continue
		}
		if err != nil {
			return fmt.Errorf("file %q in %q: %w", name, dir.Name, err)
		}
		existing[name] = true
		a.res.FilesCreated++
	}
	return nil
}
