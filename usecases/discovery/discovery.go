//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2025 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

// Package discovery resolves the ordered list of input arrays of a merge.
// The order of the list fixes the row offset of every input in the output.
package discovery

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	enterrors "github.com/chymaera96/neural-music-fp/entities/errors"
)

type Kind string

const (
	// Directory scans Root recursively for files matching Pattern.
	Directory Kind = "directory"
	// ExplicitList reads the paths from ListFile and keeps their order.
	ExplicitList Kind = "explicit_list"
	// Nested scans each direct subfolder of Root, one level deep.
	Nested Kind = "nested"
)

type Source struct {
	Kind     Kind
	Root     string
	ListFile string
	// Pattern is a doublestar glob relative to Root. Nested sources only
	// use its last path element.
	Pattern string
	// Exclude globs are matched against both the base name and the path
	// relative to Root.
	Exclude []string
	// Skip lists paths that are never inputs, e.g. the output of the run
	// itself.
	Skip []string
}

// FileList is the ordered set of input arrays.
type FileList []string

// Resolve produces the FileList for src. An empty result is reported as
// ErrNoInputsFound.
func Resolve(ctx context.Context, src Source, logger logrus.FieldLogger) (FileList, error) {
	var (
		files FileList
		err   error
	)

	switch src.Kind {
	case Directory:
		files, err = scanDirectory(ctx, src)
	case Nested:
		files, err = scanNested(ctx, src, logger)
	case ExplicitList:
		files, err = readList(src.ListFile)
	default:
		return nil, enterrors.NewInvalidConfig("unknown input source %q", src.Kind)
	}
	if err != nil {
		return nil, err
	}

	files = src.dropSkipped(files)
	if len(files) == 0 {
		return nil, errors.Wrapf(enterrors.ErrNoInputsFound, "%s source %s", src.Kind, src.location())
	}

	logger.WithField("action", "resolve_inputs").
		WithField("source", src.Kind).
		WithField("files", len(files)).
		Infof("Found %d files.", len(files))
	return files, nil
}

func (src Source) location() string {
	if src.Kind == ExplicitList {
		return src.ListFile
	}
	return src.Root
}

func (src Source) excluded(rel string) (bool, error) {
	rel = filepath.ToSlash(rel)
	for _, pattern := range src.Exclude {
		for _, candidate := range []string{path.Base(rel), rel} {
			ok, err := doublestar.Match(pattern, candidate)
			if err != nil {
				return false, errors.Wrapf(err, "exclude pattern %q", pattern)
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}

func (src Source) dropSkipped(files FileList) FileList {
	if len(src.Skip) == 0 {
		return files
	}
	skip := make(map[string]struct{}, len(src.Skip))
	for _, s := range src.Skip {
		skip[absClean(s)] = struct{}{}
	}
	out := files[:0]
	for _, f := range files {
		if _, ok := skip[absClean(f)]; !ok {
			out = append(out, f)
		}
	}
	return out
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func scanDirectory(ctx context.Context, src Source) (FileList, error) {
	var files FileList
	err := filepath.WalkDir(src.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !isFile(p, d) {
			return nil
		}

		rel, err := filepath.Rel(src.Root, p)
		if err != nil {
			return err
		}
		ok, err := doublestar.Match(src.Pattern, filepath.ToSlash(rel))
		if err != nil {
			return errors.Wrapf(err, "pattern %q", src.Pattern)
		}
		if !ok {
			return nil
		}
		if skip, err := src.excluded(rel); err != nil || skip {
			return err
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, enterrors.NewUnreadableInput(src.Root, err)
	}

	sort.Strings(files)
	return files, nil
}

func scanNested(ctx context.Context, src Source, logger logrus.FieldLogger) (FileList, error) {
	pattern := path.Base(filepath.ToSlash(src.Pattern))

	entries, err := os.ReadDir(src.Root)
	if err != nil {
		return nil, enterrors.NewUnreadableInput(src.Root, err)
	}

	var files FileList
	for _, sub := range entries {
		if !sub.IsDir() {
			logger.WithField("action", "resolve_inputs").
				WithField("path", filepath.Join(src.Root, sub.Name())).
				Debug("ignoring file outside of a subfolder")
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := filepath.Join(src.Root, sub.Name())
		inner, err := os.ReadDir(dir)
		if err != nil {
			return nil, enterrors.NewUnreadableInput(dir, err)
		}
		for _, e := range inner {
			p := filepath.Join(dir, e.Name())
			if e.IsDir() || !isFile(p, e) {
				continue
			}
			ok, err := doublestar.Match(pattern, e.Name())
			if err != nil {
				return nil, errors.Wrapf(err, "pattern %q", pattern)
			}
			if !ok {
				continue
			}
			skip, err := src.excluded(filepath.Join(sub.Name(), e.Name()))
			if err != nil {
				return nil, err
			}
			if !skip {
				files = append(files, p)
			}
		}
	}

	// os.ReadDir returns entries sorted by name, so subfolder-then-file order
	// is already deterministic.
	return files, nil
}

// isFile reports whether d is a regular file or a symlink to one.
func isFile(p string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// readList accepts a JSON array of strings or a text file with one path per
// line. Relative entries are resolved against the list file's directory.
func readList(listFile string) (FileList, error) {
	raw, err := os.ReadFile(listFile)
	if err != nil {
		return nil, enterrors.NewUnreadableInput(listFile, err)
	}

	var entries []string
	if trimmed := bytes.TrimSpace(raw); bytes.HasPrefix(trimmed, []byte("[")) {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, enterrors.NewUnreadableInput(listFile, errors.Wrap(err, "parse json list"))
		}
	} else {
		sc := bufio.NewScanner(bytes.NewReader(raw))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			entries = append(entries, line)
		}
		if err := sc.Err(); err != nil {
			return nil, enterrors.NewUnreadableInput(listFile, err)
		}
	}

	base := filepath.Dir(listFile)
	files := make(FileList, 0, len(entries))
	for _, e := range entries {
		if e == "" {
			continue
		}
		if !filepath.IsAbs(e) {
			e = filepath.Join(base, e)
		}
		files = append(files, e)
	}
	return files, nil
}
