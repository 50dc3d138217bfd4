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

package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enterrors "github.com/chymaera96/neural-music-fp/entities/errors"
)

func touch(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
}

func rel(t *testing.T, root string, files FileList) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestResolveDirectory(t *testing.T) {
	logger, hook := test.NewNullLogger()
	root := t.TempDir()
	touch(t, root,
		"b/2.npy", "a.npy", "b/1.npy", "c/d/e.npy",
		"notes.txt", "dummy_db_shape.npy", "b/old_shape.npy", "dummy_db.mm")

	files, err := Resolve(context.Background(), Source{
		Kind:    Directory,
		Root:    root,
		Pattern: "**/*.npy",
		Exclude: []string{"*_shape.npy"},
	}, logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.npy", "b/1.npy", "b/2.npy", "c/d/e.npy"}, rel(t, root, files))
	assert.Equal(t, "resolve_inputs", hook.LastEntry().Data["action"])
	assert.Equal(t, 4, hook.LastEntry().Data["files"])
}

func TestResolveDirectoryPatternAndSkip(t *testing.T) {
	logger, _ := test.NewNullLogger()
	root := t.TempDir()
	touch(t, root, "keep/x.npy", "drop/y.npy", "keep/out.npy")

	files, err := Resolve(context.Background(), Source{
		Kind:    Directory,
		Root:    root,
		Pattern: "keep/*.npy",
		Skip:    []string{filepath.Join(root, "keep", "out.npy")},
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep/x.npy"}, rel(t, root, files))
}

func TestResolveDirectoryExcludeByRelativePath(t *testing.T) {
	logger, _ := test.NewNullLogger()
	root := t.TempDir()
	touch(t, root, "train/a.npy", "val/b.npy")

	files, err := Resolve(context.Background(), Source{
		Kind:    Directory,
		Root:    root,
		Pattern: "**/*.npy",
		Exclude: []string{"val/**"},
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"train/a.npy"}, rel(t, root, files))
}

func TestResolveNested(t *testing.T) {
	logger, _ := test.NewNullLogger()
	root := t.TempDir()
	touch(t, root,
		"song_b/0001.npy", "song_a/0002.npy", "song_a/0001.npy",
		"song_a/deeper/ignored.npy", "top_level.npy", "song_b/readme.md")

	files, err := Resolve(context.Background(), Source{
		Kind:    Nested,
		Root:    root,
		Pattern: "**/*.npy",
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"song_a/0001.npy", "song_a/0002.npy", "song_b/0001.npy"}, rel(t, root, files))
}

func TestResolveExplicitList(t *testing.T) {
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	t.Run("json keeps order", func(t *testing.T) {
		list := filepath.Join(dir, "files.json")
		require.NoError(t, os.WriteFile(list, []byte(`["z.npy", "/abs/a.npy", "sub/m.npy"]`), 0o644))

		files, err := Resolve(context.Background(), Source{Kind: ExplicitList, ListFile: list}, logger)
		require.NoError(t, err)
		assert.Equal(t, FileList{
			filepath.Join(dir, "z.npy"),
			"/abs/a.npy",
			filepath.Join(dir, "sub", "m.npy"),
		}, files)
	})

	t.Run("text lines", func(t *testing.T) {
		list := filepath.Join(dir, "files.txt")
		require.NoError(t, os.WriteFile(list, []byte("# shards\nb.npy\n\n  a.npy  \n"), 0o644))

		files, err := Resolve(context.Background(), Source{Kind: ExplicitList, ListFile: list}, logger)
		require.NoError(t, err)
		assert.Equal(t, FileList{filepath.Join(dir, "b.npy"), filepath.Join(dir, "a.npy")}, files)
	})

	t.Run("broken json", func(t *testing.T) {
		list := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(list, []byte(`["a.npy",`), 0o644))

		_, err := Resolve(context.Background(), Source{Kind: ExplicitList, ListFile: list}, logger)
		assert.True(t, errors.Is(err, enterrors.ErrUnreadableInput))
	})
}

func TestResolveNoInputs(t *testing.T) {
	logger, _ := test.NewNullLogger()
	root := t.TempDir()
	touch(t, root, "only_shape.npy", "x.txt")

	_, err := Resolve(context.Background(), Source{
		Kind:    Directory,
		Root:    root,
		Pattern: "**/*.npy",
		Exclude: []string{"*_shape.npy"},
	}, logger)
	assert.True(t, errors.Is(err, enterrors.ErrNoInputsFound))

	list := filepath.Join(root, "empty.json")
	require.NoError(t, os.WriteFile(list, []byte(`[]`), 0o644))
	_, err = Resolve(context.Background(), Source{Kind: ExplicitList, ListFile: list}, logger)
	assert.True(t, errors.Is(err, enterrors.ErrNoInputsFound))
}

func TestResolveMissingRoot(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := Resolve(context.Background(), Source{
		Kind:    Directory,
		Root:    filepath.Join(t.TempDir(), "absent"),
		Pattern: "**/*.npy",
	}, logger)
	assert.True(t, errors.Is(err, enterrors.ErrUnreadableInput))
}

func TestResolveCancelled(t *testing.T) {
	logger, _ := test.NewNullLogger()
	root := t.TempDir()
	touch(t, root, "a.npy")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Resolve(ctx, Source{Kind: Directory, Root: root, Pattern: "**/*.npy"}, logger)
	assert.ErrorIs(t, err, context.Canceled)
}
