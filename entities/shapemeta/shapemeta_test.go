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

package shapemeta

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chymaera96/neural-music-fp/entities/npy"
)

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "dummy_db_shape.npy", DefaultName("dummy_db.mm", FormatNPY))
	assert.Equal(t, "dummy_db_meta.json", DefaultName("/data/out/dummy_db.mm", FormatJSON))
	assert.Equal(t, "embeddings_shape.npy", DefaultName("embeddings", FormatNPY))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatNPY, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestSaveLoadNPY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db_shape.npy")
	require.NoError(t, Save(path, Meta{Path: "ignored", Shape: []int64{10, 4}, DType: "float32"}, FormatNPY))

	// the sidecar is a plain npy file numpy can np.load
	h, err := npy.ReadHeaderFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, h.Shape)
	assert.Equal(t, "<i8", h.DType.Descr())

	m, format, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FormatNPY, format)
	assert.Equal(t, []int64{10, 4}, m.Shape)
	assert.Equal(t, int64(10), m.Rows())
	assert.Equal(t, int64(4), m.RowWidth())
}

func TestSaveLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db_meta.json")
	in := Meta{Path: "/data/db.mm", Shape: []int64{1, 128}, DType: "float32"}
	require.NoError(t, Save(path, in, FormatJSON))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.ElementsMatch(t, []string{"path", "shape", "dtype"}, keys(generic))

	m, format, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)
	assert.Equal(t, in, m)
}

func TestLoadRejectsForeignNPY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.npy")
	require.NoError(t, npy.WriteFile(path, npy.Float32, []int{2}, npy.Float32sToBytes([]float32{1, 2})))

	_, _, err := Load(path)
	assert.ErrorContains(t, err, "int64")
}

func TestLoadBigEndianShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "be_shape.npy")
	be, err := npy.ParseDType(">i8")
	require.NoError(t, err)
	data := []byte{0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 9}
	require.NoError(t, npy.WriteFile(path, be, []int{2}, data))

	m, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 9}, m.Shape)
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
