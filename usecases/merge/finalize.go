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

package merge

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	enterrors "github.com/chymaera96/neural-music-fp/entities/errors"
	"github.com/chymaera96/neural-music-fp/entities/shapemeta"
)

// MetaOptions say where and how the metadata sidecar is written.
type MetaOptions struct {
	// Path of the sidecar. Empty derives it from the output name.
	Path   string
	Format shapemeta.Format
}

func (o MetaOptions) path(outputPath string) string {
	if o.Path != "" {
		return o.Path
	}
	return filepath.Join(filepath.Dir(outputPath), shapemeta.DefaultName(outputPath, o.Format))
}

// Finalize makes the output durable and then records its shape next to it.
// The sidecar is only written once the data is on disk, so a sidecar always
// describes a complete array.
func Finalize(out *Output, s Schema, opts MetaOptions, logger logrus.FieldLogger) (shapemeta.Meta, error) {
	if err := out.Close(); err != nil {
		return shapemeta.Meta{}, err
	}
	logger.WithField("action", "finalize").
		WithField("path", out.Path).
		WithField("shape", s.ShapeString()).
		Infof("Saved memmap to %s with shape %s", out.Path, s.ShapeString())

	// readers resolve a relative path against the sidecar, not the
	// directory this run was started from
	absPath, err := filepath.Abs(out.Path)
	if err != nil {
		return shapemeta.Meta{}, enterrors.NewWrite(out.Path, err)
	}
	meta := shapemeta.Meta{
		Path:  absPath,
		Shape: s.Shape(),
		DType: s.DType.Str(),
	}
	metaPath := opts.path(out.Path)
	if err := shapemeta.Save(metaPath, meta, opts.Format); err != nil {
		return shapemeta.Meta{}, enterrors.NewWrite(metaPath, err)
	}
	logger.WithField("action", "finalize").
		WithField("path", metaPath).
		WithField("format", opts.Format).
		Infof("Shape written to %s", metaPath)
	return meta, nil
}
