//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2024 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

//go:build linux

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// Allocate reserves size bytes of disk space for f and sets its length, so
// running out of space fails here instead of as SIGBUS on a mapped write.
func Allocate(f *os.File, size int64) error {
	if size == 0 {
		return f.Truncate(0)
	}
	err := unix.Fallocate(int(f.Fd()), 0, 0, size)
	if err == unix.EOPNOTSUPP || err == unix.ENOSYS {
		// e.g. tmpfs on old kernels; fall back to a sparse file
		return f.Truncate(size)
	}
	return err
}
