// Copyright 2022 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package ioerr

import (
	"io"

	"golang.org/x/xerrors"
)

// EOFUnexpected is a wrapper around xerrors.Errorf that converts raw
// io.EOF errors in its arguments into io.ErrUnexpectedEOF. It is used
// when decoding fixed-size structures where hitting EOF mid-structure
// is always an error.
func EOFUnexpected(format string, args ...interface{}) error {
	args2 := make([]interface{}, len(args))
	copy(args2, args)
	for i, a := range args2 {
		if e, isErr := a.(error); isErr && e == io.EOF {
			args2[i] = io.ErrUnexpectedEOF
		}
	}

	return xerrors.Errorf(format, args2...)
}
