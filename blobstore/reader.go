package blobstore

import (
	"context"
	"io"
)

// NewReader returns a sequential reader over the whole blob. Closing it
// closes the range stream and the blob.
func NewReader(ctx context.Context, b Blob) (io.ReadCloser, error) {
	if b.Size() == 0 {
		return &blobReader{blob: b}, nil
	}
	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	return &blobReader{blob: b, rc: rc}, nil
}

type blobReader struct {
	blob Blob
	rc   io.ReadCloser
}

func (r *blobReader) Read(p []byte) (int, error) {
	if r.rc == nil {
		return 0, io.EOF
	}
	return r.rc.Read(p)
}

func (r *blobReader) Close() error {
	var err error
	if r.rc != nil {
		err = r.rc.Close()
	}
	if cerr := r.blob.Close(); err == nil {
		err = cerr
	}
	return err
}
