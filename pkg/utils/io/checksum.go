package io

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"io"
	"os"
)

type ChecksumReader interface {
	io.Reader

	// Get Checksum calcurated from bytes have been read
	Sum() []byte
}

type MD5Reader struct {
	source io.Reader
	md5    hash.Hash
}

func NewMD5Reader(source io.Reader) ChecksumReader {
	return &MD5Reader{
		source: source,
		md5:    md5.New(),
	}
}

func (mr *MD5Reader) Read(p []byte) (int, error) {
	n, err := mr.source.Read(p)
	if 0 < n {
		mr.md5.Write(p[:n])
	}
	return n, err
}

func (mr *MD5Reader) Sum() []byte {
	return mr.md5.Sum(nil)
}

// FileMD5 returns MD5 checksum of the file content in lower hex.
//
// It is comparable with ETag of objects uploaded in a single part.
func FileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := NewMD5Reader(f)
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(r.Sum()), nil
}
