// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/pdfqa/core"
)

// Artifact file names inside the index directory.
const (
	IndexFile  = "index.bin"
	ChunksFile = "chunks.bin"
)

const (
	indexMagic    = "pdfqa/index"
	chunksMagic   = "pdfqa/chunks"
	formatVersion = 1
)

// header is the common prefix of both artifacts.
type header struct {
	magic       string
	version     int
	fingerprint core.ID
}

func (h header) size() int {
	return ord.String.Size(h.magic) +
		varint.Int.Size(h.version) +
		varint.Uint64.Size(uint64(h.fingerprint))
}

func (h header) marshal(bs []byte) int {
	n := ord.String.Marshal(h.magic, bs)
	n += varint.Int.Marshal(h.version, bs[n:])
	n += varint.Uint64.Marshal(uint64(h.fingerprint), bs[n:])
	return n
}

func unmarshalHeader(bs []byte, magic string) (header, int, error) {
	var h header
	m, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return h, 0, err
	}
	if m != magic {
		return h, 0, fmt.Errorf("unexpected magic %q", m)
	}
	h.magic = m

	v, n1, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return h, 0, err
	}
	n += n1
	if v != formatVersion {
		return h, 0, fmt.Errorf("unsupported format version %d", v)
	}
	h.version = v

	fp, n1, err := varint.Uint64.Unmarshal(bs[n:])
	if err != nil {
		return h, 0, err
	}
	h.fingerprint = core.ID(fp)
	return h, n + n1, nil
}

// marshalVectors encodes the index.bin payload.
func marshalVectors(ix *Index) []byte {
	h := header{magic: indexMagic, version: formatVersion, fingerprint: ix.fingerprint}
	size := h.size() +
		ord.String.Size(ix.model) +
		varint.Int.Size(ix.dimension) +
		varint.Int.Size(len(ix.vectors))
	for _, v := range ix.vectors {
		for _, f := range v {
			size += raw.Float32.Size(f)
		}
	}

	bs := make([]byte, size)
	n := h.marshal(bs)
	n += ord.String.Marshal(ix.model, bs[n:])
	n += varint.Int.Marshal(ix.dimension, bs[n:])
	n += varint.Int.Marshal(len(ix.vectors), bs[n:])
	for _, v := range ix.vectors {
		for _, f := range v {
			n += raw.Float32.Marshal(f, bs[n:])
		}
	}
	return bs[:n]
}

type vectorsPayload struct {
	fingerprint core.ID
	model       string
	dimension   int
	vectors     [][]float32
}

func unmarshalVectors(bs []byte) (vectorsPayload, error) {
	var p vectorsPayload
	h, n, err := unmarshalHeader(bs, indexMagic)
	if err != nil {
		return p, err
	}
	p.fingerprint = h.fingerprint

	model, n1, err := ord.String.Unmarshal(bs[n:])
	if err != nil {
		return p, err
	}
	n += n1
	p.model = model

	dim, n1, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return p, err
	}
	n += n1
	count, n1, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return p, err
	}
	n += n1

	if dim <= 0 || count <= 0 {
		return p, fmt.Errorf("invalid shape %dx%d", count, dim)
	}
	if (len(bs)-n)/4 < dim*count {
		return p, fmt.Errorf("truncated vectors: want %d floats", dim*count)
	}
	p.dimension = dim

	p.vectors = make([][]float32, count)
	for i := range p.vectors {
		v := make([]float32, dim)
		for j := range v {
			f, n1, err := raw.Float32.Unmarshal(bs[n:])
			if err != nil {
				return p, err
			}
			n += n1
			v[j] = f
		}
		p.vectors[i] = v
	}
	return p, nil
}

// marshalChunks encodes the chunks.bin payload.
func marshalChunks(ix *Index) []byte {
	h := header{magic: chunksMagic, version: formatVersion, fingerprint: ix.fingerprint}
	size := h.size() + varint.Int.Size(len(ix.chunks))
	for _, c := range ix.chunks {
		size += ord.String.Size(c)
	}

	bs := make([]byte, size)
	n := h.marshal(bs)
	n += varint.Int.Marshal(len(ix.chunks), bs[n:])
	for _, c := range ix.chunks {
		n += ord.String.Marshal(c, bs[n:])
	}
	return bs[:n]
}

func unmarshalChunks(bs []byte) (core.ID, []string, error) {
	h, n, err := unmarshalHeader(bs, chunksMagic)
	if err != nil {
		return 0, nil, err
	}
	count, n1, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return 0, nil, err
	}
	n += n1
	if count <= 0 || count > len(bs)-n {
		return 0, nil, fmt.Errorf("invalid chunk count %d", count)
	}

	chunks := make([]string, count)
	for i := range chunks {
		c, n1, err := ord.String.Unmarshal(bs[n:])
		if err != nil {
			return 0, nil, err
		}
		n += n1
		chunks[i] = c
	}
	return h.fingerprint, chunks, nil
}

// writeArtifacts persists ix into dir. Each file is written to a temporary
// name and renamed into place; index.bin is renamed last.
func writeArtifacts(dir string, ix *Index) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, ChunksFile), marshalChunks(ix)); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, IndexFile), marshalVectors(ix))
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// readArtifacts loads the index persisted in dir. It returns an error wrapping
// os.ErrNotExist when index.bin is absent.
func readArtifacts(dir string) (*Index, error) {
	vecData, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, err
	}
	chunkData, err := os.ReadFile(filepath.Join(dir, ChunksFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}

	vp, err := unmarshalVectors(vecData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptIndex, IndexFile, err)
	}
	fp, chunks, err := unmarshalChunks(chunkData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptIndex, ChunksFile, err)
	}
	if fp != vp.fingerprint {
		return nil, fmt.Errorf("%w: fingerprint mismatch between %s and %s", ErrCorruptIndex, IndexFile, ChunksFile)
	}
	if len(chunks) != len(vp.vectors) {
		return nil, fmt.Errorf("%w: %d chunks for %d vectors", ErrCorruptIndex, len(chunks), len(vp.vectors))
	}
	if Fingerprint(vp.model, chunks) != vp.fingerprint {
		return nil, fmt.Errorf("%w: fingerprint does not match contents", ErrCorruptIndex)
	}

	return &Index{
		chunks:      chunks,
		vectors:     vp.vectors,
		model:       vp.model,
		dimension:   vp.dimension,
		fingerprint: vp.fingerprint,
	}, nil
}
