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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/pdfqa/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(id), err
}

// DocumentMUS is the MUS serializer for core.Document.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (documentMUS) Size(d core.Document) int {
	return varint.Uint64.Size(uint64(d.Id)) +
		ord.String.Size(d.Name) +
		ord.String.Size(d.Path) +
		varint.Int.Size(d.Pages) +
		varint.Int.Size(d.Characters) +
		varint.Int.Size(d.Chunks) +
		ord.String.Size(d.EmbeddingModel) +
		varint.Uint64.Size(uint64(d.Fingerprint)) +
		varint.Int64.Size(d.IngestedAt.UnixNano())
}

func (documentMUS) Marshal(d core.Document, bs []byte) int {
	n := varint.Uint64.Marshal(uint64(d.Id), bs)
	n += ord.String.Marshal(d.Name, bs[n:])
	n += ord.String.Marshal(d.Path, bs[n:])
	n += varint.Int.Marshal(d.Pages, bs[n:])
	n += varint.Int.Marshal(d.Characters, bs[n:])
	n += varint.Int.Marshal(d.Chunks, bs[n:])
	n += ord.String.Marshal(d.EmbeddingModel, bs[n:])
	n += varint.Uint64.Marshal(uint64(d.Fingerprint), bs[n:])
	n += varint.Int64.Marshal(d.IngestedAt.UnixNano(), bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d core.Document, n int, err error) {
	var n1 int
	id, n1, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	n += n1
	d.Id = core.ID(id)

	if d.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.Path, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.Pages, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.Characters, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.Chunks, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.EmbeddingModel, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1

	fp, n1, err := varint.Uint64.Unmarshal(bs[n:])
	if err != nil {
		return
	}
	n += n1
	d.Fingerprint = core.ID(fp)

	nanos, n1, err := varint.Int64.Unmarshal(bs[n:])
	if err != nil {
		return
	}
	n += n1
	d.IngestedAt = time.Unix(0, nanos).UTC()
	return
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, DocumentMUS.Size(*doc))
	DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, n, err := DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &doc, nil
}
