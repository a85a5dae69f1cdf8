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
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/factcheck/core"
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
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

// MarshalFactRecord serializes a FactRecord to bytes.
func MarshalFactRecord(record *core.FactRecord) []byte {
	buf := make([]byte, factRecordMUS.Size(record))
	factRecordMUS.Marshal(record, buf)
	return buf
}

// UnmarshalFactRecord deserializes a FactRecord from bytes.
func UnmarshalFactRecord(data []byte) (*core.FactRecord, error) {
	record, _, err := factRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return record, nil
}

// MarshalSnapshotHeader serializes a SnapshotHeader to bytes.
func MarshalSnapshotHeader(header SnapshotHeader) []byte {
	buf := make([]byte, snapshotHeaderMUS.Size(header))
	snapshotHeaderMUS.Marshal(header, buf)
	return buf
}

// UnmarshalSnapshotHeader deserializes a SnapshotHeader from bytes.
func UnmarshalSnapshotHeader(data []byte) (SnapshotHeader, error) {
	header, _, err := snapshotHeaderMUS.Unmarshal(data)
	if err != nil {
		return SnapshotHeader{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return header, nil
}

var (
	factRecordMUS     = factRecordSer{}
	snapshotHeaderMUS = snapshotHeaderSer{}
	quantityMUS       = quantitySer{}
)

// unmarshalLength reads a collection length and checks it against the remaining bytes.
// Every element takes at least one byte, so a length larger than the rest of
// the buffer can only come from truncated or corrupt data.
func unmarshalLength(bs []byte) (length, n int, err error) {
	length, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	if length < 0 || length > len(bs)-n {
		return 0, n, ErrTruncatedData
	}
	return length, n, nil
}

type quantitySer struct{}

func (quantitySer) Marshal(q core.Quantity, bs []byte) (n int) {
	n = raw.Float64.Marshal(q.Value, bs)
	n += ord.String.Marshal(q.Unit, bs[n:])
	n += varint.Int.Marshal(q.Span[0], bs[n:])
	n += varint.Int.Marshal(q.Span[1], bs[n:])
	return n
}

func (quantitySer) Unmarshal(bs []byte) (q core.Quantity, n int, err error) {
	var n1 int
	q.Value, n, err = raw.Float64.Unmarshal(bs)
	if err != nil {
		return
	}
	q.Unit, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	q.Span[0], n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	q.Span[1], n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (quantitySer) Size(q core.Quantity) (size int) {
	size = raw.Float64.Size(q.Value)
	size += ord.String.Size(q.Unit)
	size += varint.Int.Size(q.Span[0])
	return size + varint.Int.Size(q.Span[1])
}

type factRecordSer struct{}

func (factRecordSer) Marshal(r *core.FactRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(r.ID), bs)
	n += ord.String.Marshal(r.RawText, bs[n:])
	n += ord.String.Marshal(r.NormalizedText, bs[n:])
	n += varint.Int.Marshal(len(r.Quantities), bs[n:])
	for _, q := range r.Quantities {
		n += quantityMUS.Marshal(q, bs[n:])
	}
	n += varint.Int.Marshal(len(r.Entities), bs[n:])
	for _, e := range r.Entities {
		n += ord.String.Marshal(e, bs[n:])
	}
	n += ord.String.Marshal(r.SourceDate, bs[n:])
	n += ord.String.Marshal(r.Source, bs[n:])
	n += ord.String.Marshal(r.Title, bs[n:])
	n += ord.String.Marshal(r.URL, bs[n:])
	n += varint.Int.Marshal(len(r.Vector), bs[n:])
	for _, v := range r.Vector {
		n += raw.Float32.Marshal(v, bs[n:])
	}
	return n
}

func (factRecordSer) Unmarshal(bs []byte) (r *core.FactRecord, n int, err error) {
	var (
		n1     int
		id     uint64
		length int
	)
	r = &core.FactRecord{}

	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	r.ID = core.ID(id)

	r.RawText, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	r.NormalizedText, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}

	length, n1, err = unmarshalLength(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	if length > 0 {
		r.Quantities = make([]core.Quantity, length)
		for i := range r.Quantities {
			r.Quantities[i], n1, err = quantityMUS.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return nil, n, err
			}
		}
	}

	length, n1, err = unmarshalLength(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	if length > 0 {
		r.Entities = make([]string, length)
		for i := range r.Entities {
			r.Entities[i], n1, err = ord.String.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return nil, n, err
			}
		}
	}

	for _, field := range []*string{&r.SourceDate, &r.Source, &r.Title, &r.URL} {
		*field, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}

	length, n1, err = unmarshalLength(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	if length > 0 {
		r.Vector = make([]float32, length)
		for i := range r.Vector {
			r.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return nil, n, err
			}
		}
	}
	return r, n, nil
}

func (factRecordSer) Size(r *core.FactRecord) (size int) {
	size = varint.Uint64.Size(uint64(r.ID))
	size += ord.String.Size(r.RawText)
	size += ord.String.Size(r.NormalizedText)
	size += varint.Int.Size(len(r.Quantities))
	for _, q := range r.Quantities {
		size += quantityMUS.Size(q)
	}
	size += varint.Int.Size(len(r.Entities))
	for _, e := range r.Entities {
		size += ord.String.Size(e)
	}
	size += ord.String.Size(r.SourceDate)
	size += ord.String.Size(r.Source)
	size += ord.String.Size(r.Title)
	size += ord.String.Size(r.URL)
	size += varint.Int.Size(len(r.Vector))
	for _, v := range r.Vector {
		size += raw.Float32.Size(v)
	}
	return size
}

type snapshotHeaderSer struct{}

func (snapshotHeaderSer) Marshal(h SnapshotHeader, bs []byte) (n int) {
	n = varint.Uint64.Marshal(h.Generation, bs)
	n += varint.Int.Marshal(h.Dimension, bs[n:])
	n += ord.String.Marshal(h.Metric, bs[n:])
	n += varint.Int.Marshal(h.Count, bs[n:])
	n += ord.String.Marshal(h.EmbeddingModel, bs[n:])
	n += varint.Int64.Marshal(h.BuiltAt.UnixMicro(), bs[n:])
	return n
}

func (snapshotHeaderSer) Unmarshal(bs []byte) (h SnapshotHeader, n int, err error) {
	var (
		n1    int
		micro int64
	)
	h.Generation, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	h.Dimension, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	h.Metric, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	h.Count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	h.EmbeddingModel, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	micro, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	h.BuiltAt = time.UnixMicro(micro).UTC()
	return
}

func (snapshotHeaderSer) Size(h SnapshotHeader) (size int) {
	size = varint.Uint64.Size(h.Generation)
	size += varint.Int.Size(h.Dimension)
	size += ord.String.Size(h.Metric)
	size += varint.Int.Size(h.Count)
	size += ord.String.Size(h.EmbeddingModel)
	return size + varint.Int64.Size(h.BuiltAt.UnixMicro())
}
