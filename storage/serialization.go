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
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/jobmatch/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	r := &reader{bs: data}
	id := core.ID(r.uint64())
	return id, r.result()
}

// MarshalListing serializes a Listing to bytes.
func MarshalListing(listing *core.Listing) []byte {
	return encode(func(e encoder) { visitListing(e, listing) })
}

// UnmarshalListing deserializes a Listing from bytes.
func UnmarshalListing(data []byte) (*core.Listing, error) {
	r := &reader{bs: data}
	listing := readListing(r)
	if err := r.result(); err != nil {
		return nil, err
	}
	return listing, nil
}

// MarshalProfile serializes a Profile to bytes.
func MarshalProfile(profile *core.Profile) []byte {
	return encode(func(e encoder) { visitProfile(e, profile) })
}

// UnmarshalProfile deserializes a Profile from bytes.
func UnmarshalProfile(data []byte) (*core.Profile, error) {
	r := &reader{bs: data}
	profile := readProfile(r)
	if err := r.result(); err != nil {
		return nil, err
	}
	return profile, nil
}

// MarshalTerm serializes a category or skill Term to bytes.
func MarshalTerm(term *core.Term) []byte {
	return encode(func(e encoder) { visitTerm(e, term) })
}

// UnmarshalTerm deserializes a Term from bytes.
func UnmarshalTerm(data []byte) (*core.Term, error) {
	r := &reader{bs: data}
	term := readTerm(r)
	if err := r.result(); err != nil {
		return nil, err
	}
	return term, nil
}

// MarshalEmbedding serializes an Embedding to bytes.
func MarshalEmbedding(embedding core.Embedding) []byte {
	return encode(func(e encoder) { visitEmbedding(e, &embedding) })
}

// UnmarshalEmbedding deserializes an Embedding from bytes.
func UnmarshalEmbedding(data []byte) (core.Embedding, error) {
	r := &reader{bs: data}
	embedding := readEmbedding(r)
	if err := r.result(); err != nil {
		return core.Embedding{}, err
	}
	return embedding, nil
}
