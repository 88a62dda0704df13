package ai

import "errors"

var (
	// ErrServiceStatus is returned when the service answers with a non-2xx status.
	ErrServiceStatus = errors.New("recommender service returned an error status")

	// ErrMalformedResponse is returned when a response body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed recommender response")

	// ErrEmptyEmbedding is returned when the service answers without a vector.
	ErrEmptyEmbedding = errors.New("empty embedding")

	// ErrCandidateMismatch is returned when JobIDs and JobEmbeddings differ in length.
	ErrCandidateMismatch = errors.New("job ids and job embeddings differ in length")
)
