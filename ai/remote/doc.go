// Package remote implements ai.RecommenderService as a JSON-over-HTTP client.
//
// Endpoints, all POST with JSON bodies:
//
//	/ingest/job   {job_id, description}            -> {embedding}
//	/ingest/user  {user_id, skills}                 -> {embedding}
//	/recommend    {user_id, user_embedding, job_ids,
//	               job_embeddings, top_k}           -> {recommendations: [{job_id, score}]}
//
// A non-2xx status, an undecodable body or a missing embedding is reported
// as an error wrapping ai.ErrServiceStatus, ai.ErrMalformedResponse or
// ai.ErrEmptyEmbedding.
package remote
