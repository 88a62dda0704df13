package ai

import "github.com/poiesic/jobmatch/core"

// JobDocument is the text submitted to compute a listing embedding.
type JobDocument struct {
	ID          core.ID
	Description string
}

// UserDocument is the skill set submitted to compute a profile embedding.
type UserDocument struct {
	ID     core.ID
	Skills []string
}

// RecommendRequest carries a user vector and the candidate listings to rank.
// JobIDs and JobEmbeddings are parallel slices.
type RecommendRequest struct {
	UserID        core.ID
	UserEmbedding []float32
	JobIDs        []core.ID
	JobEmbeddings [][]float32
	TopK          int
}

// Recommendation is one ranked candidate.
type Recommendation struct {
	JobID core.ID
	Score float64
}
