package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/jobmatch/ai"
	"github.com/poiesic/jobmatch/core"
)

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 512

// Client talks to the recommender service's JSON API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ ai.RecommenderService = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the HTTP client. Its Timeout is left untouched.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.http = client
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a recommender client for config.Host.
// Every request is bounded by config.Timeout.
//
// Returns ai.RecommenderService interface to enforce abstraction.
func NewClient(config *ai.Config, opts ...Option) (ai.RecommenderService, error) {
	return newClient(config, opts...)
}

func newClient(config *ai.Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: config.Host,
		http:    &http.Client{Timeout: config.Timeout},
		logger:  slog.Default().With("component", "recommender-client"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type ingestJobRequest struct {
	JobID       core.ID `json:"job_id"`
	Description string  `json:"description"`
}

type ingestUserRequest struct {
	UserID core.ID  `json:"user_id"`
	Skills []string `json:"skills"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

type recommendRequest struct {
	UserID        core.ID     `json:"user_id"`
	UserEmbedding []float32   `json:"user_embedding"`
	JobIDs        []core.ID   `json:"job_ids"`
	JobEmbeddings [][]float32 `json:"job_embeddings"`
	TopK          int         `json:"top_k"`
}

type recommendResponse struct {
	Recommendations []struct {
		JobID core.ID `json:"job_id"`
		Score float64 `json:"score"`
	} `json:"recommendations"`
}

// IngestJob posts a listing document to /ingest/job.
func (c *Client) IngestJob(ctx context.Context, doc ai.JobDocument) ([]float32, error) {
	var resp embeddingResponse
	if err := c.call(ctx, "/ingest/job", ingestJobRequest{JobID: doc.ID, Description: doc.Description}, &resp); err != nil {
		return nil, fmt.Errorf("ingest job %d: %w", doc.ID, err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ingest job %d: %w", doc.ID, ai.ErrEmptyEmbedding)
	}
	return resp.Embedding, nil
}

// IngestUser posts a profile's skills to /ingest/user.
func (c *Client) IngestUser(ctx context.Context, doc ai.UserDocument) ([]float32, error) {
	skills := doc.Skills
	if skills == nil {
		skills = []string{}
	}
	var resp embeddingResponse
	if err := c.call(ctx, "/ingest/user", ingestUserRequest{UserID: doc.ID, Skills: skills}, &resp); err != nil {
		return nil, fmt.Errorf("ingest user %d: %w", doc.ID, err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ingest user %d: %w", doc.ID, ai.ErrEmptyEmbedding)
	}
	return resp.Embedding, nil
}

// Recommend posts the user vector and candidates to /recommend and returns
// the service's ranking unchanged.
func (c *Client) Recommend(ctx context.Context, req ai.RecommendRequest) ([]ai.Recommendation, error) {
	if len(req.JobIDs) != len(req.JobEmbeddings) {
		return nil, ai.ErrCandidateMismatch
	}

	body := recommendRequest{
		UserID:        req.UserID,
		UserEmbedding: req.UserEmbedding,
		JobIDs:        req.JobIDs,
		JobEmbeddings: req.JobEmbeddings,
		TopK:          req.TopK,
	}
	var resp recommendResponse
	if err := c.call(ctx, "/recommend", body, &resp); err != nil {
		return nil, fmt.Errorf("recommend for user %d: %w", req.UserID, err)
	}

	results := make([]ai.Recommendation, len(resp.Recommendations))
	for i, r := range resp.Recommendations {
		results[i] = ai.Recommendation{JobID: r.JobID, Score: r.Score}
	}
	return results, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// call posts body as JSON and decodes a 2xx response into out.
func (c *Client) call(ctx context.Context, path string, body, out any) error {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("recommender call failed", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d: %s", ai.ErrServiceStatus, resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.http.Do(req)
}
