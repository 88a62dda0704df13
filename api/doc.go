// Package api exposes the matching engine over HTTP.
//
// Routes:
//
//	GET  /health              → liveness probe
//	GET  /jobs                → eligible listings, most recent first
//	GET  /jobs/{id}           → one listing
//	GET  /jobs/search         → keyword search with optional country/city
//	POST /jobs/filter         → structured filter (categories, types, salary range)
//	GET  /jobs/recommend      → personalized recommendations for ?userId=
//	GET  /categories/counts   → eligible listings per category
//
// Paginated routes accept skip and limit query parameters. Failures of the
// recommender service never surface as errors: /jobs/recommend answers 200
// with an empty list instead.
package api
