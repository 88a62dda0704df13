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


// Package search turns free-text queries and structured filters into
// deterministically ordered pages of eligible job listings.
//
// A keyword search runs in stages:
//   - the query is normalized into tokens (Normalize)
//   - closed listings and listings outside the requested location are dropped
//   - every remaining listing is scored with field weights (Score)
//   - listings scoring 0 are discarded and the rest ordered by score,
//     posting date and ID (CompareScored)
//   - the requested page is cut from the ordered result (Paginate)
//
// A query without tokens browses instead: eligible listings ordered by
// posting date. Structured filters (MatchesFilter) use the same browse order.
package search
