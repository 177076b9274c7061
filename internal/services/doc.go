// Package services provides the platform clients the converter runs on.
//
// # Contract
//
// Both platforms implement [Service]:
//   - [SpotifyService] : Spotify Web API, bearer-token auth via a
//     [TokenProvider], offset pagination, JSON bodies.
//   - [DeezerService] : Deezer public API, access_token request parameter,
//     index pagination, form bodies, errors reported inside 200 responses.
//
// # Request core
//
// Every call funnels through an internal client that enforces a minimum
// inter-request delay with a [golang.org/x/time/rate.Limiter], honors 429
// Retry-After with a bounded retry count before surfacing ErrRateLimited,
// refreshes the token once on 401, and retries transient transport failures
// with exponential backoff.
//
// # Playlist references
//
// [RefParser] normalizes user-supplied playlist links (canonical URL, URI
// scheme, short link, bare ID) into a validated [Ref] before any platform
// call is made.
package services
