// Package client contains the client-side building blocks that talk to the
// outside world.
//
// # Overview
//
//  1. Client is the transport-agnostic contract of the media API: Upload,
//     Delete, Info, Probe, Storage and Ping. HTTPClient implements it over
//     net/http against the REST endpoints (/api/v1/upload, /api/v1/media/{id},
//     /api/v1/media/{id}/info, /storage, /health).
//  2. AgentClient posts control messages (CACHE_HISTORY, SKIP_WAITING) to the
//     offline cache agent.
//  3. InitDatabase and RunMigrations bootstrap the local SQLite database with
//     embedded goose migrations.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable, a 404 from Probe is ErrNotFound and
// any other non-2xx answer is an *APIError carrying the status and the
// server "detail" message. Match them with errors.Is / errors.As.
package client
