// Package api implements the HTTP status and control API and the preview
// WebSocket stream for Gray Logic Show.
//
// This package provides:
//   - Read endpoints for device threads, controllers, preview frames,
//     instrumentation, scheduled effects and the journal
//   - Control endpoints (pause/resume devices, filter evaluation, effect
//     scheduling) guarded by JWT bearer tokens
//   - A WebSocket hub that relays preview frames to subscribed clients
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Security
//
// Control routes require an HS256 token signed with security.jwt.secret and
// carrying the operator role. Tokens are minted with IssueToken (the
// grayshow binary exposes it as -issue-token). Read routes and the preview
// stream are open.
//
// # Graceful Degradation
//
// Every collaborator except the logger is optional. Routes whose collaborator
// is missing answer 503.
package api
