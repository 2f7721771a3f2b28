// Package auth is the session and token layer for the CleanStreak habit
// tracker: registration, login, logout, refresh, password change, and
// account deletion backed by a relational store.
//
// Token model:
//   - Dual-token issuance. Short lived access tokens carry denormalized
//     profile claims for request handling without a store round trip; long
//     lived refresh tokens carry only the subject and anchor a persisted
//     Session row through their jti. Each kind signs with its own secret and
//     a type discriminator so one can never stand in for the other.
//   - Refresh rotates the session atomically: the stored refresh_token_id is
//     replaced with a single conditional update, so a replayed or raced
//     token comes back as SESSION_NOT_FOUND rather than a second valid
//     session.
//
// Session policy:
//   - One active session per user. Login and registration deactivate every
//     prior session before creating the new one. Sessions are deactivated in
//     place, never deleted, so the history stays available for auditing.
//
// Middleware:
//   - middleware/authware carries extraction (header, cookie, query),
//     validation, optional authentication, role checks, token freshness, and
//     ownership checks. middleware/ratelimit guards login, registration, and
//     password flows with fixed window counters that can refund successful
//     attempts.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther to
//     describe registration, login, refresh, and account lifecycle events.
//     Sinks run best-effort (errors are logged) so you can forward to a
//     database or queue without blocking authentication.
package auth
