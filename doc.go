// Package ledgerauth provides the authentication backend for a
// role-gated REST API: JWT issuance and verification, bcrypt password
// hashing, persistent user credentials via Bun, and Fiber handlers for
// the signup, login, refresh, email confirmation and password reset
// flows.
//
// Token kinds:
//   - Access, refresh and email-action tokens share one signing secret
//     and algorithm. A kind claim keeps them from being interchangeable;
//     every verification path checks kind alongside signature and expiry.
//
// Refresh rotation:
//   - The user record mirrors the most recently issued refresh token.
//     Presenting a verifiable token that differs from the stored one
//     revokes the stored token outright, so neither copy works again.
//
// Route protection:
//   - Protected validates the bearer access token; RequireRoles resolves
//     the caller and checks membership in the route's allow set. Both
//     are plain Fiber middleware and compose with any route group.
package ledgerauth
