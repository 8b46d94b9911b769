// Package gate provides an HTTP Basic Authentication gate for einlass.
//
// The gate is implemented as HTTP middleware that runs once per request:
// it decodes credentials from the Authorization header, delegates
// verification to a pluggable Authenticator, and either continues the
// pipeline or hands the request to a Challenge responder. Requests that
// carry no (or malformed) Basic credentials pass through unauthenticated,
// since resources behind the gate may themselves be public.
//
// The authenticated identity lives in a per-request Holder carried in the
// request context. The holder is cleared before gate processing and again
// after the downstream handler returns, so identities never leak across
// reused execution contexts.
package gate
