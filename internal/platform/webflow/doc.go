// Package webflow is the client for the Webflow CMS v2 API.
//
// HTTPClient owns its transport for the lifetime of one unit of work and
// must be closed by the caller. Only rate-limit responses are retried, with
// capped exponential backoff; every other failure is returned on the first
// attempt. MockClient serves canned items for local development and tests.
package webflow
