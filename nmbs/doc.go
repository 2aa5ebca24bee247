// Package nmbs talks to the NMBS data relay: a paginated JSON API over
// the static schedule tables plus a single realtime feed endpoint.
//
// Static endpoints page with a {data, meta} envelope; the client walks
// pages until the envelope says it is done and caches the combined
// result on disk. The realtime endpoint is never cached.
package nmbs
