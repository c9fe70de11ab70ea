// Package speakers holds the synthetic voice catalog and the trait-based
// matcher that casts characters onto it.
//
// The catalog is the 109-speaker VCTK table; a voice's id is its row index.
// Matching scores every voice against normalized trait tokens using a fixed
// rule table (gender, age bucket, accent, region substring). Ties at the top
// score are broken uniformly at random from an injectable source; pass
// WithSeed for reproducible casting.
//
// The name helpers (CanonicalName, NamesMatch, NamesMatchStrict) are shared
// with the extraction stages so character de-duplication and voice matching
// agree on what counts as the same name.
package speakers
