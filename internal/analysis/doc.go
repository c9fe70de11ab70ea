// Package analysis holds the data model accumulated by the extraction
// pipeline: the per-chapter Context, the Character records discovered in it,
// and the VoiceProfile each character is eventually given.
package analysis
