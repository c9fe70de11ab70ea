// Package extraction implements the three pipeline stages that turn chapter
// paragraphs into a cast list: CharacterExtraction discovers characters and
// their voice-relevant traits, DialogExtraction attributes quoted speech, and
// VoiceProfileAssignment asks for a synthesis profile per character.
//
// Every stage walks paragraph-aligned segments (or characters) in order,
// checks for cancellation before each inference call, and tolerates
// unusable replies: an empty or malformed completion contributes nothing for
// that segment instead of failing the run. Failures of the inference call
// itself are returned so the orchestrator can fail the stage and keep the
// previous checkpoint.
//
// Replies are decoded in three steps. ExtractJSONObject isolates the first
// balanced {...} span, jsonrepair fixes near-JSON (trailing commas, single
// quotes, comments), and each item is validated against a JSON schema before
// it is decoded into a typed struct. Items that fail validation are dropped
// individually.
package extraction
