// Package preflight provides readiness checks for the filesystem paths and
// the inference service voicecast depends on.
//
// The CLI "voicecast doctor" command runs RunAll and renders the results;
// "voicecast analyze" runs the directory checks before starting so a
// missing checkpoint directory fails fast instead of after the first stage.
package preflight
