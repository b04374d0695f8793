// Package prompts contains the LLM prompt text used by the
// conversation orchestrator.
//
// Prompt text is Go code rather than config files because it is program
// logic: it benefits from compile-time embedding and can be validated by
// tests. User-facing configuration lives in config.yaml; this package
// holds the instructions we send to the model at each workflow step.
package prompts
