// Package agent implements the conversation loop that connects an LLM to the
// tool dispatcher.
//
// A Runner sends the user prompt plus the tool catalog to a provider (OpenAI
// or Anthropic), executes any tool calls the model requests, feeds the
// results back, and repeats until the model answers in plain text or the
// iteration limit is reached. Transient provider failures are retried with
// exponential backoff; permanent ones fail the run.
//
// An optional Reflector runs a self-critique pass over the final answer, and
// an optional memory.Store persists each exchange as a snapshot.
package agent
