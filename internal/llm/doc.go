// Package llm connects the extraction engine to language model providers.
// It supports a local Ollama server (the default), OpenAI-compatible chat
// endpoints, Anthropic and Gemini, with rate limiting, response cleaning and
// coercion of model output into extraction results.
package llm
