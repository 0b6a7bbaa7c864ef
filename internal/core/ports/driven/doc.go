// Package driven lists what the core needs from the outside world.
//
// Ingestion needs a Fetcher, an Extractor (which uses a Classifier), a
// PostProcessorPipeline, an EmbeddingService and a DocumentStore. Answering
// adds GenerationProviders and, optionally, a PromptStore. Sources come from
// a SourceStore.
//
// Metrics, PromptStore and SchedulerStore may be nil. A nil Metrics records
// nothing, a nil PromptStore means the built-in prompts are used, and without
// a SchedulerStore tasks start from a fresh state on every run.
//
// Only domain may be imported here.
package driven
