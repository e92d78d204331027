/*
Package ports defines the interfaces that decouple wayfinder workflows and runners from
concrete collaborators.

# Key Interfaces

  - Decider: free-text decision function (routing, relevance grading, answer generation).
  - Retriever: similarity lookup over a document collection.
  - Searcher: web search.
  - TokenCounter: token accounting for prompt budgets.
  - RunStore: caller-side storage of finished run records.
  - Invoker: the engine surface consumed by runners and transport adapters.
*/
package ports
