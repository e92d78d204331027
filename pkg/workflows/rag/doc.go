// Package rag implements the retrieval-routing workflow:
//
//	Router ─Retrieve_QnA→ Retrieve_QnA ─┐
//	       ─Retrieve_Device→ Retrieve_Device ─┼→ Relevance_Checker ─Yes→ Augment → Generate
//	       ─Web_Search→ Web_Search ─────┘            └─No→ Web_Search
//
// The Relevance_Checker edge is a bounded retry: after MaxRelevanceChecks visits the
// verdict is forced to "Yes", so the search loop always terminates.
package rag
