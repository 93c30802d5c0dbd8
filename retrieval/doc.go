// Package retrieval implements hybrid document retrieval.
//
// A query fans out to two concurrent searches, keyword matching over the
// structured store and cosine similarity over stored embeddings. The fuse
// step merges both hit lists: documents found by both sources get the mean
// of their scores and a hybrid mark, the merged list is sorted by fused
// score, and an optional cross-encoder reranker gets the final say on
// ordering. One search source failing degrades the run to a partial result;
// both failing aborts it.
package retrieval
