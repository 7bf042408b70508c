// Package pdf implements the low-level PDF object layer: tokenizing
// and parsing of objects, cross-reference tables and streams,
// compressed object streams, stream filters, and page tree traversal.
//
// The package deals only in file structure. Interpretation of content
// streams into drawing and text elements happens in the extractor
// package.
package pdf
