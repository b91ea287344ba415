// Package embedstore stores word embeddings and answers similarity queries
// over them.
//
// An Embeddings value couples a vocabulary, which maps words to matrix rows,
// with a storage backend holding the rows. Vocabularies with subword
// information compose embeddings for unknown words from the rows of their
// character n-grams. Storage is either a dense matrix on the heap, a
// memory-mapped matrix, or a product-quantized matrix.
//
// # Quick Start
//
//	e, err := embedstore.Open("model.fifu", embedstore.WithMmap(true))
//	if err != nil {
//	    return err
//	}
//	defer e.Close()
//
//	vec, ok := e.Embedding("berlin")
//	results, _ := e.WordSimilarity("berlin", 10)
//	answers, _ := e.Analogy("berlin", "germany", "paris", 1)
//
// # Formats
//
// The native format is a chunked container compatible with finalfusion
// files. It can be read from local files (Open), any io.ReaderAt (Read) or
// a blobstore.BlobStore (OpenBlob), and written with Write, WriteTo and
// WriteBlob. Plain text, text with a dimensions header and binary word2vec
// files are read with ReadText, ReadTextDims and ReadWord2Vec. Zstandard and
// LZ4 compression is detected automatically.
//
// # Similarity
//
// Similarity and analogy queries rank all known words by cosine similarity
// using the norm cache when present. They require storage that exposes rows
// without copying; on quantized storage they fail with
// ErrUnsupportedOperation.
//
// # Errors
//
// Lookup, query and I/O failures match exactly one of ErrUnknownWord,
// ErrUnsupportedOperation, ErrIndexOutOfRange, ErrIO and ErrInvalidMetadata
// with errors.Is, or are an *ErrInvalidShape.
package embedstore
