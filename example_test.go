package embedstore_test

import (
	"bytes"
	"fmt"
	"log"

	"github.com/hupe1980/embedstore"
	"github.com/hupe1980/embedstore/storage"
	"github.com/hupe1980/embedstore/vocab"
)

func newExample() *embedstore.Embeddings {
	v, err := vocab.NewSimpleVocab([]string{"man", "king", "woman", "queen", "apple"})
	if err != nil {
		log.Fatal(err)
	}
	s, err := storage.NewNdArrayFromRows([][]float32{
		{1, 0, 0, 0},
		{1, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 1, 1, 0},
		{0, 0, 0, 1},
	})
	if err != nil {
		log.Fatal(err)
	}
	e, err := embedstore.New(v, s, storage.ComputeNorms(s, v.WordsLen()), nil)
	if err != nil {
		log.Fatal(err)
	}
	return e
}

func ExampleEmbeddings_Analogy() {
	e := newExample()
	defer e.Close()

	results, err := e.Analogy("man", "king", "woman", 1)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s %.2f\n", results[0].Word, results[0].Similarity)
	// Output: queen 1.00
}

func ExampleEmbeddings_EmbeddingOrDefault() {
	e := newExample()
	defer e.Close()

	vec, _ := e.EmbeddingOrDefault("pear", embedstore.DefaultFill(0))
	fmt.Println(vec)
	// Output: [0 0 0 0]
}

func ExampleEmbeddings_WriteTo() {
	e := newExample()
	defer e.Close()
	if err := e.SetMetadataTOML("corpus = \"toy\"\n"); err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		log.Fatal(err)
	}

	loaded, err := embedstore.Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		log.Fatal(err)
	}
	defer loaded.Close()

	md, _ := loaded.Metadata()
	fmt.Println(loaded.Len(), loaded.Dims(), md["corpus"])
	// Output: 5 4 toy
}
