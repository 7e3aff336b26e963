// Package faqdex embeds the FAQ router in a Go program.
//
// A Client matches a question against a precomputed corpus by embedding
// similarity and routes it by confidence: a stored answer for close matches,
// a generated answer grounded in related records for weaker ones, and a
// fixed fallback message otherwise.
//
//	client, _ := faqdex.New(
//	    faqdex.WithCorpusFile("qa_data_with_embeddings.json"),
//	    faqdex.WithEmbedder(myEmbedder),
//	    faqdex.WithGenerator(myGenerator),
//	)
//	defer client.Close()
//
//	ans, _ := client.Answer(ctx, "Do you keep my card details?")
//	fmt.Println(ans.Text, ans.Confidence)
//
// Without a Generator, scores in the generation band return the stored answer.
package faqdex
