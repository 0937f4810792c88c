package service

import (
	"fmt"

	"smallchain/internal/pipeline"
	"smallchain/internal/prompt"
)

// Default RAG prompt; its placeholders match the branch names RAGChain uses.
const DefaultRAGTemplate = `Answer the question based only on the following context:
{context}

Question: {question}`

// RAGChain builds FanOut{context: retriever, question: passthrough} | template | generator.
// The template is checked against the fan-out's branch names up front.
func RAGChain(retriever, generator pipeline.Stage, tpl *prompt.Template) (pipeline.Stage, error) {
	inputs := pipeline.FanOut(map[string]pipeline.Stage{
		"context":  retriever,
		"question": pipeline.Passthrough(),
	})
	if err := tpl.CheckInputs(inputs.Names()); err != nil {
		return nil, fmt.Errorf("rag chain: %w", err)
	}
	return pipeline.Then(inputs, tpl, generator), nil
}
