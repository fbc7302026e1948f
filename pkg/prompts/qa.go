// Package prompts holds the prompt builders used for question answering,
// graph query generation, community summarization and graph extraction.
// Each builder returns the message list to hand to an llm.Client.
package prompts

import (
	"fmt"
	"strings"

	"github.com/soundprediction/graphista/pkg/types"
)

const (
	// RoleSystem mirrors llm.RoleSystem without importing the client package.
	RoleSystem types.Role = "system"
	// RoleUser mirrors llm.RoleUser.
	RoleUser types.Role = "user"
)

// QuestionAnswering builds the grounded QA prompt: answer only from the
// provided context, admit ignorance otherwise.
func QuestionAnswering(context, question string) []types.Message {
	system := `You are a helpful virtual assistant.
Your task is to provide a relevant and precise answer to the user's question, given context information.
Do not make things up or add any information on your own.
If the context is not relevant to the user's question, just say that you don't know.
Maintain the core information from the context.`

	user := fmt.Sprintf("Context: %s\nQuestion: %s\nHelpful Answer:", context, question)

	return []types.Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}

// SubgraphQuestionAnswering builds the QA prompt for contexts assembled from
// a community report, its subgraph, its chunks and their mentioned entities.
func SubgraphQuestionAnswering(context, question string) []types.Message {
	system := `You are a helpful virtual assistant.
Your task is to provide a relevant and precise answer to the user's question, given context information from a Knowledge Graph.

In the context you will find:
* one or more SUMMARY OF COMMUNITY CHUNKS;
* the COMMUNITY GRAPH represented as a list of dictionaries;
* the CHUNKS in that community;
* the MENTIONED ENTITIES in each chunk.

Do not make things up or add any information on your own.
If the context is not relevant to the user's question, just say that you don't know.
Maintain the core information from the context.`

	user := fmt.Sprintf("Context: %s\nQuestion: %s\nHelpful Answer:", context, question)

	return []types.Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}

// Rephrase builds the prompt that rewrites a user question to match the
// graph's schema vocabulary before query generation.
func Rephrase(labels, relationships []string, question string) []types.Message {
	system := `Your task is to rephrase a user's question based on the schema of a Graph Database that will be given to you. Such schema is made of node labels and relationships available in the Graph.

Remember that in a Knowledge Graph there are Documents and Chunks.
* a node with label ` + "`Document`" + ` always has a property ` + "`filename`" + ` (every Document has a name);
* a node with label ` + "`Chunk`" + ` is connected via a ` + "`PART_OF`" + ` relationship to a node with the ` + "`Document`" + ` label (Chunks are pieces of text coming from a Document);
* a node with label ` + "`Chunk`" + ` always has a ` + "`text`" + ` property;
* a node with label ` + "`Chunk`" + ` is usually connected to another node with label ` + "`Chunk`" + ` by a ` + "`NEXT`" + ` relationship (Chunks are ordered in a sequential order);
* a node with label ` + "`Chunk`" + ` might be connected to other nodes in the Graph by a ` + "`MENTIONS`" + ` relationship (text in Chunks might mention some relevant entities).

Do not mention anything else, just rephrase the question from the user to be as coherent as possible with the schema of the graph.
Do not make things up or add any information on your own.`

	user := fmt.Sprintf(
		"AVAILABLE NODE LABELS: %s\nAVAILABLE RELATIONSHIPS: %s\nQUESTION: %s\n\nREPHRASED_QUESTION:",
		strings.Join(labels, ", "), strings.Join(relationships, ", "), question)

	return []types.Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}

// GraphQuery builds the prompt that turns a natural-language question into a
// single read-only Cypher statement against the given schema.
func GraphQuery(labels, relationships []string, question string) []types.Message {
	system := `Task: generate a Cypher statement to query a graph database.

Instructions:
* Use only the provided node labels and relationship types from the schema.
* Do not use any labels or relationship types not listed.
* Return only the Cypher statement, with no backticks, commentary or explanation.
* The statement must be read-only: never use CREATE, MERGE, DELETE, SET, REMOVE, DROP or CALL procedures that write.
* Prefer small result sets: add a LIMIT clause when returning nodes.`

	user := fmt.Sprintf(
		"NODE LABELS: %s\nRELATIONSHIP TYPES: %s\nQUESTION: %s\n\nCYPHER:",
		strings.Join(labels, ", "), strings.Join(relationships, ", "), question)

	return []types.Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}

// Synthesis builds the prompt that merges vector-search context and graph
// query results into one final answer.
func Synthesis(question, retrievedContext, queryResult string) []types.Message {
	system := `Your task is to synthetize a clear and helpful answer to a question.

The sources of information to use for your task come from a Vector Database and from a Graph Database.

In your task, you MUST use the context obtained from a vector search on the Vector Database and the query results given running a Cypher Query on the Graph Database.
If one of the sources is empty, just answer the question using the other source.

Do not mention anything else, just summarize a precise, clear and helpful answer.
Do not make things up or add any information on your own.`

	user := fmt.Sprintf(
		"QUESTION: %s\n\nRETRIEVED CONTEXT: %s\n\nQUERY RESULT ON GRAPH: %s\n\nANSWER:",
		question, retrievedContext, queryResult)

	return []types.Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}

// SummarizeCommunity builds the prompt that condenses a community's chunks
// into one report.
func SummarizeCommunity(context string) []types.Message {
	system := `Your task is to write a concise summary of the text passages below.
The passages all belong to the same thematic group of a Knowledge Graph, so focus on the entities, facts and relations they share.
Do not make things up or add any information on your own.
Write the summary as plain prose, without headings or bullet points.`

	user := fmt.Sprintf("Passages:\n%s\n\nSummary:", context)

	return []types.Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}
