package prompts

import (
	"fmt"
	"strings"

	"github.com/soundprediction/graphista/pkg/types"
)

// GraphExtraction builds the structured-output prompt that mines entities
// and relationships from one chunk of text. A non-empty ontology restricts
// the allowed labels and relationship types.
func GraphExtraction(inputText string, ontology *types.Ontology) []types.Message {
	allowedLabels := "any elementary type"
	labelsDescriptions := "none provided"
	allowedRelationships := "any"
	if ontology != nil {
		if len(ontology.AllowedLabels) > 0 {
			allowedLabels = strings.Join(ontology.AllowedLabels, ", ")
		}
		if len(ontology.LabelsDescriptions) > 0 {
			var pairs []string
			for label, description := range ontology.LabelsDescriptions {
				pairs = append(pairs, fmt.Sprintf("%s: %s", label, description))
			}
			labelsDescriptions = strings.Join(pairs, "; ")
		}
		if len(ontology.AllowedRelations) > 0 {
			allowedRelationships = strings.Join(ontology.AllowedRelations, ", ")
		}
	}

	system := fmt.Sprintf(`Knowledge Graph Instructions for LLM
## 1. Overview
You are a top-tier algorithm designed for extracting information in structured formats to build a knowledge graph.
- **Nodes** represent entities and concepts. They're akin to Wikipedia nodes.
- The aim is to achieve simplicity and clarity in the knowledge graph, making it accessible for a vast audience.
## 2. Labeling Nodes
- **Consistency**: Ensure you use basic or elementary types for node labels.
    - For example, when you identify an entity representing a person, always label it as **"person"**. Avoid using more specific terms like "mathematician" or "scientist".
- **Node IDs**: Never utilize integers as node IDs. Node IDs should be names or human-readable identifiers found in the text.
- **Allowed Node Labels:** %s
- **Labels Descriptions:** %s
- **Allowed Relationship Types**: %s
## 3. Handling Numerical Data and Dates
- Numerical data, like age or other related information, should be incorporated as attributes or properties of the respective nodes.
- **No Separate Nodes for Dates/Numbers**: Do not create separate nodes for dates or numerical values. Always attach them as attributes or properties of nodes.
- **Property Format**: Properties must be in a key-value format.
- **Quotation Marks**: Never use escaped single or double quotes within property values.
- **Naming Convention**: Use camelCase for property keys, e.g., `+"`birthDate`"+`.
## 4. Coreference Resolution
- **Maintain Entity Consistency**: When extracting entities, it's vital to ensure consistency.
If an entity, such as "John Doe", is mentioned multiple times in the text but is referred to by different names or pronouns (e.g., "Joe", "he"),
always use the most complete identifier for that entity throughout the knowledge graph. In this example, use "John Doe" as the entity ID.
Remember, the knowledge graph should be coherent and easily understandable, so maintaining consistency in entity references is crucial.
## 5. Strict Compliance
Adhere to the rules strictly. Non-compliance will result in termination.
## 6. Output Format
Respond with a single JSON object, no surrounding text:
{"nodes": [{"id": "...", "type": "...", "properties": {}}], "relationships": [{"source_id": "...", "target_id": "...", "type": "...", "properties": {}}]}`,
		allowedLabels, labelsDescriptions, allowedRelationships)

	user := fmt.Sprintf("## Begin Extraction!\n%s", inputText)

	return []types.Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}
