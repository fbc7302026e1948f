package graph

// Cypher statements used by the Store. Everything is parameterized except
// labels and relationship types, which cannot be parameters and are passed
// through sanitizeLabel before interpolation.
const (
	createDocumentQuery = `
		CREATE (d:Document {
			filename: $filename,
			document_version: $document_version,
			source: $source
		})`

	mergePartOfQuery = `
		MATCH (d:Document {filename: $filename, document_version: $document_version})
		MATCH (c:Chunk {filename: $filename, document_version: $document_version})
		MERGE (c)-[:PART_OF]->(d)`

	mergeNextQuery = `
		MATCH (c1:Chunk {filename: $filename, document_version: $document_version})
		WITH c1
		MATCH (c2:Chunk {filename: $filename, document_version: $document_version, chunk_id: c1.chunk_id + 1})
		MERGE (c1)-[:NEXT]->(c2)`

	mergeEntityQuery = `
		MERGE (e:__Entity__ {id: $id})
		SET e += $props`

	mergeEntityWithLabelQuery = `
		MERGE (e:__Entity__ {id: $id})
		SET e += $props
		SET e:%s`

	mergeRelationshipQuery = `
		MATCH (a:__Entity__ {id: $source})
		MATCH (b:__Entity__ {id: $target})
		MERGE (a)-[r:%s]->(b)
		SET r += $props`

	mergeMentionsQuery = `
		MATCH (c:Chunk {chunk_id: $chunk_id, filename: $filename, document_version: $document_version})
		MATCH (e:__Entity__ {id: $node_id})
		MERGE (c)-[:MENTIONS]->(e)`

	upsertChunkQuery = `
		MERGE (c:Chunk {chunk_id: $chunk_id, filename: $filename, document_version: $document_version})
		SET c.text = $text,
			c.embedding = $embedding,
			c.chunk_size = $chunk_size,
			c.chunk_overlap = $chunk_overlap,
			c.embeddings_model = $embeddings_model,
			c += $metadata`

	countNodesQuery         = `MATCH (n) RETURN COUNT(n) AS nodes`
	countLabelsQuery        = `CALL db.labels() YIELD label RETURN COUNT(label) AS num_labels`
	countRelationshipsQuery = `MATCH ()-[r]-() RETURN COUNT(r) AS num_relationships`
	countDocumentsQuery     = `MATCH (n:Document) RETURN COUNT(n) AS num_docs`

	listLabelsQuery            = `CALL db.labels() YIELD label RETURN COLLECT(label) AS labels`
	listRelationshipTypesQuery = `CALL db.relationshipTypes() YIELD relationshipType RETURN COLLECT(relationshipType) AS relationship_types`

	adjacentByIdentityQuery = `
		MATCH (current:Chunk)
		WHERE current.chunk_id = $chunk_id AND current.filename = $filename
		OPTIONAL MATCH (prev:Chunk)-[:NEXT]->(current)
		OPTIONAL MATCH (current)-[:NEXT]->(next:Chunk)
		RETURN prev AS previous_chunk, current, next AS next_chunk`

	adjacentByElementIDQuery = `
		MATCH (current:Chunk)
		WHERE elementId(current) = $element_id
		OPTIONAL MATCH (prev:Chunk)-[:NEXT]->(current)
		OPTIONAL MATCH (current)-[:NEXT]->(next:Chunk)
		RETURN prev AS previous_chunk, current, next AS next_chunk`

	mentionedEntitiesQuery = `
		MATCH (c:Chunk)
		WHERE c.chunk_id = $chunk_id AND c.filename = $filename
		MATCH (c)-[:MENTIONS]->(mentioned)
		RETURN collect(mentioned) AS mentioned_nodes`

	communitySubgraphQuery = `
		MATCH (n)-[r]->(m)
		WHERE n.%s IN $community_values
			AND NOT n:Chunk
			AND NOT m:Chunk
		RETURN n, r, m`

	communityEntitiesQuery = `
		MATCH (e:__Entity__)
		WHERE e.%[1]s IS NOT NULL
		OPTIONAL MATCH (e)-[r]->(o:__Entity__)
		WHERE o.%[1]s = e.%[1]s
		WITH e.%[1]s AS community_id,
			collect(DISTINCT e.id) AS entity_ids,
			collect(DISTINCT e.name) AS entity_names,
			collect(DISTINCT type(r)) AS relationship_types
		RETURN community_id, entity_ids, entity_names, relationship_types
		ORDER BY community_id`

	communityChunksQuery = `
		MATCH (c:Chunk)
		WHERE c.%[1]s IS NOT NULL
		RETURN c.%[1]s AS community_id,
			collect(c {.chunk_id, .filename, .document_version, .text}) AS chunks
		ORDER BY community_id`

	snapshotQuery = `
		MATCH (n)
		OPTIONAL MATCH (n)-[r]->(m)
		RETURN elementId(n) AS source, labels(n) AS labels,
			type(r) AS rel_type, elementId(m) AS target`

	updateModularityQuery = `
		MERGE (m:GraphMetric {name: $name})
		SET m.value = $modularity`

	chunkCandidatesQuery = `
		MATCH (c:Chunk)
		WHERE c.embedding IS NOT NULL`

	reportCandidatesQuery = `
		MATCH (r:CommunityReport)
		WHERE r.summary_embedding IS NOT NULL`

	upsertReportQuery = `
		MERGE (r:CommunityReport {community_type: $community_type, community_id: $community_id})
		SET r.summary = $summary,
			r.summary_embedding = $summary_embedding,
			r.community_size = $community_size,
			r.created_at = $created_at`
)
