package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"codegraph/internal/graph"
)

// NodeSearcher is full-text search over graph nodes: names, qualified names
// and docstrings. Queries use bleve query-string syntax, so field scoping
// ("name:run"), wildcards and fuzzy matching come for free.
type NodeSearcher interface {
	// Search executes a query-string search, returning up to limit hits.
	Search(ctx context.Context, queryStr string, opts *SearchOptions) ([]*SearchHit, error)

	// IndexSnapshot rebuilds the index from a full graph snapshot.
	IndexSnapshot(ctx context.Context, snap *graph.Snapshot) error

	// UpdateFile applies one file's replacement incrementally: the file's
	// previous documents are deleted and its current nodes indexed.
	UpdateFile(ctx context.Context, filePath string, snap *graph.Snapshot) error

	// Close releases resources held by the searcher.
	Close() error
}

// SearchOptions narrows a search.
type SearchOptions struct {
	Limit    int    // default 15, max 100
	NodeType string // exact node-type filter, empty = any
	Language string // exact language filter, empty = any
}

// SearchHit is one scored result.
type SearchHit struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	QualifiedName string  `json:"qualified_name"`
	Type          string  `json:"type"`
	FilePath      string  `json:"file_path"`
	Score         float64 `json:"score"`
}

// nodeSearcher implements NodeSearcher over an in-memory bleve index.
type nodeSearcher struct {
	index bleve.Index
	mu    sync.RWMutex // protects index during updates

	// byFile remembers which document IDs each file contributed, so a
	// whole-file replacement can delete the stale set.
	byFile map[string][]string
}

// NewNodeSearcher creates an empty in-memory node index.
func NewNodeSearcher() (NodeSearcher, error) {
	index, err := bleve.NewMemOnly(buildNodeMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &nodeSearcher{index: index, byFile: map[string][]string{}}, nil
}

// buildNodeMapping creates the index mapping for node documents.
func buildNodeMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	// Searchable text fields use the standard analyzer.
	textMapping := bleve.NewTextFieldMapping()
	textMapping.Analyzer = "standard"
	textMapping.Store = true
	textMapping.Index = true

	// Filter fields use the keyword analyzer for exact matching.
	keywordMapping := bleve.NewTextFieldMapping()
	keywordMapping.Analyzer = "keyword"
	keywordMapping.Store = true
	keywordMapping.Index = true

	// ID is stored for retrieval but never analyzed.
	idMapping := bleve.NewTextFieldMapping()
	idMapping.Analyzer = "keyword"
	idMapping.Store = true
	idMapping.Index = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("id", idMapping)
	docMapping.AddFieldMappingsAt("name", textMapping)
	docMapping.AddFieldMappingsAt("qualified_name", textMapping)
	docMapping.AddFieldMappingsAt("docstring", textMapping)
	docMapping.AddFieldMappingsAt("file_path", textMapping)
	docMapping.AddFieldMappingsAt("type", keywordMapping)
	docMapping.AddFieldMappingsAt("language", keywordMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func nodeToDocument(node *graph.Node) map[string]interface{} {
	return map[string]interface{}{
		"id":             node.ID,
		"name":           node.Name,
		"qualified_name": node.QualifiedName,
		"docstring":      node.Docstring,
		"file_path":      node.FilePath,
		"type":           string(node.Type),
		"language":       node.Language,
	}
}

const indexBatchSize = 1000

func (s *nodeSearcher) IndexSnapshot(ctx context.Context, snap *graph.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop everything previously indexed.
	for _, ids := range s.byFile {
		batch := s.index.NewBatch()
		for _, id := range ids {
			batch.Delete(id)
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	}
	s.byFile = map[string][]string{}

	batch := s.index.NewBatch()
	for i, node := range snap.AllNodes() {
		if i%indexBatchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if err := batch.Index(node.ID, nodeToDocument(node)); err != nil {
			return fmt.Errorf("failed to index node %s: %w", node.ID, err)
		}
		s.byFile[node.FilePath] = append(s.byFile[node.FilePath], node.ID)

		if batch.Size() >= indexBatchSize {
			if err := s.index.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = s.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute final batch: %w", err)
		}
	}
	return nil
}

func (s *nodeSearcher) UpdateFile(ctx context.Context, filePath string, snap *graph.Snapshot) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for _, id := range s.byFile[filePath] {
		batch.Delete(id)
	}
	delete(s.byFile, filePath)

	for _, node := range snap.NodesByFile(filePath) {
		if err := batch.Index(node.ID, nodeToDocument(node)); err != nil {
			return fmt.Errorf("failed to index node %s: %w", node.ID, err)
		}
		s.byFile[filePath] = append(s.byFile[filePath], node.ID)
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

func (s *nodeSearcher) Search(ctx context.Context, queryStr string, opts *SearchOptions) ([]*SearchHit, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if opts == nil {
		opts = &SearchOptions{}
	}
	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 15
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var queries []blevequery.Query
	queries = append(queries, bleve.NewQueryStringQuery(queryStr))
	if opts.NodeType != "" {
		typeQuery := bleve.NewMatchQuery(opts.NodeType)
		typeQuery.SetField("type")
		queries = append(queries, typeQuery)
	}
	if opts.Language != "" {
		langQuery := bleve.NewMatchQuery(opts.Language)
		langQuery.SetField("language")
		queries = append(queries, langQuery)
	}

	var finalQuery blevequery.Query
	if len(queries) == 1 {
		finalQuery = queries[0]
	} else {
		finalQuery = bleve.NewConjunctionQuery(queries...)
	}

	searchRequest := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	searchRequest.Fields = []string{"id", "name", "qualified_name", "type", "file_path"}

	searchResult, err := s.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	hits := make([]*SearchHit, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		id, _ := hit.Fields["id"].(string)
		name, _ := hit.Fields["name"].(string)
		qualified, _ := hit.Fields["qualified_name"].(string)
		nodeType, _ := hit.Fields["type"].(string)
		filePath, _ := hit.Fields["file_path"].(string)
		hits = append(hits, &SearchHit{
			ID:            id,
			Name:          name,
			QualifiedName: qualified,
			Type:          nodeType,
			FilePath:      filePath,
			Score:         hit.Score,
		})
	}
	return hits, nil
}

func (s *nodeSearcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}
