// Package schema assembles the schema context handed to the model. Retrieval
// works in three layers: table metadata, ranked schema documents and
// precomputed statistics. The depth chosen by the router decides which
// layers run.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"sql-agent-be/internal/pkg/logger"
	"sql-agent-be/pkg/agentctx"
	"sql-agent-be/pkg/embedding"
	"sql-agent-be/pkg/sqlguard"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultTopK = 3

	memoTTL     = 10 * time.Minute
	memoCleanup = 20 * time.Minute
)

// Depth selects how many retrieval layers run.
type Depth int

const (
	DepthMetadata Depth = iota
	DepthDocuments
	DepthFull
)

func (d Depth) String() string {
	switch d {
	case DepthMetadata:
		return "metadata"
	case DepthDocuments:
		return "documents"
	default:
		return "full"
	}
}

// DepthFor maps a routing strategy to a retrieval depth.
func DepthFor(s agentctx.Strategy) Depth {
	switch s {
	case agentctx.StrategySchemaOnly, agentctx.StrategySQLDirect:
		return DepthMetadata
	case agentctx.StrategyFilteredRAG:
		return DepthDocuments
	default:
		return DepthFull
	}
}

type TableMetadata struct {
	Count          int64    `json:"count"`
	HasIndex       bool     `json:"has_index"`
	IndexedColumns []string `json:"indexed_columns"`
}

type Statistics struct {
	FrequentQueries []string       `json:"frequent_queries"`
	SlowPatterns    []string       `json:"slow_patterns"`
	OptimalLimits   map[string]int `json:"optimal_limits"`
}

func DefaultStatistics() Statistics {
	return Statistics{
		FrequentQueries: []string{
			"SELECT COUNT(*) FROM clientes",
			"SELECT SUM(valor_total) FROM transacoes",
		},
		SlowPatterns: []string{
			"SELECT * FROM transacoes",
			"JOIN sem WHERE",
		},
		OptimalLimits: map[string]int{
			"clientes":   1000,
			"transacoes": 100,
			"produtos":   500,
		},
	}
}

// Bundle is the retrieval result for one question. Bundles are memoized and
// shared between requests; callers must not mutate them.
type Bundle struct {
	Metadata   map[string]TableMetadata
	Documents  []Document
	Schema     string
	Statistics string
	Text       string
}

type Retriever interface {
	Retrieve(ctx context.Context, question string, depth Depth) (*Bundle, error)
}

// tableKeywords lists, per table, the stems that make it relevant.
var tableKeywords = []struct {
	table string
	words []string
}{
	{"clientes", []string{"cliente"}},
	{"produtos", []string{"produto"}},
	{"transacoes", []string{"transa", "compra", "gasto", "total"}},
}

type MultiLayerRetriever struct {
	catalog   sqlguard.Catalog
	documents []Document
	stats     Statistics
	embedder  embedding.EmbeddingProvider
	log       logger.ILogger
	memo      *gocache.Cache
	topK      int

	mu      sync.Mutex
	vectors [][]float32
}

var _ Retriever = &MultiLayerRetriever{}

// NewMultiLayerRetriever builds a retriever over the catalog. A nil embedder
// ranks documents by word overlap.
func NewMultiLayerRetriever(catalog sqlguard.Catalog, documents []Document, embedder embedding.EmbeddingProvider, log logger.ILogger) *MultiLayerRetriever {
	if len(catalog) == 0 {
		catalog = sqlguard.DefaultCatalog()
	}
	if documents == nil {
		documents = DefaultDocuments()
	}
	return &MultiLayerRetriever{
		catalog:   catalog,
		documents: documents,
		stats:     DefaultStatistics(),
		embedder:  embedder,
		log:       log,
		memo:      gocache.New(memoTTL, memoCleanup),
		topK:      DefaultTopK,
	}
}

func (r *MultiLayerRetriever) Retrieve(ctx context.Context, question string, depth Depth) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%s", depth, strings.Join(strings.Fields(strings.ToLower(question)), " "))
	if cached, ok := r.memo.Get(key); ok {
		return cached.(*Bundle), nil
	}

	b := &Bundle{Metadata: r.filterMetadata(question)}

	if depth >= DepthDocuments {
		b.Documents = r.rank(ctx, question)
		parts := make([]string, len(b.Documents))
		for i, d := range b.Documents {
			parts[i] = d.Content
		}
		b.Schema = strings.Join(parts, "\n\n")
	}

	if depth == DepthFull {
		b.Statistics = r.renderStatistics()
	}

	text, err := render(b)
	if err != nil {
		return nil, err
	}
	b.Text = text

	r.memo.SetDefault(key, b)
	r.log.Debug("SCHEMA", "Schema retrieved", map[string]interface{}{
		"depth":     depth.String(),
		"tables":    len(b.Metadata),
		"documents": len(b.Documents),
	})
	return b, nil
}

func (r *MultiLayerRetriever) filterMetadata(question string) map[string]TableMetadata {
	q := strings.ToLower(question)

	var tables []string
	for _, tk := range tableKeywords {
		if !r.catalog.Allowed(tk.table) {
			continue
		}
		for _, w := range tk.words {
			if strings.Contains(q, w) {
				tables = append(tables, tk.table)
				break
			}
		}
	}
	if len(tables) == 0 {
		tables = r.catalog.Tables()
	}

	out := make(map[string]TableMetadata, len(tables))
	for _, name := range tables {
		info := r.catalog[name]
		out[name] = TableMetadata{
			Count:          info.Rows,
			HasIndex:       len(info.IndexedColumns) > 0,
			IndexedColumns: info.IndexedColumns,
		}
	}
	return out
}

func (r *MultiLayerRetriever) rank(ctx context.Context, question string) []Document {
	if r.embedder != nil {
		docs, err := r.rankByEmbedding(ctx, question)
		if err == nil {
			return docs
		}
		r.log.Warn("SCHEMA", "Embedding ranking failed, using word overlap", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return r.rankLexical(question)
}

func (r *MultiLayerRetriever) documentVectors(ctx context.Context) ([][]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vectors != nil {
		return r.vectors, nil
	}

	vectors := make([][]float32, len(r.documents))
	for i, d := range r.documents {
		v, err := r.embedder.Embed(ctx, d.Content)
		if err != nil {
			return nil, fmt.Errorf("embed document %s: %w", d.ID, err)
		}
		vectors[i] = v
	}
	r.vectors = vectors
	return vectors, nil
}

func (r *MultiLayerRetriever) rankByEmbedding(ctx context.Context, question string) ([]Document, error) {
	vectors, err := r.documentVectors(ctx)
	if err != nil {
		return nil, err
	}

	qv, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		s, err := embedding.Cosine(qv, v)
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}
	return r.top(scores), nil
}

func (r *MultiLayerRetriever) rankLexical(question string) []Document {
	terms := terms(question)

	scores := make([]float64, len(r.documents))
	for i, d := range r.documents {
		content := strings.ToLower(d.Content)
		for _, t := range terms {
			if strings.Contains(content, t) {
				scores[i]++
			}
		}
	}
	return r.top(scores)
}

// top returns the topK documents by descending score, ties in catalog order.
func (r *MultiLayerRetriever) top(scores []float64) []Document {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	k := r.topK
	if k > len(idx) {
		k = len(idx)
	}
	out := make([]Document, k)
	for i := 0; i < k; i++ {
		out[i] = r.documents[idx[i]]
	}
	return out
}

func terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := words[:0]
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if len([]rune(w)) < 4 || seen[w] {
			continue
		}
		seen[w] = true
		// crude plural folding so "clientes" matches "cliente"
		out = append(out, strings.TrimSuffix(w, "s"))
	}
	return out
}

func (r *MultiLayerRetriever) renderStatistics() string {
	limits, _ := json.MarshalIndent(r.stats.OptimalLimits, "", "  ")

	var sb strings.Builder
	sb.WriteString("Limites otimizados por tabela:\n")
	sb.Write(limits)
	sb.WriteString("\n\nQueries frequentes:\n")
	for _, q := range r.stats.FrequentQueries {
		sb.WriteString("- " + q + "\n")
	}
	sb.WriteString("\nPadrões lentos:\n")
	for _, p := range r.stats.SlowPatterns {
		sb.WriteString("- " + p + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func render(b *Bundle) (string, error) {
	var sb strings.Builder
	sb.WriteString("=== SCHEMA DO BANCO DE DADOS ===\n\n")

	if len(b.Metadata) > 0 {
		meta, err := json.MarshalIndent(b.Metadata, "", "  ")
		if err != nil {
			return "", fmt.Errorf("render metadata: %w", err)
		}
		sb.WriteString("METADADOS DAS TABELAS:\n")
		sb.Write(meta)
		sb.WriteString("\n\n")
	}

	if b.Schema != "" {
		sb.WriteString("ESTRUTURA DAS TABELAS:\n")
		sb.WriteString(b.Schema)
		sb.WriteString("\n\n")
	}

	if b.Statistics != "" {
		sb.WriteString("ESTATÍSTICAS E OTIMIZAÇÕES:\n")
		sb.WriteString(b.Statistics)
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}
