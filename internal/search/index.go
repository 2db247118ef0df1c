package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/kiroku/internal/api"
	"github.com/pders01/kiroku/internal/debuglog"
	"github.com/pders01/kiroku/internal/nav"
)

const snippetLength = 160

// Index is a full-text index over every anime and manga seen in fetched
// routes.
type Index struct {
	idx bleve.Index
}

var (
	_ Finder        = (*Index)(nil)
	_ RouteListener = (*Index)(nil)
	_ DebugStatser  = (*Index)(nil)
)

// Open creates or opens the index at indexPath. An empty path keeps the
// index in memory.
func Open(indexPath string) (*Index, error) {
	if indexPath == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating memory index: %w", err)
		}
		return &Index{idx: idx}, nil
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}
	return &Index{idx: idx}, nil
}

func (i *Index) Close() error {
	return i.idx.Close()
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	alt := bleve.NewTextFieldMapping()
	alt.Analyzer = standard.Name
	alt.Store = true

	synonyms := bleve.NewTextFieldMapping()
	synonyms.Analyzer = standard.Name
	synonyms.Store = false

	synopsis := bleve.NewTextFieldMapping()
	synopsis.Analyzer = standard.Name
	synopsis.Store = true

	kind := bleve.NewKeywordFieldMapping()
	kind.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("title_en", alt)
	dm.AddFieldMappingsAt("synonyms", synonyms)
	dm.AddFieldMappingsAt("synopsis", synopsis)
	dm.AddFieldMappingsAt("kind", kind)

	im.DefaultMapping = dm
	return im
}

func animeDoc(a api.Anime) map[string]any {
	doc := map[string]any{
		"kind":     string(KindAnime),
		"title":    a.Title,
		"synopsis": a.Synopsis,
	}
	addAltTitles(doc, a.AlternativeTitles)
	return doc
}

func mangaDoc(m api.Manga) map[string]any {
	doc := map[string]any{
		"kind":     string(KindManga),
		"title":    m.Title,
		"synopsis": m.Synopsis,
	}
	addAltTitles(doc, m.AlternativeTitles)
	return doc
}

func addAltTitles(doc map[string]any, alt *api.AlternativeTitles) {
	if alt == nil {
		return
	}
	doc["title_en"] = alt.En
	doc["synonyms"] = strings.Join(append([]string{alt.Ja}, alt.Synonyms...), " ")
}

// Add indexes anime and manga, replacing earlier versions of the same ids.
func (i *Index) Add(anime []api.Anime, manga []api.Manga) error {
	if len(anime) == 0 && len(manga) == 0 {
		return nil
	}
	batch := i.idx.NewBatch()
	for _, a := range anime {
		if err := batch.Index(docID(KindAnime, a.ID), animeDoc(a)); err != nil {
			return err
		}
	}
	for _, m := range manga {
		if err := batch.Index(docID(KindManga, m.ID), mangaDoc(m)); err != nil {
			return err
		}
	}
	return i.idx.Batch(batch)
}

// OnRouteAdded indexes the media carried by r.
func (i *Index) OnRouteAdded(r nav.Route) {
	anime, manga := nav.Media(r.Data)
	if err := i.Add(anime, manga); err != nil {
		debuglog.Warnf("indexing route %d: %v", r.ID, err)
	}
}

// Find matches query against titles first and synopses last.
func (i *Index) Find(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		qs = append(qs,
			fieldMatch(tok, "title", 4.0),
			fieldPrefix(tok, "title", 3.5),
			fieldMatch(tok, "title_en", 3.0),
			fieldPrefix(tok, "title_en", 2.5),
			fieldMatch(tok, "synonyms", 2.0),
			fieldMatch(tok, "synopsis", 0.5),
		)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "title_en", "synopsis", "kind"}
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		kind, id, ok := parseDocID(h.ID)
		if !ok {
			continue
		}
		r := &Result{Kind: kind, ID: id, Score: h.Score}
		if t, ok := h.Fields["title"].(string); ok {
			r.Title = t
		}
		if t, ok := h.Fields["title_en"].(string); ok {
			r.AltTitle = t
		}
		if s, ok := h.Fields["synopsis"].(string); ok {
			r.Snippet = truncate(s, snippetLength)
		}
		out = append(out, r)
	}
	return out, nil
}

func fieldMatch(tok, field string, boost float64) bleveQuery.Query {
	q := bleve.NewMatchQuery(tok)
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

func fieldPrefix(tok, field string, boost float64) bleveQuery.Query {
	q := bleve.NewPrefixQuery(strings.ToLower(tok))
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

// DocCount reports total documents in the index.
func (i *Index) DocCount() (int, error) {
	n, err := i.idx.DocCount()
	return int(n), err
}

func docID(kind Kind, id int) string { return string(kind) + ":" + strconv.Itoa(id) }

func parseDocID(s string) (Kind, int, bool) {
	kind, raw, ok := strings.Cut(s, ":")
	if !ok {
		return "", 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return "", 0, false
	}
	switch Kind(kind) {
	case KindAnime, KindManga:
		return Kind(kind), id, true
	}
	return "", 0, false
}
