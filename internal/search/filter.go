package search

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// WorkFilter is a structured search request over works. Absent fields
// impose no constraint; the zero value matches every posted, unrestricted
// work.
type WorkFilter struct {
	// Free-text query, parsed per the clause grammar.
	Query string

	// Structured text filters, phrase-matched against their fields.
	Title        string
	Creators     string // supports the same leading-`-` negation as the query grammar
	FandomNames  string // comma-separated tag names
	SeriesTitles string // `*` matches any work in at least one series

	LanguageID    string
	CollectionIDs []string

	// Complete restricts to works whose completion flag matches.
	// Nil imposes no constraint.
	Complete *bool

	// Count range expressions per the range grammar. Malformed
	// expressions are dropped, not fatal.
	WordCount      string
	KudosCount     string
	CommentsCount  string
	BookmarksCount string

	// ShowRestricted surfaces restricted works. Unposted works are
	// always excluded; there is deliberately no override for that.
	ShowRestricted bool

	SortColumn    string
	SortDirection string

	Limit  int
	Offset int
}

// defaultFields are searched by clauses without a field scope.
var defaultFields = []string{
	"title", "summary", "fandoms", "characters", "freeforms",
	"creators", "series_titles",
}

// countFields maps field-scope names to the numeric count fields that are
// compiled through the range grammar instead of text matching.
var countFields = map[string]string{
	"word_count":      "word_count",
	"words":           "word_count",
	"kudos_count":     "kudos_count",
	"kudos":           "kudos_count",
	"comments_count":  "comments_count",
	"comments":        "comments_count",
	"bookmarks_count": "bookmarks_count",
	"bookmarks":       "bookmarks_count",
}

// fieldAliases maps accepted field-scope spellings to index fields.
// Unknown names pass through untouched; an AND with a field nothing is
// indexed under simply matches no documents.
var fieldAliases = map[string]string{
	"creator":    "creators",
	"author":     "creators",
	"authors":    "creators",
	"fandom":     "fandoms",
	"character":  "characters",
	"freeform":   "freeforms",
	"tag":        "freeforms",
	"series":     "series_titles",
	"collection": "collection_ids",
	"language":   "language_id",
}

// resolveField normalizes a clause's field scope to an index field name.
func resolveField(name string) string {
	if alias, ok := fieldAliases[name]; ok {
		return alias
	}
	return name
}

// clauses merges the parsed free-text query with the structured text
// fields into one clause list. Both surfaces feed the same intermediate
// representation; a field-scoped free-text clause is equivalent to the
// corresponding structured field.
func (f *WorkFilter) clauses() []Clause {
	clauses := ParseQuery(f.Query)

	if f.Title != "" {
		clauses = append(clauses, Clause{Field: "title", Term: f.Title, Quoted: true})
	}

	// Creators keeps the query grammar so "-Tolkien" excludes.
	for _, c := range ParseQuery(f.Creators) {
		if c.Field == "" {
			c.Field = "creators"
		}
		clauses = append(clauses, c)
	}

	for name := range strings.SplitSeq(f.FandomNames, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			clauses = append(clauses, Clause{Field: "fandoms", Term: name, Quoted: true})
		}
	}

	if st := strings.TrimSpace(f.SeriesTitles); st != "" {
		c := Clause{Field: "series_titles", Term: st, Quoted: true}
		if st == "*" {
			c.Quoted = false
			c.Wildcard = true
		}
		clauses = append(clauses, c)
	}

	return clauses
}

// BuildQuery compiles the filter into a single engine query. It never
// fails: malformed fragments degrade to no constraint, and references to
// unknown identifiers simply match nothing.
func (f *WorkFilter) BuildQuery() query.Query {
	var must []query.Query
	var mustNot []query.Query

	for _, c := range f.clauses() {
		q := compileClause(c)
		if q == nil {
			continue
		}
		if c.Negated {
			mustNot = append(mustNot, q)
		} else {
			must = append(must, q)
		}
	}

	if f.LanguageID != "" {
		tq := bleve.NewTermQuery(f.LanguageID)
		tq.SetField("language_id")
		must = append(must, tq)
	}

	if len(f.CollectionIDs) > 0 {
		// Membership in any of the given collections.
		collectionQueries := make([]query.Query, len(f.CollectionIDs))
		for i, cid := range f.CollectionIDs {
			tq := bleve.NewTermQuery(cid)
			tq.SetField("collection_ids")
			collectionQueries[i] = tq
		}
		must = append(must, bleve.NewDisjunctionQuery(collectionQueries...))
	}

	if f.Complete != nil {
		cq := bleve.NewBoolFieldQuery(*f.Complete)
		cq.SetField("complete")
		must = append(must, cq)
	}

	for field, expr := range map[string]string{
		"word_count":      f.WordCount,
		"kudos_count":     f.KudosCount,
		"comments_count":  f.CommentsCount,
		"bookmarks_count": f.BookmarksCount,
	} {
		if expr == "" {
			continue
		}
		if q := compileCountRange(field, expr); q != nil {
			must = append(must, q)
		}
	}

	// Visibility defaults. Unposted works never leak through public
	// search; restricted works only appear when explicitly requested.
	posted := bleve.NewBoolFieldQuery(true)
	posted.SetField("posted")
	must = append(must, posted)

	if !f.ShowRestricted {
		unrestricted := bleve.NewBoolFieldQuery(false)
		unrestricted.SetField("restricted")
		must = append(must, unrestricted)
	}

	boolQuery := bleve.NewBooleanQuery()
	boolQuery.AddMust(must...)
	if len(mustNot) > 0 {
		boolQuery.AddMustNot(mustNot...)
	}
	return boolQuery
}

// compileClause translates one clause to an engine query, or nil when the
// clause imposes no usable constraint.
func compileClause(c Clause) query.Query {
	field := resolveField(c.Field)

	if c.Wildcard {
		// "Any document with a non-empty value in this field."
		// Meaningless without a field scope.
		if field == "" {
			return nil
		}
		wq := bleve.NewWildcardQuery("*")
		wq.SetField(field)
		return wq
	}

	// Field-scoped count expressions go through the range grammar.
	if countField, ok := countFields[field]; ok {
		return compileCountRange(countField, c.Term)
	}

	if field == "" {
		// Default full-text clause: any of the searchable text fields.
		fieldQueries := make([]query.Query, len(defaultFields))
		for i, df := range defaultFields {
			fieldQueries[i] = textQuery(df, c)
		}
		return bleve.NewDisjunctionQuery(fieldQueries...)
	}

	return textQuery(field, c)
}

// textQuery builds the term-level query for one field. Quoted clauses and
// multi-word terms are phrase matches; single bare words are plain matches.
func textQuery(field string, c Clause) query.Query {
	if c.Quoted || strings.ContainsRune(c.Term, ' ') {
		pq := bleve.NewMatchPhraseQuery(c.Term)
		pq.SetField(field)
		return pq
	}
	mq := bleve.NewMatchQuery(c.Term)
	mq.SetField(field)
	return mq
}

// compileCountRange parses a range expression and builds the numeric range
// query, or nil when the expression is malformed (dropped, non-fatal).
func compileCountRange(field, expr string) query.Query {
	r, err := ParseCountRange(expr)
	if err != nil {
		return nil
	}

	var min, max *float64
	if r.Min != nil {
		v := float64(*r.Min)
		min = &v
	}
	if r.Max != nil {
		v := float64(*r.Max)
		max = &v
	}
	minIncl := r.MinInclusive
	maxIncl := r.MaxInclusive

	q := bleve.NewNumericRangeInclusiveQuery(min, max, &minIncl, &maxIncl)
	q.SetField(field)
	return q
}
