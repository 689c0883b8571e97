package repositories

import (
	"strings"

	"katalog/internal/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchStrategy narrows a product query to rows matching a free-text term.
// The strategies are not equivalent: full-text search stems words and ranks
// by relevance, substring search matches raw characters and does not rank.
type SearchStrategy interface {
	Name() string
	Apply(q *gorm.DB, term string) *gorm.DB
	// Rank returns an ordering by relevance, or nil when the strategy has none.
	Rank(term string) clause.Expression
}

// FullTextSearch uses PostgreSQL text search with the product name weighted
// above the description.
type FullTextSearch struct{}

func (FullTextSearch) Name() string { return "fulltext" }

func (FullTextSearch) Apply(q *gorm.DB, term string) *gorm.DB {
	return q.Where(database.ProductSearchVector+" @@ plainto_tsquery('english', ?)", term)
}

func (FullTextSearch) Rank(term string) clause.Expression {
	return clause.OrderBy{Expression: clause.Expr{
		SQL:                "ts_rank(" + database.ProductSearchVector + ", plainto_tsquery('english', ?)) DESC, products.created_at DESC",
		Vars:               []interface{}{term},
		WithoutParentheses: true,
	}}
}

// SubstringSearch matches the term case-insensitively anywhere in the name,
// the description or the SKU of any variant.
type SubstringSearch struct{}

func (SubstringSearch) Name() string { return "substring" }

func (SubstringSearch) Apply(q *gorm.DB, term string) *gorm.DB {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return q.Where(
		"(LOWER(products.name) LIKE ? ESCAPE '\\' OR LOWER(products.description) LIKE ? ESCAPE '\\' OR "+
			"EXISTS (SELECT 1 FROM variants sv WHERE sv.product_id = products.id AND LOWER(sv.sku) LIKE ? ESCAPE '\\'))",
		pattern, pattern, pattern,
	)
}

func (SubstringSearch) Rank(string) clause.Expression { return nil }

// StrategyFor picks the search strategy for a deployment. backend is
// "fulltext", "substring" or "auto"; auto uses full-text search when the
// database supports it.
func StrategyFor(db *gorm.DB, backend string) SearchStrategy {
	switch backend {
	case "substring":
		return SubstringSearch{}
	case "fulltext":
		return FullTextSearch{}
	default:
		if database.SupportsFullText(db) {
			return FullTextSearch{}
		}
		return SubstringSearch{}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
