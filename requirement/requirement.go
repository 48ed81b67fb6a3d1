package requirement

import (
	"strings"

	"github.com/hupe1980/studyset/model"
)

const (
	opAnd = " AND "
	opOr  = " OR "
	opNot = "NOT "
)

// Clause is a single, optionally negated, availability check.
type Clause struct {
	Name     string
	Category Category
	Negated  bool
}

// String renders the clause as it would be written.
func (c Clause) String() string {
	if c.Negated {
		return opNot + c.Name
	}
	return c.Name
}

// Available reports whether s carries the data named by the clause,
// ignoring negation.
func (c Clause) Available(s *model.Study) bool {
	if s == nil {
		return false
	}
	if c.Category.Has(CategoryCoordinates) && s.HasCoordinates() {
		return true
	}
	if c.Category.Has(CategoryImage) && s.HasImage(c.Name) {
		return true
	}
	if c.Category.Has(CategoryMetadata) && s.HasMetadata(c.Name) {
		return true
	}
	return false
}

// Satisfied reports whether s satisfies the clause, honouring negation.
func (c Clause) Satisfied(s *model.Study) bool {
	return c.Available(s) != c.Negated
}

// Requirement is a parsed requirement in disjunctive normal form: a study
// matches when every clause of at least one term is satisfied.
type Requirement struct {
	text  string
	terms [][]Clause
}

// Parse parses text against vocab. A nil vocab means DefaultVocabulary().
func Parse(text string, vocab *Vocabulary) (*Requirement, error) {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}

	r := &Requirement{text: text}
	for _, rawTerm := range strings.Split(text, opOr) {
		var term []Clause
		for _, rawClause := range strings.Split(rawTerm, opAnd) {
			c, ok := parseClause(rawClause, vocab)
			if !ok {
				return nil, &UnknownClauseError{Clause: c.Name, Requirement: text}
			}
			term = append(term, c)
		}
		r.terms = append(r.terms, term)
	}
	return r, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string, vocab *Vocabulary) *Requirement {
	r, err := Parse(text, vocab)
	if err != nil {
		panic(err)
	}
	return r
}

// parseClause resolves one clause. On failure the returned Clause carries only
// the offending name.
func parseClause(raw string, vocab *Vocabulary) (Clause, bool) {
	c := Clause{Name: strings.TrimLeft(raw, " ")}
	if rest, ok := strings.CutPrefix(c.Name, opNot); ok {
		c.Negated = true
		c.Name = rest
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, false
	}
	cat, ok := vocab.Lookup(c.Name)
	if !ok {
		return c, false
	}
	c.Category = cat
	return c, true
}

// Matches reports whether s satisfies the requirement.
func (r *Requirement) Matches(s *model.Study) bool {
	for _, term := range r.terms {
		if termMatches(term, s) {
			return true
		}
	}
	return false
}

func termMatches(term []Clause, s *model.Study) bool {
	for _, c := range term {
		if !c.Satisfied(s) {
			return false
		}
	}
	return true
}

// Terms returns a copy of the OR-ed terms, each a list of AND-ed clauses.
func (r *Requirement) Terms() [][]Clause {
	out := make([][]Clause, len(r.terms))
	for i, t := range r.terms {
		out[i] = append([]Clause(nil), t...)
	}
	return out
}

// Names returns the distinct clause names in order of first appearance.
func (r *Requirement) Names() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, t := range r.terms {
		for _, c := range t {
			if _, ok := seen[c.Name]; ok {
				continue
			}
			seen[c.Name] = struct{}{}
			names = append(names, c.Name)
		}
	}
	return names
}

// Text returns the requirement exactly as it was parsed.
func (r *Requirement) Text() string { return r.text }

// String returns the canonical form of the requirement.
func (r *Requirement) String() string {
	var sb strings.Builder
	for i, term := range r.terms {
		if i > 0 {
			sb.WriteString(opOr)
		}
		for j, c := range term {
			if j > 0 {
				sb.WriteString(opAnd)
			}
			sb.WriteString(c.String())
		}
	}
	return sb.String()
}
