package graph

import (
	"fmt"
	"sort"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// EdgeKind identifies the outgoing rule type of a node.
type EdgeKind string

const (
	EdgeStatic       EdgeKind = "static"
	EdgeConditional  EdgeKind = "conditional"
	EdgeBoundedRetry EdgeKind = "bounded_retry"
)

// BoundedRetry configures a conditional decision point that participates in a cycle.
// Every visit increments Counter in the state; once the counter reaches MaxVisits the
// Forced label is taken regardless of the switch, and ForcedUpdate is merged into the state.
type BoundedRetry struct {
	Switch       domain.Switch
	Routes       map[domain.Label]string
	Counter      string
	MaxVisits    int
	Forced       domain.Label
	ForcedUpdate domain.Update
}

// Rule is the single outgoing rule of a node.
type Rule struct {
	Kind   EdgeKind
	To     string                  // static only
	Switch domain.Switch           // conditional and bounded retry
	Routes map[domain.Label]string // conditional and bounded retry

	Counter      string
	MaxVisits    int
	Forced       domain.Label
	ForcedUpdate domain.Update
}

// Targets returns every successor the rule may resolve to, sorted.
func (r Rule) Targets() []string {
	if r.Kind == EdgeStatic {
		return []string{r.To}
	}
	seen := make(map[string]bool)
	var out []string
	for _, to := range r.Routes {
		if !seen[to] {
			seen[to] = true
			out = append(out, to)
		}
	}
	sort.Strings(out)
	return out
}

// Resolution is the outcome of ResolveNext.
type Resolution struct {
	Next   string
	Label  domain.Label  // empty for static edges
	Forced bool          // bounded retry ceiling reached
	Visits int           // counter value after this visit (bounded retry only)
	Update domain.Update // state changes owned by the edge (counter, forced update)
}

// EdgeTable records the outgoing rule of every node.
type EdgeTable struct {
	rules map[string]*Rule
}

// NewEdgeTable creates an empty table.
func NewEdgeTable() *EdgeTable {
	return &EdgeTable{rules: make(map[string]*Rule)}
}

// AddEdge records an unconditional transition.
func (t *EdgeTable) AddEdge(from, to string) error {
	if from == "" || to == "" {
		return fmt.Errorf("edge %q -> %q: empty endpoint", from, to)
	}
	return t.put(from, &Rule{Kind: EdgeStatic, To: to})
}

// AddConditionalEdges records a dispatch rule. Every label the switch declares must be
// mapped, and every mapped label must be declared.
func (t *EdgeTable) AddConditionalEdges(from string, sw domain.Switch, routes map[domain.Label]string) error {
	if err := checkLabels(from, sw, routes); err != nil {
		return err
	}
	return t.put(from, &Rule{Kind: EdgeConditional, Switch: sw, Routes: copyRoutes(routes)})
}

// AddBoundedRetry records a cycle-bounded dispatch rule.
func (t *EdgeTable) AddBoundedRetry(from string, br BoundedRetry) error {
	if br.Counter == "" {
		return fmt.Errorf("bounded retry from %s: counter field is required", from)
	}
	if br.MaxVisits < 1 {
		return fmt.Errorf("bounded retry from %s: max visits must be >= 1, got %d", from, br.MaxVisits)
	}
	if err := checkLabels(from, br.Switch, br.Routes); err != nil {
		return err
	}
	if _, ok := br.Routes[br.Forced]; !ok {
		return fmt.Errorf("bounded retry from %s: forced label '%s': %w", from, br.Forced, domain.ErrUnmappedLabel)
	}
	return t.put(from, &Rule{
		Kind:         EdgeBoundedRetry,
		Switch:       br.Switch,
		Routes:       copyRoutes(br.Routes),
		Counter:      br.Counter,
		MaxVisits:    br.MaxVisits,
		Forced:       br.Forced,
		ForcedUpdate: br.ForcedUpdate,
	})
}

func (t *EdgeTable) put(from string, rule *Rule) error {
	if existing, ok := t.rules[from]; ok {
		return fmt.Errorf("%w: node %s already has a %s rule", domain.ErrConflictingEdge, from, existing.Kind)
	}
	t.rules[from] = rule
	return nil
}

func checkLabels(from string, sw domain.Switch, routes map[domain.Label]string) error {
	if sw.Route == nil {
		return fmt.Errorf("conditional edge from %s: nil routing function", from)
	}
	if len(sw.Labels) == 0 {
		return fmt.Errorf("conditional edge from %s: switch declares no labels", from)
	}
	for _, l := range sw.Labels {
		if _, ok := routes[l]; !ok {
			return fmt.Errorf("conditional edge from %s: label '%s' has no successor: %w", from, l, domain.ErrUnmappedLabel)
		}
	}
	for l, to := range routes {
		if !sw.Declares(l) {
			return fmt.Errorf("conditional edge from %s: mapped label '%s' is not declared by the switch: %w", from, l, domain.ErrUnmappedLabel)
		}
		if to == "" {
			return fmt.Errorf("conditional edge from %s: label '%s' maps to an empty target", from, l)
		}
	}
	return nil
}

func copyRoutes(routes map[domain.Label]string) map[domain.Label]string {
	out := make(map[domain.Label]string, len(routes))
	for k, v := range routes {
		out[k] = v
	}
	return out
}

// Rule returns the outgoing rule of a node.
func (t *EdgeTable) Rule(from string) (Rule, bool) {
	r, ok := t.rules[from]
	if !ok {
		return Rule{}, false
	}
	return *r, true
}

// Sources returns the nodes that own an outgoing rule, sorted.
func (t *EdgeTable) Sources() []string {
	out := make([]string, 0, len(t.rules))
	for from := range t.rules {
		out = append(out, from)
	}
	sort.Strings(out)
	return out
}

// ResolveNext picks the successor of from given the current record.
func (t *EdgeTable) ResolveNext(from string, in domain.View) (Resolution, error) {
	rule, ok := t.rules[from]
	if !ok {
		return Resolution{}, &domain.RouteError{From: from, Err: domain.ErrMissingEdge}
	}

	switch rule.Kind {
	case EdgeStatic:
		return Resolution{Next: rule.To}, nil

	case EdgeConditional:
		label := rule.Switch.Route(in)
		next, err := rule.lookup(from, label)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Next: next, Label: label}, nil

	case EdgeBoundedRetry:
		visits := in.Int(rule.Counter) + 1
		res := Resolution{
			Visits: visits,
			Update: domain.Update{rule.Counter: visits},
		}

		if visits >= rule.MaxVisits {
			res.Label = rule.Forced
			res.Forced = true
			if len(rule.ForcedUpdate) > 0 {
				res.Update = res.Update.Merge(rule.ForcedUpdate)
			}
		} else {
			res.Label = rule.Switch.Route(in)
		}

		next, err := rule.lookup(from, res.Label)
		if err != nil {
			return Resolution{}, err
		}
		res.Next = next
		return res, nil

	default:
		return Resolution{}, fmt.Errorf("node %s: unknown edge kind %q", from, rule.Kind)
	}
}

func (r *Rule) lookup(from string, label domain.Label) (string, error) {
	next, ok := r.Routes[label]
	if !ok || !r.Switch.Declares(label) {
		return "", &domain.RouteError{From: from, Label: label, Err: domain.ErrUnmappedLabel}
	}
	return next, nil
}
