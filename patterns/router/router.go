// Package router implements the classify-and-branch pattern: a node labels
// the input with a category and a conditional edge dispatches on that label.
//
// Classification is keyword based. Categories are tried in declared order and
// the first one with a keyword contained in the input wins. When nothing
// matches, the classifier returns its fallback key, which the edge mapping is
// required to handle.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AndersonCRodrigues/langgraph-langsmith/patterns/graph"
)

// ErrNoCategories is returned by [Classifier.Validate] for an empty classifier.
var ErrNoCategories = errors.New("classifier has no categories")

// Category is a routing key and the keywords that select it.
type Category struct {
	Key      string
	Keywords []string
}

// Classifier assigns an input to the first matching category.
type Classifier struct {
	Categories []Category
	Fallback   string
}

// Validate reports configuration errors: no categories, an empty key or
// fallback, or a key declared twice.
func (classifier Classifier) Validate() error {
	if len(classifier.Categories) == 0 {
		return ErrNoCategories
	}
	if classifier.Fallback == "" {
		return errors.New("classifier fallback key is empty")
	}

	seen := make(map[string]bool, len(classifier.Categories)+1)
	seen[classifier.Fallback] = true
	for i, category := range classifier.Categories {
		if category.Key == "" {
			return fmt.Errorf("category %d has an empty key", i)
		}
		if seen[category.Key] {
			return fmt.Errorf("category key %q declared twice", category.Key)
		}
		seen[category.Key] = true
	}
	return nil
}

// Classify returns the key of the first category with a keyword contained in
// text, ignoring case, or the fallback key.
func (classifier Classifier) Classify(text string) string {
	normalized := strings.ToLower(text)
	for _, category := range classifier.Categories {
		for _, keyword := range category.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" && strings.Contains(normalized, keyword) {
				return category.Key
			}
		}
	}
	return classifier.Fallback
}

// Step returns a node that classifies the string in inputField and writes the
// key to labelField.
func (classifier Classifier) Step(inputField, labelField string) graph.StepFunc {
	return func(ctx context.Context, state graph.State) (graph.Update, error) {
		return graph.Update{labelField: classifier.Classify(graph.Get[string](state, inputField))}, nil
	}
}

// Route returns a router reading the label written by [Classifier.Step].
// An empty label routes to the fallback key.
func (classifier Classifier) Route(labelField string) graph.RouterFunc {
	return func(ctx context.Context, state graph.State) string {
		if label := graph.Get[string](state, labelField); label != "" {
			return label
		}
		return classifier.Fallback
	}
}

// Attach registers the classify node on builder and its conditional edge over
// mapping. The edge declares the fallback key, so a mapping without it fails
// [graph.Builder.Compile].
func Attach(builder *graph.Builder, node string, classifier Classifier, inputField, labelField string, mapping map[string]string) error {
	if err := classifier.Validate(); err != nil {
		return fmt.Errorf("router %q: %w", node, err)
	}

	if err := builder.AddNode(node, classifier.Step(inputField, labelField),
		graph.Reads(inputField), graph.Writes(labelField)); err != nil {
		return err
	}
	return builder.AddConditionalEdge(node, classifier.Route(labelField), mapping,
		graph.RouterReads(labelField), graph.WithFallbackKey(classifier.Fallback))
}
