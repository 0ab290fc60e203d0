package tool

import (
	"slices"
	"strings"
	"sync"

	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai"
)

// Catalog is the set of tools an agent may call, keyed by lowercase name.
// Lookups ignore case because models do not always echo a tool name exactly.
// A Catalog is safe for concurrent use; concurrent runs share one.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]GenericTool
}

func NewCatalog() *Catalog {
	return &Catalog{tools: make(map[string]GenericTool)}
}

// NewCatalogWithTools creates a catalog holding tools.
func NewCatalogWithTools(tools ...GenericTool) *Catalog {
	catalog := NewCatalog()
	catalog.AddTools(tools...)
	return catalog
}

// AddTools registers tools under ToolInfo().Name. A tool whose name differs
// only in case from a registered one replaces it.
func (c *Catalog) AddTools(tools ...GenericTool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tools {
		c.tools[strings.ToLower(t.ToolInfo().Name)] = t
	}
}

// Get resolves a tool requested by the model.
func (c *Catalog) Get(name string) (GenericTool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	found, ok := c.tools[strings.ToLower(strings.TrimSpace(name))]
	return found, ok
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

// Names returns the registered names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedNames()
}

// Descriptions returns the advertised description of every tool in name
// order, so requests built from the same catalog are identical.
func (c *Catalog) Descriptions() []ai.ToolDescription {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := c.sortedNames()
	descriptions := make([]ai.ToolDescription, 0, len(names))
	for _, name := range names {
		descriptions = append(descriptions, c.tools[name].ToolInfo())
	}
	return descriptions
}

// sortedNames requires c.mu to be held.
func (c *Catalog) sortedNames() []string {
	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
