// Package mermaid renders graph topologies as Mermaid flowcharts.
package mermaid

import (
	"fmt"
	"strings"

	"github.com/AndersonCRodrigues/langgraph-langsmith/patterns/graph"
)

const (
	startID = "__start__"
	endID   = "__end__"
)

// Overlay carries run data to highlight on the diagram.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// Render produces a "graph TD" flowchart of topology:
//   - start and END: ((circle))
//   - finish nodes: ([stadium])
//   - other nodes: [rectangle]
//
// Conditional edges are dotted and labelled with their routing key.
func Render(topology graph.Topology, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	finish := make(map[string]bool, len(topology.Finish))
	for _, name := range topology.Finish {
		finish[name] = true
	}

	fmt.Fprintf(&sb, "    %s((\"start\"))\n", startID)
	for _, name := range topology.Nodes {
		opener, closer := "[", "]"
		if finish[name] {
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeID(name), opener, escapeLabel(name), closer)
	}
	fmt.Fprintf(&sb, "    %s((\"end\"))\n", endID)

	if topology.Entry != "" {
		fmt.Fprintf(&sb, "    %s --> %s\n", startID, sanitizeID(topology.Entry))
	}
	for _, edge := range topology.Edges {
		from, to := sanitizeID(edge.From), sanitizeID(edge.To)
		if edge.Conditional {
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", from, escapeLabel(edge.Key), to)
			continue
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
	}

	if len(topology.Finish) > 0 {
		sb.WriteString("\n    classDef finish stroke-width:2px;\n")
		for _, name := range topology.Finish {
			fmt.Fprintf(&sb, "    class %s finish;\n", sanitizeID(name))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, name := range overlay.VisitedNodes {
			id := sanitizeID(name)
			if id != "" && !visited[id] {
				visited[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", id)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func sanitizeID(id string) string {
	if id == graph.END {
		return endID
	}
	replacer := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return replacer.Replace(id)
}

func escapeLabel(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
