package app

import (
	"fmt"
	"strings"

	"parts-assist/internal/retrieval"
)

const supportPersona = "You are a helpful customer service agent for an appliance-parts store, " +
	"specializing in refrigerator and dishwasher parts. Help customers find parts, " +
	"check compatibility, and follow installation guidance. Answer only from the " +
	"provided catalog context; if the context does not cover the question, say so."

// buildContextMessage renders the retrieval bundle as one system turn.
// Product cards, guide texts and compatibility facts are formatted as
// separate blocks so the model can cite each independently.
func buildContextMessage(bundle *retrieval.ContextBundle) string {
	if bundle == nil || len(bundle.Products) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Based on the customer's question, here is what the catalog returned:\n")

	b.WriteString("\nRelevant products:\n")
	for _, p := range bundle.Products {
		fmt.Fprintf(&b, "- %s (Part #%s, %s): %s | price $%.2f | %d in stock\n",
			p.Name, p.PartNumber, p.ApplianceType, p.Description, p.Price, p.StockQuantity)
	}

	if len(bundle.InstallationGuides) > 0 {
		b.WriteString("\nInstallation information:\n")
		for _, guide := range bundle.InstallationGuides {
			fmt.Fprintf(&b, "- %s\n", guide)
		}
	}

	wroteHeader := false
	for i, models := range bundle.CompatibilityInfo {
		if len(models) == 0 {
			continue
		}
		if !wroteHeader {
			b.WriteString("\nCompatibility facts:\n")
			wroteHeader = true
		}
		fmt.Fprintf(&b, "- Part #%s fits:\n", bundle.Products[i].PartNumber)
		for _, m := range models {
			fmt.Fprintf(&b, "  - %s (%s): %s\n", m.ModelNumber, m.Brand, m.Notes)
		}
	}

	return b.String()
}
