package ingest

import "strings"

// DefaultCategory is assigned when no rule matches.
const DefaultCategory = "General Dentistry"

// Rule maps slug keywords to a category.
type Rule struct {
	Category string
	Keywords []string
}

// Rules is evaluated top to bottom; the first rule with a keyword contained
// in the slug wins. Reordering changes output.
type Rules []Rule

// DefaultRules is the closed category set of the blog.
var DefaultRules = Rules{
	{Category: "Orthodontics", Keywords: []string{"invisalign", "aligner", "braces", "orthodont", "retainer"}},
	{Category: "Dental Implants", Keywords: []string{"implant", "all-on-4", "all-on-four"}},
	{Category: "Cosmetic Dentistry", Keywords: []string{"veneer", "whiten", "bonding", "cosmetic", "smile-makeover"}},
	{Category: "Pediatric Dentistry", Keywords: []string{"kid", "child", "pediatric", "baby", "toddler"}},
	{Category: "Emergency Dentistry", Keywords: []string{"emergency", "toothache", "broken", "knocked", "abscess"}},
	{Category: "Oral Surgery", Keywords: []string{"extraction", "wisdom", "oral-surgery", "bone-graft"}},
	{Category: "Periodontics", Keywords: []string{"gum", "periodont", "gingivitis"}},
	{Category: "Restorative Dentistry", Keywords: []string{"crown", "bridge", "filling", "root-canal", "denture"}},
	{Category: "Preventive Care", Keywords: []string{"cleaning", "checkup", "floss", "brush", "fluoride", "sealant", "prevent"}},
}

// Classify returns the category of slug under DefaultRules.
func Classify(slug string) string {
	return DefaultRules.Classify(slug)
}

// Classify returns the first matching category, or DefaultCategory.
func (rs Rules) Classify(slug string) string {
	s := strings.ToLower(slug)
	for _, r := range rs {
		for _, k := range r.Keywords {
			if strings.Contains(s, k) {
				return r.Category
			}
		}
	}
	return DefaultCategory
}

// Categories lists every category the rules can produce, default last.
func (rs Rules) Categories() []string {
	out := make([]string, 0, len(rs)+1)
	for _, r := range rs {
		out = append(out, r.Category)
	}
	return append(out, DefaultCategory)
}

// Tags returns category followed by every keyword found in slug, in rule
// order and without repeats.
func (rs Rules) Tags(slug, category string) []string {
	s := strings.ToLower(slug)
	seen := map[string]bool{strings.ToLower(category): true}
	tags := []string{category}
	for _, r := range rs {
		for _, k := range r.Keywords {
			if !strings.Contains(s, k) || seen[k] {
				continue
			}
			seen[k] = true
			tags = append(tags, k)
		}
	}
	return tags
}
