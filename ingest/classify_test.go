package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"best-invisalign-aligner-guide", "Orthodontics"},
		{"all-on-4-implant-costs", "Dental Implants"},
		{"teeth-whitening-at-home", "Cosmetic Dentistry"},
		{"first-visit-for-your-child", "Pediatric Dentistry"},
		{"what-to-do-about-a-toothache", "Emergency Dentistry"},
		{"wisdom-teeth-recovery", "Oral Surgery"},
		{"bleeding-gums-explained", "Periodontics"},
		{"root-canal-myths", "Restorative Dentistry"},
		{"how-often-to-floss", "Preventive Care"},
		{"meet-our-new-hygienist", DefaultCategory},
		// Rule order decides overlaps.
		{"braces-for-kids", "Orthodontics"},
		{"implant-after-extraction", "Dental Implants"},
		{"BRACES-UPPERCASE", "Orthodontics"},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.slug))
		})
	}
}

func TestRulesTags(t *testing.T) {
	tags := DefaultRules.Tags("best-invisalign-aligner-guide", "Orthodontics")
	assert.Equal(t, []string{"Orthodontics", "invisalign", "aligner"}, tags)

	tags = DefaultRules.Tags("braces-for-kids-who-brush", "Orthodontics")
	assert.Equal(t, []string{"Orthodontics", "braces", "kid", "brush"}, tags)

	tags = DefaultRules.Tags("meet-the-team", DefaultCategory)
	assert.Equal(t, []string{DefaultCategory}, tags)
}

func TestRulesCustom(t *testing.T) {
	rules := Rules{{Category: "Billing", Keywords: []string{"insurance"}}}
	assert.Equal(t, "Billing", rules.Classify("does-insurance-cover-braces"))
	assert.Equal(t, DefaultCategory, rules.Classify("braces"))
	assert.Equal(t, []string{"Billing", DefaultCategory}, rules.Categories())
}

func TestDefaultRulesCategories(t *testing.T) {
	cats := DefaultRules.Categories()
	assert.Len(t, cats, 10)
	assert.Equal(t, "Orthodontics", cats[0])
	assert.Equal(t, DefaultCategory, cats[len(cats)-1])
}
