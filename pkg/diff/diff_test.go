package diff

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 补丁应用到原文后应得到新文本
func TestProperty_PatchReplaysOntoOriginal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("patch replays onto the original note", prop.ForAll(
		func(prefix, suffix string, id int) bool {
			before := fmt.Sprintf("%s[[_links/host/old/%d.pdf]]%s", prefix, id, suffix)
			after := fmt.Sprintf("%s[[_links/host/new/%d.pdf]]%s", prefix, id, suffix)

			dmp := diffmatchpatch.New()
			patches, err := dmp.PatchFromText(Compute(before, after).Patch)
			if err != nil {
				return false
			}
			got, applied := dmp.PatchApply(patches, before)
			for _, ok := range applied {
				if !ok {
					return false
				}
			}
			return got == after
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(1, 1000),
	))

	properties.TestingRun(t)
}

func TestComputeCounts(t *testing.T) {
	c := Compute("see [[_links/h/a.pdf]]", "see [[_links/h/b/a.pdf]]")
	require.False(t, c.Unchanged)
	assert.NotEmpty(t, c.Patch)
	assert.Greater(t, c.Inserted, 0)

	assert.True(t, Compute("same", "same").Unchanged)
}
