// Package diff renders note rewrites as reviewable patches.
package diff

import "github.com/sergi/go-diff/diffmatchpatch"

// Change summarises one text rewrite.
type Change struct {
	Patch     string // diffmatchpatch patch text
	Inserted  int    // inserted characters
	Deleted   int    // deleted characters
	Unchanged bool
}

// Compute builds the patch turning before into after.
// 计算 before -> after 的补丁文本，用于 dry-run 预览
func Compute(before, after string) Change {
	if before == after {
		return Change{Unchanged: true}
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var c Change
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			c.Inserted += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			c.Deleted += len([]rune(d.Text))
		}
	}
	c.Patch = dmp.PatchToText(dmp.PatchMake(before, diffs))
	return c
}
