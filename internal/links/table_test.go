package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wikimirror/internal/docmodel"
)

func buildSet(pages ...*docmodel.Page) *docmodel.PageSet {
	set := docmodel.NewPageSet()
	for _, p := range pages {
		set.Add(p)
	}
	return set
}

func TestBuildTableRootIsIndex(t *testing.T) {
	set := buildSet(&docmodel.Page{ID: "100", Title: "Team Handbook"})
	table := BuildTable(set, "100")

	p, ok := table.PathFor("100")
	require.True(t, ok)
	assert.Equal(t, "index.md", p)
}

func TestBuildTableNestsUnderAncestorSlugs(t *testing.T) {
	set := buildSet(
		&docmodel.Page{ID: "1", Title: "Root"},
		&docmodel.Page{ID: "2", Title: "User Guide", ParentID: "1"},
		&docmodel.Page{ID: "3", Title: "Setup", ParentID: "2"},
		&docmodel.Page{ID: "4", Title: "Advanced Setup", ParentID: "3"},
	)
	table := BuildTable(set, "1")

	cases := map[string]string{
		"2": "user-guide-2.md",
		"3": "user-guide/setup-3.md",
		"4": "user-guide/setup/advanced-setup-4.md",
	}
	for id, want := range cases {
		got, ok := table.PathFor(id)
		require.True(t, ok, id)
		assert.Equal(t, want, got)
	}
}

func TestBuildTableLinkDiscoveredPagesAreFlat(t *testing.T) {
	set := buildSet(
		&docmodel.Page{ID: "1", Title: "Root"},
		&docmodel.Page{ID: "2", Title: "Child", ParentID: "1"},
		&docmodel.Page{ID: "9", Title: "Linked Page", LinkDiscovered: true},
	)
	table := BuildTable(set, "1")

	p, ok := table.PathFor("9")
	require.True(t, ok)
	assert.Equal(t, "linked-page-9.md", p)
}

func TestPathForUnknownPage(t *testing.T) {
	table := BuildTable(buildSet(&docmodel.Page{ID: "1", Title: "Root"}), "1")
	_, ok := table.PathFor("404")
	assert.False(t, ok)
}

func TestRelPath(t *testing.T) {
	cases := []struct {
		from, to, want string
	}{
		{"index.md", "guide-2.md", "guide-2.md"},
		{"index.md", "guide/setup-3.md", "guide/setup-3.md"},
		{"guide/setup-3.md", "index.md", "../index.md"},
		{"guide/setup-3.md", "guide-2.md", "../guide-2.md"},
		{"guide/setup-3.md", "guide/other-4.md", "other-4.md"},
		{"guide/setup/deep-5.md", "guide/other-4.md", "../other-4.md"},
		{"a/x-1.md", "b/y-2.md", "../b/y-2.md"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RelPath(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}
