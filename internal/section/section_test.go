package section

import (
	"testing"

	"github.com/dgallion1/docsect/internal/format"
	"github.com/dgallion1/docsect/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "# A\nfoo\n## B\nbar\n# C\nbaz"

// sampleOutline is the outline of sampleDoc, written out by hand.
func sampleOutline() *outline.Outline {
	return &outline.Outline{
		Headings: []outline.Heading{
			mkHeading("A", 1, 0, 0, 3),
			mkHeading("B", 2, 2, 8, 12),
			mkHeading("C", 1, 4, 17, 20),
		},
	}
}

func mkHeading(text string, level, line, start, end int) outline.Heading {
	return outline.Heading{
		Text:  text,
		Level: level,
		Position: outline.Span{
			Start: outline.Position{Line: line, Offset: start},
			End:   outline.Position{Line: line, Offset: end},
		},
	}
}

func mkTag(name string, line int) outline.Tag {
	return outline.Tag{Name: name, Position: outline.Span{Start: outline.Position{Line: line}}}
}

var noLinks = LinkerFunc(func(docName, heading string) string { return docName + "#" + heading })

func TestExtractByHeading_TopLevelScenario(t *testing.T) {
	t.Parallel()

	got := ExtractByHeading("doc", sampleDoc, sampleOutline(), HeadingLevel(1), noLinks)

	assert.Equal(t, []Section{
		{Heading: "# A", Link: "doc#A", Content: "foo\n## B\nbar\n"},
		{Heading: "# C", Link: "doc#C", Content: "baz"},
	}, got)
}

func TestExtractByTag_HeadingLineScenario(t *testing.T) {
	t.Parallel()

	ol := sampleOutline()
	ol.Tags = []outline.Tag{mkTag("#x", 2)}

	got := ExtractByTag("doc", sampleDoc, ol, TagName("#x"), noLinks)

	assert.Equal(t, []Section{{Heading: "## B", Link: "doc#B", Content: "bar\n"}}, got)
}

func TestExtractByTag_TagOffHeadingLine(t *testing.T) {
	t.Parallel()

	ol := sampleOutline()
	ol.Tags = []outline.Tag{mkTag("#x", 1)}

	got := ExtractByTag("doc", sampleDoc, ol, TagName("#x"), noLinks)

	assert.Empty(t, got)
}

func TestExtractByTag_DuplicateTagsOnOneHeading(t *testing.T) {
	t.Parallel()

	ol := sampleOutline()
	ol.Tags = []outline.Tag{mkTag("#entity", 0), mkTag("#index", 0)}
	either := func(tg outline.Tag) bool { return tg.Name == "#entity" || tg.Name == "#index" }

	got := ExtractByTag("doc", sampleDoc, ol, either, noLinks)

	require.Len(t, got, 2)
	assert.Equal(t, got[0], got[1])
	assert.Equal(t, "# A", got[0].Heading)
}

func TestExtractByTag_FollowsTagOrder(t *testing.T) {
	t.Parallel()

	ol := sampleOutline()
	ol.Tags = []outline.Tag{mkTag("#t", 4), mkTag("#t", 0)}

	got := ExtractByTag("doc", sampleDoc, ol, TagName("#t"), noLinks)

	require.Len(t, got, 2)
	assert.Equal(t, "# C", got[0].Heading)
	assert.Equal(t, "# A", got[1].Heading)
}

func TestExtractByTag_NonMatchingTagsIgnored(t *testing.T) {
	t.Parallel()

	ol := sampleOutline()
	ol.Tags = []outline.Tag{mkTag("#other", 0), mkTag("#X", 2)}

	assert.Empty(t, ExtractByTag("doc", sampleDoc, ol, TagName("#x"), noLinks))
}

func TestExtractByHeading_NestedSubsectionsIncluded(t *testing.T) {
	t.Parallel()

	got := ExtractByHeading("doc", sampleDoc, sampleOutline(), HeadingText("A"), noLinks)

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Content, "## B\nbar\n")
}

func TestExtractByHeading_DeepestRunsToNextShallower(t *testing.T) {
	t.Parallel()

	doc := "# A\n## B\n### C\nc\n## D\nd\n"
	ol, err := (&format.MarkdownFormat{}).Outline(doc)
	require.NoError(t, err)

	got := ExtractByHeading("doc", doc, ol, HeadingLevel(3), noLinks)
	require.Len(t, got, 1)
	assert.Equal(t, "c\n", got[0].Content)

	got = ExtractByHeading("doc", doc, ol, HeadingLevel(2), noLinks)
	require.Len(t, got, 2)
	assert.Equal(t, "### C\nc\n", got[0].Content)
	assert.Equal(t, "d\n", got[1].Content)
}

func TestExtractByHeading_SpanMatchesOffsets(t *testing.T) {
	t.Parallel()

	ol := sampleOutline()
	got := ExtractByHeading("doc", sampleDoc, ol, HeadingLevel(2), noLinks)

	require.Len(t, got, 1)
	b, c := ol.Headings[1], ol.Headings[2]
	assert.Equal(t, sampleDoc[b.Position.End.Offset+1:c.Position.Start.Offset], got[0].Content)
}

func TestExtractByHeading_DocumentOrder(t *testing.T) {
	t.Parallel()

	got := ExtractByHeading("doc", sampleDoc, sampleOutline(), func(outline.Heading) bool { return true }, noLinks)

	var headings []string
	for _, s := range got {
		headings = append(headings, s.Heading)
	}
	assert.Equal(t, []string{"# A", "## B", "# C"}, headings)
}

func TestExtractByHeading_NoMatches(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ExtractByHeading("doc", sampleDoc, sampleOutline(), HeadingLevel(6), noLinks))
	assert.Empty(t, ExtractByHeading("doc", "", &outline.Outline{}, HeadingLevel(1), noLinks))
}

func TestExtractByHeading_LastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	doc := "text\n# End"
	ol := &outline.Outline{Headings: []outline.Heading{mkHeading("End", 1, 1, 5, 10)}}

	got := ExtractByHeading("doc", doc, ol, HeadingLevel(1), noLinks)

	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Content)
}

func TestExtractByHeading_Idempotent(t *testing.T) {
	t.Parallel()

	ol := sampleOutline()
	first := ExtractByHeading("doc", sampleDoc, ol, HeadingLevel(1), noLinks)
	second := ExtractByHeading("doc", sampleDoc, ol, HeadingLevel(1), noLinks)

	assert.Equal(t, first, second)
	assert.Equal(t, sampleOutline(), ol)
}

func TestExtractFromParsedMarkdown(t *testing.T) {
	t.Parallel()

	doc := "# 엔티티 #entity\n\nintro\n\n## Detail\n\nnested\n\n# Index #index\n\nlast line\n"
	ol, err := (&format.MarkdownFormat{}).Outline(doc)
	require.NoError(t, err)

	matchEither := func(tg outline.Tag) bool { return tg.Name == "#entity" || tg.Name == "#index" }
	got := ExtractByTag("엔티티", doc, ol, matchEither, WikiLinker{})

	assert.Equal(t, []Section{
		{
			Heading: "# 엔티티 #entity",
			Link:    "[[엔티티#엔티티 #entity|엔티티 #entity]]",
			Content: "\nintro\n\n## Detail\n\nnested\n\n",
		},
		{
			Heading: "# Index #index",
			Link:    "[[엔티티#Index #index|Index #index]]",
			Content: "\nlast line\n",
		},
	}, got)
}

func TestRenderHeading(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "## Intro", RenderHeading("Intro", 2))
	assert.Equal(t, "# Intro", RenderHeading("Intro", 1))
	assert.Equal(t, "Intro", RenderHeading("Intro", 0))
	assert.Equal(t, "Intro", RenderHeading("Intro", -1))
}

func TestSubstring(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bc", substring("abcd", 1, 3))
	assert.Equal(t, "", substring("abcd", 5, 9))
	assert.Equal(t, "", substring("abcd", 3, 1))
	assert.Equal(t, "abcd", substring("abcd", -2, 10))
}

func TestWikiLinker(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[[notes#Usage|Usage]]", WikiLinker{}.SectionLink("notes", "Usage"))
}

func TestAnyTag(t *testing.T) {
	t.Parallel()

	ol := sampleOutline()
	ol.Tags = []outline.Tag{mkTag("#index", 4), mkTag("#other", 2), mkTag("#entity", 0)}

	got := ExtractByTag("doc", sampleDoc, ol, AnyTag("#entity", "#index"), noLinks)

	require.Len(t, got, 2)
	assert.Equal(t, "# C", got[0].Heading)
	assert.Equal(t, "# A", got[1].Heading)
	assert.Empty(t, ExtractByTag("doc", sampleDoc, ol, AnyTag(), noLinks))
}
