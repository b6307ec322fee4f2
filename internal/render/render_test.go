package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-docmark/pkg/ast"
)

func renderDoc(t *testing.T, cfg Config, blocks ...ast.Block) string {
	t.Helper()
	out, err := New(cfg, zap.NewNop()).Render(&ast.Document{Blocks: blocks})
	require.NoError(t, err)
	return out
}

func text(s string) []ast.InlineRun {
	return []ast.InlineRun{{Text: s}}
}

func TestHeadings(t *testing.T) {
	out := renderDoc(t, Config{},
		&ast.Heading{Level: 1, Content: text("One")},
		&ast.Heading{Level: 3, Content: text("Three")},
	)
	assert.Equal(t, "# One\n\n### Three", out)
}

func TestParagraphs(t *testing.T) {
	t.Run("JoinedByBlankLine", func(t *testing.T) {
		out := renderDoc(t, Config{},
			&ast.Paragraph{Content: text("first")},
			&ast.Paragraph{Content: text("second")},
		)
		assert.Equal(t, "first\n\nsecond", out)
	})

	t.Run("EmptyParagraphKeepsSpacing", func(t *testing.T) {
		out := renderDoc(t, Config{},
			&ast.Paragraph{Content: text("a")},
			&ast.Paragraph{},
			&ast.Paragraph{Content: text("b")},
		)
		assert.Equal(t, "a\n\n\n\nb", out)
	})
}

func TestInlineFormatting(t *testing.T) {
	t.Run("FixedWrappingOrder", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.Paragraph{Content: []ast.InlineRun{
			{Text: "text", Bold: true, Italic: true},
		}})
		assert.Equal(t, "<strong><em>text</em></strong>", out)
	})

	t.Run("AllFlags", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.Paragraph{Content: []ast.InlineRun{
			{Text: "x", Bold: true, Italic: true, Underline: true, Strikethrough: true},
		}})
		assert.Equal(t, "<strong><em><u><del>x</del></u></em></strong>", out)
	})

	t.Run("NoNativeEmphasisMarkers", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.Paragraph{Content: []ast.InlineRun{
			{Text: "bold", Bold: true},
		}})
		assert.NotContains(t, out, "*")
		assert.NotContains(t, out, "_")
	})

	t.Run("Link", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.Paragraph{Content: []ast.InlineRun{
			{Text: "docs", Link: "https://example.com", Bold: true},
		}})
		assert.Equal(t, "[<strong>docs</strong>](https://example.com)", out)
	})
}

func TestLists(t *testing.T) {
	item := func(blocks ...ast.Block) ast.ListItem {
		return ast.ListItem{Blocks: blocks}
	}

	t.Run("OrderedCounters", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.List{Ordered: true, Items: []ast.ListItem{
			item(&ast.Paragraph{Content: text("a")}),
			item(&ast.Paragraph{Content: text("b")}),
			item(&ast.Paragraph{Content: text("c")}),
		}})
		assert.Equal(t, "1. a\n2. b\n3. c", out)
	})

	t.Run("NestedSublistIndentsUnderItsItem", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.List{Ordered: true, Items: []ast.ListItem{
			item(&ast.Paragraph{Content: text("one")}),
			item(
				&ast.Paragraph{Content: text("two")},
				&ast.List{Ordered: false, Depth: 1, Items: []ast.ListItem{
					item(&ast.Paragraph{Content: text("sub")}),
				}},
			),
			item(&ast.Paragraph{Content: text("three")}),
		}})
		assert.Equal(t, "1. one\n2. two\n  - sub\n3. three", out)
	})

	t.Run("UnorderedMarkers", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.List{Items: []ast.ListItem{
			item(&ast.Paragraph{Content: text("x")}),
		}})
		assert.Equal(t, "- x", out)
	})
}

func TestTables(t *testing.T) {
	cell := func(s string) ast.TableCell {
		return ast.TableCell{Blocks: []ast.Block{&ast.Paragraph{Content: text(s)}}, ColSpan: 1}
	}

	t.Run("UniformColumnCount", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.Table{Rows: []ast.TableRow{
			{Cells: []ast.TableCell{cell("h1"), cell("h2"), cell("h3")}},
			{Cells: []ast.TableCell{cell("a"), cell("b")}},
		}})
		for _, line := range strings.Split(out, "\n") {
			assert.Equal(t, 4, strings.Count(line, "|"), line)
		}
	})

	t.Run("SeparatorAfterHeader", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.Table{Rows: []ast.TableRow{
			{Cells: []ast.TableCell{cell("h")}},
			{Cells: []ast.TableCell{cell("v")}},
		}})
		lines := strings.Split(out, "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[1], "| ---"))
	})

	t.Run("ColspanDuplicatesText", func(t *testing.T) {
		wide := ast.TableCell{
			Blocks:  []ast.Block{&ast.Paragraph{Content: text("wide")}},
			ColSpan: 2,
		}
		out := renderDoc(t, Config{}, &ast.Table{Rows: []ast.TableRow{
			{Cells: []ast.TableCell{cell("h1"), cell("h2")}},
			{Cells: []ast.TableCell{wide}},
		}})
		lines := strings.Split(out, "\n")
		assert.Equal(t, 2, strings.Count(lines[2], "wide"))
	})

	t.Run("MultiBlockCellFlattened", func(t *testing.T) {
		multi := ast.TableCell{Blocks: []ast.Block{
			&ast.Paragraph{Content: text("line1")},
			&ast.Paragraph{Content: text("line2")},
		}, ColSpan: 1}
		out := renderDoc(t, Config{}, &ast.Table{Rows: []ast.TableRow{
			{Cells: []ast.TableCell{multi}},
		}})
		assert.Contains(t, out, "line1<br>line2")
		assert.Equal(t, 2, len(strings.Split(out, "\n")))
	})

	t.Run("PipesEscaped", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.Table{Rows: []ast.TableRow{
			{Cells: []ast.TableCell{cell("a|b")}},
		}})
		assert.Contains(t, out, `a\|b`)
	})

	t.Run("EmptyTableFails", func(t *testing.T) {
		_, err := New(Config{}, zap.NewNop()).Render(&ast.Document{
			Blocks: []ast.Block{&ast.Table{}},
		})
		assert.ErrorIs(t, err, ErrEmptyTable)
	})
}

func TestImages(t *testing.T) {
	payload := []byte{1, 2, 3}
	doc := func() *ast.Document {
		return &ast.Document{
			Blocks: []ast.Block{&ast.Image{RelationshipID: "rId1", AltText: "chart"}},
			Media: map[string]*ast.MediaAsset{
				"rId1": {
					RelationshipID: "rId1",
					Data:           payload,
					Extension:      ".png",
					ContentType:    "image/png",
				},
			},
		}
	}

	t.Run("InlineDataURI", func(t *testing.T) {
		out, err := New(Config{ImageMode: ImageInline}, zap.NewNop()).Render(doc())
		require.NoError(t, err)
		assert.Equal(t, "![chart](data:image/png;base64,AQID)", out)
	})

	t.Run("ExtractWritesFile", func(t *testing.T) {
		dir := t.TempDir()
		out, err := New(Config{ImageMode: ImageExtract, ImageDir: dir}, zap.NewNop()).Render(doc())
		require.NoError(t, err)

		written, err := os.ReadFile(filepath.Join(dir, "rId1.png"))
		require.NoError(t, err)
		assert.Equal(t, payload, written)
		assert.Contains(t, out, "rId1.png)")
	})

	t.Run("ExtractIsDeterministic", func(t *testing.T) {
		dir := t.TempDir()
		r := New(Config{ImageMode: ImageExtract, ImageDir: dir}, zap.NewNop())
		first, err := r.Render(doc())
		require.NoError(t, err)
		second, err := r.Render(doc())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("SkipDropsImage", func(t *testing.T) {
		out, err := New(Config{ImageMode: ImageSkip}, zap.NewNop()).Render(doc())
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("MissingAssetDegradesToEmptyPath", func(t *testing.T) {
		out, err := New(Config{ImageMode: ImageInline}, zap.NewNop()).Render(&ast.Document{
			Blocks: []ast.Block{&ast.Image{RelationshipID: "rIdX", AltText: "gone"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "![gone]()", out)
	})
}

func TestMisc(t *testing.T) {
	t.Run("ThematicBreak", func(t *testing.T) {
		out := renderDoc(t, Config{},
			&ast.Paragraph{Content: text("a")},
			&ast.ThematicBreak{},
			&ast.Paragraph{Content: text("b")},
		)
		assert.Equal(t, "a\n\n---\n\nb", out)
	})

	t.Run("RawTextVerbatim", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.RawText{Text: `<a id="intro"></a>`})
		assert.Equal(t, `<a id="intro"></a>`, out)
	})

	t.Run("FootnoteSection", func(t *testing.T) {
		out, err := New(Config{}, zap.NewNop()).Render(&ast.Document{
			Blocks:    []ast.Block{&ast.Paragraph{Content: text("body[^1]")}},
			Footnotes: []string{"the note"},
		})
		require.NoError(t, err)
		assert.Equal(t, "body[^1]\n\n---\n\n[^1]: the note", out)
	})

	t.Run("NoTrailingWhitespace", func(t *testing.T) {
		out := renderDoc(t, Config{}, &ast.Paragraph{Content: text("end")})
		assert.Equal(t, strings.TrimRight(out, " \t\n"), out)
	})
}

// The output should stay parseable by a strict Markdown implementation.
func TestOutputParsesAsMarkdown(t *testing.T) {
	out := renderDoc(t, Config{},
		&ast.Heading{Level: 2, Content: text("Results")},
		&ast.List{Ordered: true, Items: []ast.ListItem{
			{Blocks: []ast.Block{&ast.Paragraph{Content: text("first")}}},
			{Blocks: []ast.Block{&ast.Paragraph{Content: text("second")}}},
		}},
		&ast.Table{Rows: []ast.TableRow{
			{Cells: []ast.TableCell{
				{Blocks: []ast.Block{&ast.Paragraph{Content: text("k")}}, ColSpan: 1},
				{Blocks: []ast.Block{&ast.Paragraph{Content: text("v")}}, ColSpan: 1},
			}},
			{Cells: []ast.TableCell{
				{Blocks: []ast.Block{&ast.Paragraph{Content: text("a")}}, ColSpan: 1},
				{Blocks: []ast.Block{&ast.Paragraph{Content: text("b")}}, ColSpan: 1},
			}},
		}},
	)

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var html strings.Builder
	require.NoError(t, md.Convert([]byte(out), &html))

	assert.Contains(t, html.String(), "<h2>Results</h2>")
	assert.Contains(t, html.String(), "<ol>")
	assert.Contains(t, html.String(), "<table>")
}
