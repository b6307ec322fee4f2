package docmark_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-docmark/internal/testutils"
	"github.com/nerdneilsfield/go-docmark/pkg/ast"
	"github.com/nerdneilsfield/go-docmark/pkg/docmark"
	"github.com/nerdneilsfield/go-docmark/pkg/ooxml"
)

func TestConvert(t *testing.T) {
	t.Run("FullPipeline", func(t *testing.T) {
		body := testutils.StyledPara("Heading1", "Overview") +
			testutils.Para("Some prose.") +
			testutils.ListPara(5, 0, "alpha") +
			testutils.ListPara(5, 0, "beta")
		data := testutils.DocxBytes(t, body, testutils.OrderedListNumbering(5))

		out, err := docmark.New(docmark.Options{}).Convert(data)
		require.NoError(t, err)

		assert.Contains(t, out, "# Overview")
		assert.Contains(t, out, "Some prose.")
		assert.Contains(t, out, "1. alpha")
		assert.Contains(t, out, "2. beta")
	})

	t.Run("Idempotent", func(t *testing.T) {
		data := testutils.DocxBytes(t, testutils.Para("stable"))
		c := docmark.New(docmark.Options{})

		first, err := c.Convert(data)
		require.NoError(t, err)
		second, err := c.Convert(data)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("KoreanHeadings", func(t *testing.T) {
		data := testutils.DocxBytes(t, testutils.Para("제3조 정의"))

		ko, err := docmark.New(docmark.Options{Language: "ko"}).Convert(data)
		require.NoError(t, err)
		assert.Equal(t, "#### 제3조 정의", ko)

		plain, err := docmark.New(docmark.Options{}).Convert(data)
		require.NoError(t, err)
		assert.Equal(t, "제3조 정의", plain)
	})

	t.Run("HeadingLevels", func(t *testing.T) {
		var body strings.Builder
		for i := 1; i <= 6; i++ {
			body.WriteString(testutils.StyledPara(fmt.Sprintf("Heading%d", i), "H"))
		}
		out, err := docmark.New(docmark.Options{}).Convert(
			testutils.DocxBytes(t, body.String()))
		require.NoError(t, err)

		lines := strings.Split(out, "\n\n")
		require.Len(t, lines, 6)
		for i, line := range lines {
			assert.True(t, strings.HasPrefix(line, strings.Repeat("#", i+1)+" "), line)
		}
	})
}

func TestConvertFile(t *testing.T) {
	path := testutils.DocxFile(t, testutils.Para("from disk"))
	out, err := docmark.New(docmark.Options{}).ConvertFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from disk", out)
}

func TestImageExtraction(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 13, 10}
	body := `<w:p>` + testutils.ImageRun("rId1", "figure") + `</w:p>`
	data := testutils.DocxBytes(t, body, testutils.WithMedia("rId1", "image1.png", payload))

	dir := t.TempDir()
	opts := docmark.Options{
		ImageHandling:  docmark.ImageExtract,
		ImageOutputDir: filepath.Join(dir, "assets"),
	}

	first, err := docmark.New(opts).Convert(data)
	require.NoError(t, err)
	second, err := docmark.New(opts).Convert(data)
	require.NoError(t, err)

	// Repeated conversions must agree on filenames and references.
	assert.Equal(t, first, second)
	assert.Contains(t, first, "rId1.png)")

	written, err := os.ReadFile(filepath.Join(dir, "assets", "rId1.png"))
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestErrorStages(t *testing.T) {
	t.Run("IoOnMissingFile", func(t *testing.T) {
		_, err := docmark.New(docmark.Options{}).ConvertFile("/does/not/exist.docx")
		var derr *docmark.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, docmark.StageIo, derr.Stage)
	})

	t.Run("IoOnCorruptPackage", func(t *testing.T) {
		_, err := docmark.New(docmark.Options{}).Convert([]byte("not a zip"))
		var derr *docmark.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, docmark.StageIo, derr.Stage)
	})

	t.Run("ExtractionOnUnresolvedImage", func(t *testing.T) {
		data := testutils.DocxBytes(t, `<w:p>`+testutils.ImageRun("rId9", "ghost")+`</w:p>`)
		_, err := docmark.New(docmark.Options{}).Convert(data)
		var derr *docmark.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, docmark.StageExtraction, derr.Stage)
	})

	t.Run("RenderStageTagged", func(t *testing.T) {
		failing := renderFunc(func(*ast.Document) (string, error) {
			return "", errors.New("boom")
		})
		c := docmark.NewWithComponents(docmark.Options{}, nil, failing)
		_, err := c.Convert(testutils.DocxBytes(t, testutils.Para("x")))
		var derr *docmark.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, docmark.StageRender, derr.Stage)
	})
}

type renderFunc func(doc *ast.Document) (string, error)

func (f renderFunc) Render(doc *ast.Document) (string, error) { return f(doc) }

type staticExtractor struct {
	doc *ast.Document
}

func (s *staticExtractor) Extract(*ooxml.Package) (*ast.Document, error) {
	return s.doc, nil
}

func TestComponentSubstitution(t *testing.T) {
	doc := &ast.Document{Blocks: []ast.Block{
		&ast.Heading{Level: 1, Content: []ast.InlineRun{{Text: "injected"}}},
	}}
	c := docmark.NewWithComponents(docmark.Options{}, &staticExtractor{doc: doc}, nil)

	out, err := c.Convert(testutils.DocxBytes(t, testutils.Para("ignored")))
	require.NoError(t, err)
	assert.Equal(t, "# injected", out)
}
