package engine_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/livetype/internal/logging"
	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/engine"
	"github.com/yaklabco/livetype/pkg/render"
	"github.com/yaklabco/livetype/pkg/typeset"
)

func TestOpenClose(t *testing.T) {
	t.Parallel()

	eng := engine.New(engine.WithLogger(logging.Discard()))

	h, err := eng.Open("notes")
	require.NoError(t, err)
	doc, err := eng.Document(h)
	require.NoError(t, err)
	assert.Equal(t, "notes.typ", string(doc.Path()))
	assert.Equal(t, h, doc.Handle())

	_, err = eng.Open("notes.typ")
	require.ErrorIs(t, err, engine.ErrPathInUse)

	anon, err := eng.Open("")
	require.NoError(t, err)
	assert.NotEqual(t, h, anon)
	assert.Equal(t, 2, eng.Documents())

	_, err = eng.Compile(context.Background(), h, "Hello", "")
	require.NoError(t, err)
	require.NoError(t, eng.Close(h))
	assert.Equal(t, 1, eng.Documents())
	assert.Empty(t, eng.Files().IDs())

	require.ErrorIs(t, eng.Close(h), engine.ErrUnknownDocument)
	_, err = eng.Open("notes.typ")
	require.NoError(t, err)
}

func TestUnknownHandle(t *testing.T) {
	t.Parallel()

	eng := engine.New(engine.WithLogger(logging.Discard()))
	h := engine.Handle("missing")
	ctx := context.Background()

	_, err := eng.Compile(ctx, h, "x", "")
	require.ErrorIs(t, err, engine.ErrUnknownDocument)
	_, err = eng.Check(ctx, h, "x", "")
	require.ErrorIs(t, err, engine.ErrUnknownDocument)
	_, err = eng.RenderFixed(ctx, h)
	require.ErrorIs(t, err, engine.ErrUnknownDocument)
	_, _, err = eng.HitTest(h, typeset.Point{})
	require.ErrorIs(t, err, engine.ErrUnknownDocument)
	_, _, err = eng.Autocomplete(h, 0, true)
	require.ErrorIs(t, err, engine.ErrUnknownDocument)
	_, _, err = eng.Hover(h, 0, typeset.SideAfter)
	require.ErrorIs(t, err, engine.ErrUnknownDocument)
	_, err = eng.Resize(h, nil, nil)
	require.ErrorIs(t, err, engine.ErrUnknownDocument)
	_, err = eng.Highlight(h, "x")
	require.ErrorIs(t, err, engine.ErrUnknownDocument)
	require.ErrorIs(t, eng.SetConfig(h, config.NewRender()), engine.ErrUnknownDocument)
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)
	r := config.NewRender()
	r.PixelPerPt = 0
	r.Theme.Primary = "blue-ish"

	err := eng.SetConfig(h, r)
	require.Error(t, err)
	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)

	doc, err := eng.Document(h)
	require.NoError(t, err)
	assert.InDelta(t, config.DefaultPixelPerPt, doc.Render().PixelPerPt, 1e-9)
}

func TestResize(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)
	w1, w2 := 200.0, 300.0
	cutoff := 50.0

	changed, err := eng.Resize(h, &w1, nil)
	require.NoError(t, err)
	assert.True(t, changed)

	same := 200.0
	changed, err = eng.Resize(h, &same, &cutoff)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = eng.Resize(h, &w2, &cutoff)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = eng.Resize(h, nil, nil)
	require.NoError(t, err)
	assert.True(t, changed)

	bad := -1.0
	_, err = eng.Resize(h, &bad, nil)
	require.Error(t, err)

	doc, err := eng.Document(h)
	require.NoError(t, err)
	assert.Nil(t, doc.Render().Width)
}

func TestResizeReflows(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)
	text := "a long paragraph that has to wrap once the page becomes narrow enough"

	wide, err := eng.Compile(context.Background(), h, text, "")
	require.NoError(t, err)
	require.Len(t, wide.Fragments, 1)

	narrow := 80.0
	_, err = eng.Resize(h, &narrow, nil)
	require.NoError(t, err)
	wrapped, err := eng.Compile(context.Background(), h, text, "")
	require.NoError(t, err)
	require.Len(t, wrapped.Fragments, 1)
	assert.Greater(t, wrapped.Fragments[0].Height, wide.Fragments[0].Height)
}

func TestAutocomplete(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)
	_, ok, err := eng.Autocomplete(h, 0, true)
	require.NoError(t, err)
	assert.False(t, ok, "nothing compiled yet")

	text := "Grüße #te"
	_, err = eng.Compile(context.Background(), h, text, "")
	require.NoError(t, err)

	completions, ok, err := eng.Autocomplete(h, 9, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, completions.Offset)

	var found bool
	for _, c := range completions.Items {
		if c.Label == "text" {
			found = true
		}
	}
	assert.True(t, found)

	_, ok, err = eng.Autocomplete(h, 100, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHover(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)
	_, err := eng.Compile(context.Background(), h, "#rect(width: 1cm)\n\n#h(1in)", "")
	require.NoError(t, err)

	html, ok, err := eng.Hover(h, 3, typeset.SideAfter)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, html, "<p>")
	assert.Contains(t, html, "rectangle")

	html, ok, err = eng.Hover(h, 23, typeset.SideAfter)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, html, "<pre><code")
	assert.Contains(t, html, "72pt")

	_, ok, err = eng.Hover(h, 17, typeset.SideAfter)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHitTest(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)
	_, ok, err := eng.HitTest(h, typeset.Point{X: 2, Y: 5})
	require.NoError(t, err)
	assert.False(t, ok, "nothing compiled yet")

	_, err = eng.Compile(context.Background(), h, "Hello world", "")
	require.NoError(t, err)

	jump, ok, err := eng.HitTest(h, typeset.Point{X: 2, Y: 5})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, engine.Jump{Offset: 0}, jump)

	_, ok, err = eng.HitTest(h, typeset.Point{X: 2, Y: 5000})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHitTestAfterAbort(t *testing.T) {
	t.Parallel()

	backend := newBoomBackend()
	eng, h := newEngine(t, engine.WithBackend(backend))
	_, err := eng.Compile(context.Background(), h, "Hello world", "")
	require.NoError(t, err)

	backend.mu.Lock()
	backend.detached = true
	backend.mu.Unlock()

	res, err := eng.Compile(context.Background(), h, "Completely different\n\ntext now", "")
	require.NoError(t, err)
	require.True(t, res.Aborted)

	jump, ok, err := eng.HitTest(h, typeset.Point{X: 2, Y: 5})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, engine.Jump{Offset: 0}, jump)
}

func TestAbortedFirstCompile(t *testing.T) {
	t.Parallel()

	backend := newBoomBackend()
	backend.detached = true
	eng, h := newEngine(t, engine.WithBackend(backend))

	res, err := eng.Compile(context.Background(), h, "Hello", "")
	require.NoError(t, err)
	require.True(t, res.Aborted)

	doc, err := eng.Document(h)
	require.NoError(t, err)
	assert.Nil(t, doc.Synthesis())
	assert.Empty(t, eng.Files().IDs())

	_, ok, err := eng.HitTest(h, typeset.Point{X: 2, Y: 5})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHitTestLink(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)
	_, err := eng.Compile(context.Background(), h, "#link(\"https://example.com\")[site]", "")
	require.NoError(t, err)

	jump, ok, err := eng.HitTest(h, typeset.Point{X: 2, Y: 5})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://example.com", jump.URL)
}

func TestRenderFixed(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)
	text := "First page\n\n#pagebreak()\n\nSecond page\n"
	_, err := eng.Compile(context.Background(), h, text, "")
	require.NoError(t, err)
	doc, err := eng.Document(h)
	require.NoError(t, err)
	preview := doc.Synthesis().Text

	out, err := eng.RenderFixed(context.Background(), h)
	require.NoError(t, err)
	require.False(t, out.Aborted)
	assert.True(t, bytes.HasPrefix(out.PDF, []byte("%PDF")))

	count, err := api.PageCount(bytes.NewReader(out.PDF), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	src, err := eng.Files().Source(doc.Path())
	require.NoError(t, err)
	assert.Equal(t, preview, src.Text())
}

func TestRenderFixedIsolatesErrors(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)
	_, err := eng.Compile(context.Background(), h, "Fine\n\n#nope\n", "")
	require.NoError(t, err)

	out, err := eng.RenderFixed(context.Background(), h)
	require.NoError(t, err)
	assert.NotEmpty(t, out.PDF)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, engine.Range{Start: 6, End: 11}, out.Diagnostics[0].Range)
}

func TestRenderFixedAborted(t *testing.T) {
	t.Parallel()

	backend := newBoomBackend()
	backend.detached = true
	eng, h := newEngine(t, engine.WithBackend(backend))

	out, err := eng.RenderFixed(context.Background(), h)
	require.NoError(t, err)
	assert.True(t, out.Aborted)
	assert.Nil(t, out.PDF)

	_, err = eng.Files().Source("doc.typ")
	require.Error(t, err, "slot is removed when nothing was compiled before")
}

func TestRendererErrorsPropagate(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t, engine.WithRenderer(failingRenderer{}))
	_, err := eng.Compile(context.Background(), h, "Hello", "")
	require.ErrorIs(t, err, errRender)
}

var errRender = errors.New("encoder broke")

type failingRenderer struct{}

func (failingRenderer) RenderFrame(*typeset.Frame, render.Options) ([]byte, error) {
	return nil, errRender
}

func (failingRenderer) RenderDocument(*typeset.Document) ([]byte, error) {
	return nil, errRender
}

func TestResources(t *testing.T) {
	t.Parallel()

	eng, h := newEngine(t)
	require.ErrorIs(t, eng.InsertSource("doc.typ", "x"), engine.ErrPathInUse)
	require.ErrorIs(t, eng.InsertFile("doc.$.typ", nil), engine.ErrPathInUse)
	require.ErrorIs(t, eng.RemoveFile("doc.typ"), engine.ErrPathInUse)

	require.NoError(t, eng.InsertFile("img/logo.png", []byte("not an image")))
	data, err := eng.Files().File("img/logo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("not an image"), data)

	require.NoError(t, eng.RemoveFile("img/logo.png"))
	_, err = eng.Files().File("img/logo.png")
	require.ErrorIs(t, err, typeset.ErrNotFound)

	require.NoError(t, eng.Close(h))
	require.NoError(t, eng.InsertSource("doc.typ", "now free"))
}

func TestSharedFileTable(t *testing.T) {
	t.Parallel()

	files := typeset.NewFileTable()
	files.SetSource("shared.typ", "#let who = [team]")

	eng := engine.New(engine.WithLogger(logging.Discard()), engine.WithFileTable(files))
	h, err := eng.Open("doc.typ")
	require.NoError(t, err)

	res, err := eng.Compile(context.Background(), h, "#import \"shared.typ\": who\n\nHello #who\n", "")
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.Len(t, res.Fragments, 1)
}
