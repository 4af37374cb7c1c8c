package attachment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/layoutgen/core"
)

type stubRenderer struct {
	png []byte
	err error
}

func (s stubRenderer) Render(context.Context, string, core.EditorContext) ([]byte, error) {
	return s.png, s.err
}

func TestFromURL(t *testing.T) {
	a := FromURL("<div>picked</div>", "https://www.example.com:8080/about?x=1")
	assert.Equal(t, core.Attachment{
		Type:        TypeURL,
		PreviewHTML: "<div>picked</div>",
		Content:     "<div>picked</div>",
		Label:       "www.example.com:8080",
		Source:      SourceUserURL,
	}, a)

	assert.Empty(t, FromURL("<div/>", "").Label)
}

func TestOrigin(t *testing.T) {
	assert.Equal(t, "https://app.example.com", Origin("https://app.example.com/selector?target=x"))
	assert.Equal(t, "http://localhost:3000", Origin("http://localhost:3000/"))
	assert.Empty(t, Origin("not a url"))
	assert.Empty(t, Origin(""))
}

func TestFromJSON(t *testing.T) {
	t.Run("without renderer", func(t *testing.T) {
		a, err := FromJSON(context.Background(), `{"elType":"container"}`, "Copied section", "<p>x</p>", nil)
		require.NoError(t, err)
		assert.Equal(t, TypeJSON, a.Type)
		assert.Empty(t, a.PreviewHTML)
	})

	t.Run("with renderer", func(t *testing.T) {
		a, err := FromJSON(context.Background(), `{}`, "", "<p>x</p>", stubRenderer{png: []byte("png")})
		require.NoError(t, err)
		assert.Equal(t, `<img src="data:image/png;base64,cG5n" />`, a.PreviewHTML)
	})

	t.Run("renderer failure", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := FromJSON(context.Background(), `{}`, "", "<p>x</p>", stubRenderer{err: boom})
		assert.ErrorIs(t, err, boom)
	})
}
