package card

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hovercard/internal/placement"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		checkCard func(t *testing.T, c *Card)
	}{
		{
			name: "card with description and fields",
			input: `<card name="memo" title="Memo" width="30" height="8">
				<description>
					A short   internal memo.
				</description>
				<field name="to" label="To" kind="text" required="true" />
				<field name="tone" kind="select" options="dry, friendly ,," />
			</card>`,
			checkCard: func(t *testing.T, c *Card) {
				assert.Equal(t, "memo", c.Name)
				assert.Equal(t, "Memo", c.Title)
				assert.Equal(t, "A short internal memo.", c.Description)
				assert.Equal(t, placement.Size{Width: 30, Height: 8}, c.Size())
				require.Len(t, c.Fields, 2)
				assert.Equal(t, Field{Name: "to", Label: "To", Kind: FieldKindText, Required: true}, c.Fields[0])
				assert.Equal(t, "tone", c.Fields[1].Label)
				assert.Equal(t, []string{"dry", "friendly"}, c.Fields[1].Options)
				assert.Equal(t, []string{"to"}, c.RequiredFields())
			},
		},
		{
			name:  "pixel suffix and default title",
			input: `<card name="note" width="20px" height="5px"></card>`,
			checkCard: func(t *testing.T, c *Card) {
				assert.Equal(t, "note", c.Title)
				assert.Equal(t, 20, c.Width)
				assert.Empty(t, c.Fields)
			},
		},
		{
			name:    "unknown element",
			input:   `<card name="x" width="20" height="5"><button /></card>`,
			wantErr: true,
		},
		{
			name:    "unknown field kind",
			input:   `<card name="x" width="20" height="5"><field name="a" kind="slider" /></card>`,
			wantErr: true,
		},
		{
			name:    "select without options",
			input:   `<card name="x" width="20" height="5"><field name="a" kind="select" /></card>`,
			wantErr: true,
		},
		{
			name:    "missing size",
			input:   `<card name="x"></card>`,
			wantErr: true,
		},
		{
			name:    "bad width",
			input:   `<card name="x" width="wide" height="5"></card>`,
			wantErr: true,
		},
		{
			name:    "missing name",
			input:   `<card width="20" height="5"></card>`,
			wantErr: true,
		},
		{
			name:    "wrong root",
			input:   `<popup></popup>`,
			wantErr: true,
		},
		{
			name:    "empty document",
			input:   ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.checkCard != nil {
				tt.checkCard(t, c)
			}
		})
	}
}

func TestEmbeddedCards(t *testing.T) {
	names := ListEmbedded()
	for _, want := range []string{
		"apology-letter", "invitation-letter", "thank-you-letter", "cover-letter",
		"complaint-letter", "recommendation-letter", "essay", "speech", "poem", "story",
	} {
		assert.Contains(t, names, want)
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			c, err := GetEmbedded(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name)
			assert.NotEmpty(t, c.Fields)
			assert.NotEmpty(t, c.Description)
		})
	}

	_, err := GetEmbedded("nonexistent")
	assert.ErrorIs(t, err, ErrUnknownCard)
}

func TestCatalog_Load(t *testing.T) {
	dir := t.TempDir()

	override := `<card name="essay" title="Long Essay" width="50" height="20">
		<field name="topic" />
	</card>`
	extra := `<card name="limerick" title="Limerick" width="30" height="8">
		<field name="subject" />
	</card>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "essay.xml"), []byte(override), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "limerick.xml"), []byte(extra), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xml"), []byte("<card"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	cat := NewCatalog(dir, nil)
	require.NoError(t, cat.Load())

	essay, err := cat.Get("essay")
	require.NoError(t, err)
	assert.Equal(t, "Long Essay", essay.Title)

	_, err = cat.Get("limerick")
	require.NoError(t, err)

	_, err = cat.Get("broken")
	assert.ErrorIs(t, err, ErrUnknownCard)

	assert.Equal(t, len(ListEmbedded())+1, cat.Len())
	names := cat.Names()
	assert.IsIncreasing(t, names)
}

func TestCatalog_MissingUserDir(t *testing.T) {
	cat := NewCatalog(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, cat.Load())
	assert.Equal(t, len(ListEmbedded()), cat.Len())
}

func TestCatalog_NestedUserDirs(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "letters", "formal")
	require.NoError(t, os.MkdirAll(nested, 0755))

	memo := `<card name="memo" title="Memo" width="32" height="9">
		<field name="audience" />
	</card>`
	require.NoError(t, os.WriteFile(filepath.Join(nested, "memo.xml"), []byte(memo), 0644))

	cat := NewCatalog(dir, nil)
	require.NoError(t, cat.Load())

	c, err := cat.Get("memo")
	require.NoError(t, err)
	assert.Equal(t, 32, c.Width)
	assert.Equal(t, len(ListEmbedded())+1, cat.Len())
}

func TestCatalog_UserPathIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	cat := NewCatalog(path, nil)
	assert.Error(t, cat.Load())
}
