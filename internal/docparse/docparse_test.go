package docparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/understory/internal/model"
)

func TestParseDocstring_Keyword(t *testing.T) {
	t.Parallel()
	doc := ParseDocstring(`Run the pipeline.

Args:
    root: The project root.
    config: Pipeline configuration
        spanning two lines.

Returns:
    The analysis result.

Raises:
    ValueError: on bad config.
`)
	require.Len(t, doc.Params, 2)
	assert.Equal(t, model.DocParam{Name: "root", Desc: "The project root."}, doc.Params[0])
	assert.Equal(t, "config", doc.Params[1].Name)
	assert.Equal(t, "Pipeline configuration spanning two lines.", doc.Params[1].Desc)
	assert.Equal(t, "The analysis result.", doc.Returns)
	assert.Equal(t, []string{"ValueError"}, doc.Throws)
}

func TestParseDocstring_Sphinx(t *testing.T) {
	t.Parallel()
	doc := ParseDocstring(`Run the pipeline.

:param root: The project root.
:param str config: Pipeline configuration.
:returns: The analysis result.
:raises ValueError: on bad config.
`)
	require.Len(t, doc.Params, 2)
	assert.Equal(t, "root", doc.Params[0].Name)
	assert.Equal(t, "config", doc.Params[1].Name)
	assert.Equal(t, "Pipeline configuration.", doc.Params[1].Desc)
	assert.Equal(t, "The analysis result.", doc.Returns)
	assert.Equal(t, []string{"ValueError"}, doc.Throws)
}

func TestParseDocstring_Numpy(t *testing.T) {
	t.Parallel()
	doc := ParseDocstring(`Run the pipeline.

Parameters
----------
root : str
    The project root.
config : Config
    Pipeline configuration.

Returns
-------
AnalysisResult
    The analysis result.
`)
	require.Len(t, doc.Params, 2)
	assert.Equal(t, model.DocParam{Name: "root", Desc: "The project root."}, doc.Params[0])
	assert.Equal(t, model.DocParam{Name: "config", Desc: "Pipeline configuration."}, doc.Params[1])
	assert.Contains(t, doc.Returns, "AnalysisResult")
}

func TestParseDocstring_PlainTextOnly(t *testing.T) {
	t.Parallel()
	doc := ParseDocstring("Just a description.\nNothing structured.")
	assert.Equal(t, "Just a description.\nNothing structured.", doc.Text)
	assert.Empty(t, doc.Params)
	assert.Empty(t, doc.Returns)
}

func TestParseDocstring_Empty(t *testing.T) {
	t.Parallel()
	doc := ParseDocstring("   ")
	assert.Empty(t, doc.Text)
}

func TestParsePHPDoc(t *testing.T) {
	t.Parallel()
	doc := ParsePHPDoc(`/**
 * Charge the card.
 *
 * @param float $amount The amount in cents.
 * @param string $currency
 * @return Receipt the receipt
 * @throws PaymentError
 */`)
	assert.Equal(t, "Charge the card.", doc.Text)
	require.Len(t, doc.Params, 2)
	assert.Equal(t, model.DocParam{Name: "amount", Desc: "The amount in cents."}, doc.Params[0])
	assert.Equal(t, "currency", doc.Params[1].Name)
	assert.Equal(t, "Receipt the receipt", doc.Returns)
	assert.Equal(t, []string{"PaymentError"}, doc.Throws)
}

func TestParseJSDoc_TagsAndFlags(t *testing.T) {
	t.Parallel()
	doc := ParseJSDoc(`/**
 * Fetch a user.
 * @param {string} id - the user id
 * @param {Options} [opts] extra options
 * @returns {Promise<User>} the user
 * @throws {NotFoundError}
 * @async
 * @static
 */`)
	assert.Equal(t, "Fetch a user.", doc.Text)
	require.Len(t, doc.Params, 2)
	assert.Equal(t, model.DocParam{Name: "id", Desc: "the user id"}, doc.Params[0])
	assert.Equal(t, "opts", doc.Params[1].Name)
	assert.Equal(t, "the user", doc.Returns)
	assert.Equal(t, []string{"NotFoundError"}, doc.Throws)
	assert.True(t, doc.Async)
	assert.True(t, doc.Static)
	assert.False(t, doc.Generator)
}

func TestParseJSDoc_Inheritance(t *testing.T) {
	t.Parallel()
	doc := ParseJSDoc(`/**
 * @class
 * @extends Animal
 * @implements {Serializable}
 */`)
	assert.True(t, doc.Class)
	assert.Equal(t, []string{"Animal"}, doc.Extends)
	assert.Equal(t, []string{"Serializable"}, doc.Implements)
}

func TestStripDocBlock(t *testing.T) {
	t.Parallel()
	out := StripDocBlock("/**\n * Line one.\n *\n * Line two.\n */")
	assert.Equal(t, "Line one.\n\nLine two.", out)
}
