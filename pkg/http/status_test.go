package xhttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func TestStatusText(t *testing.T) {
	assert.Equal(t, fasthttp.StatusMessage(fasthttp.StatusNotFound), StatusText(StatusNotFound))
	assert.Equal(t, fasthttp.StatusMessage(fasthttp.StatusRequestTimeout), StatusText(StatusRequestTimeout))
	assert.Equal(t, fasthttp.StatusMessage(fasthttp.StatusInternalServerError), StatusText(StatusInternalServerError))
	assert.NotEmpty(t, StatusText(StatusNotFound))
}
