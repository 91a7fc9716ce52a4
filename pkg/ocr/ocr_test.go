package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/morphic/pkg/hocr"
)

type stubEngine struct {
	name string
	err  error
}

func (s *stubEngine) Name() string     { return s.name }
func (s *stubEngine) Available() error { return s.err }
func (s *stubEngine) Recognize(context.Context, image.Image, int) (*hocr.Page, error) {
	return &hocr.Page{}, nil
}

func TestSelectEnginePrimaryAvailable(t *testing.T) {
	primary := &stubEngine{name: "primary"}
	var log bytes.Buffer

	engine, err := SelectEngine(primary, &stubEngine{name: "fallback"}, &log)
	require.NoError(t, err)
	assert.Equal(t, "primary", engine.Name())
	assert.Empty(t, log.String())
}

func TestSelectEngineDegradesToFallback(t *testing.T) {
	primary := &stubEngine{name: "primary", err: errors.New("no credentials")}
	fallback := &stubEngine{name: "fallback"}
	var log bytes.Buffer

	engine, err := SelectEngine(primary, fallback, &log)
	require.NoError(t, err)
	assert.Equal(t, "fallback", engine.Name())
	assert.Contains(t, log.String(), "falling back to fallback")
}

func TestSelectEngineNoFallbackIsFatal(t *testing.T) {
	primary := &stubEngine{name: "primary", err: errors.New("not installed")}
	var log bytes.Buffer

	_, err := SelectEngine(primary, nil, &log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary unavailable")
}

func TestSelectEngineBothUnavailable(t *testing.T) {
	primary := &stubEngine{name: "primary", err: errors.New("a")}
	fallback := &stubEngine{name: "fallback", err: errors.New("b")}
	var log bytes.Buffer

	_, err := SelectEngine(primary, fallback, &log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback unavailable")
}
