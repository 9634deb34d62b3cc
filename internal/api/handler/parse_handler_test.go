package handler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-extractor-go/internal/api/handler"
	"resume-extractor-go/internal/config"
	"resume-extractor-go/internal/extractor"
)

// 同步解析链路只依赖抽取引擎, 存储传nil即可
func newSyncOnlyHandler() *handler.ParseHandler {
	cfg := &config.Config{Extractor: extractor.DefaultConfig()}
	engine := extractor.NewEngine(cfg.Extractor)
	return handler.NewParseHandler(cfg, nil, engine)
}

func TestHandleParse(t *testing.T) {
	h := newSyncOnlyHandler()

	result, err := h.HandleParse(context.Background(), &handler.ParseRequest{
		Text: "Jane Doe\njane.doe@example.com\n(555) 123-4567",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Jane Doe", result.PersonalDetails.FullName)
	assert.Equal(t, "jane.doe@example.com", result.PersonalDetails.EmailID)
	assert.Equal(t, "(555) 123-4567", result.PersonalDetails.PhoneNumber)
	assert.True(t, result.ParsingMetadata.BRDCompliant)
}

func TestHandleParseEmptyText(t *testing.T) {
	h := newSyncOnlyHandler()

	_, err := h.HandleParse(context.Background(), &handler.ParseRequest{Text: "   \n\t"})
	assert.Error(t, err)

	_, err = h.HandleParse(context.Background(), nil)
	assert.Error(t, err)
}

func TestHandleParseUsesFilenameHint(t *testing.T) {
	h := newSyncOnlyHandler()

	// 正文没有姓名时从文件名回退
	result, err := h.HandleParse(context.Background(), &handler.ParseRequest{
		Text:     "jsmith9@corp.com\n(555) 123-4567\n\nEXPERIENCE\nEngineer at Acme Corp\n2019 - Present",
		Filename: "John_Smith_Resume.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "John Smith", result.PersonalDetails.FullName)
}
