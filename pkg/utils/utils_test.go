package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	logger, err := NewLogger(LoggerConfig{Level: "debug", OutputPath: path, Format: "json"})
	require.NoError(t, err)
	logger.Info("ficha moved")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"ficha moved"`)
	assert.Contains(t, string(content), `"timestamp"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("joana.silva@fundicao.com.br"))
	assert.Error(t, ValidateEmail("joana"))
	assert.Error(t, ValidateEmail("joana@local"))
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "control characters", in: "  Trinca\x00 na base\x7f ", want: "Trinca na base"},
		{name: "keeps line breaks", in: "Trinca na base\nporosidade no canal\r\nrebarba", want: "Trinca na base\nporosidade no canal\r\nrebarba"},
		{name: "keeps tabs", in: "cota\t12,5 mm", want: "cota\t12,5 mm"},
		{name: "escape and bell", in: "a\x1b[31mb\x07", want: "a[31mb"},
		{name: "trims surrounding line breaks", in: "\n nota \n", want: "nota"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeString(tt.in))
		})
	}
}

func TestSanitizeLine(t *testing.T) {
	assert.Equal(t, "Ana Souza", SanitizeLine(" Ana\n Souza\t"))
	assert.Equal(t, "Moldagem", SanitizeLine("Mol\r\ndagem\x00"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "foto.jpg", want: "foto.jpg"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: `C:\fotos\peça 01.png`, want: "peça 01.png"},
		{in: "a;rm -rf.png", want: "a_rm -rf.png"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}
