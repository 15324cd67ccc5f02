package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/placar-show/internal/domain"
)

type fakeProvider struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func TestSuggest_QuandoSemProvedor_DeveRetornarAvisoDeChave(t *testing.T) {
	s := NewSuggester(nil)

	got := s.Suggest(context.Background(), domain.SuggestionRequest{Score: 8, PerformanceName: "Múa lân", MaxScore: 10})

	assert.Equal(t, FallbackNoKey, got)
}

func TestSuggest_QuandoProvedorResponde_DeveRetornarTextoAparado(t *testing.T) {
	// Arrange
	fake := &fakeProvider{text: "  Tiết mục rất sáng tạo.\n"}
	s := NewSuggester(fake, WithPerMinute(60))

	// Act
	got := s.Suggest(context.Background(), domain.SuggestionRequest{Score: 9, PerformanceName: "Múa lân", MaxScore: 10})

	// Assert
	assert.Equal(t, "Tiết mục rất sáng tạo.", got)
	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "Múa lân")
	assert.Contains(t, fake.prompts[0], "9/10")
}

func TestSuggest_QuandoProvedorFalha_DeveRetornarFallbackDeErro(t *testing.T) {
	s := NewSuggester(&fakeProvider{err: errors.New("timeout")})

	got := s.Suggest(context.Background(), domain.SuggestionRequest{Score: 5, MaxScore: 10})

	assert.Equal(t, FallbackError, got)
}

func TestSuggest_QuandoRespostaVazia_DeveRetornarFallbackVazio(t *testing.T) {
	s := NewSuggester(&fakeProvider{text: "   "})

	got := s.Suggest(context.Background(), domain.SuggestionRequest{Score: 5, MaxScore: 10})

	assert.Equal(t, FallbackEmpty, got)
}

func TestSuggest_QuandoContextoCancelado_DeveRetornarFallbackDeErro(t *testing.T) {
	// Arrange: limite de 1/min com o unico token ja consumido
	s := NewSuggester(&fakeProvider{text: "ok"}, WithPerMinute(1))
	require.Equal(t, "ok", s.Suggest(context.Background(), domain.SuggestionRequest{Score: 5, MaxScore: 10}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	got := s.Suggest(ctx, domain.SuggestionRequest{Score: 5, MaxScore: 10})

	// Assert
	assert.Equal(t, FallbackError, got)
}

func TestBandFor_DeveClassificarPorPercentual(t *testing.T) {
	assert.Equal(t, BandHigh, BandFor(8.5, 10))
	assert.Equal(t, BandMedium, BandFor(8, 10))
	assert.Equal(t, BandMedium, BandFor(5, 10))
	assert.Equal(t, BandLow, BandFor(4.5, 10))
	assert.Equal(t, BandHigh, BandFor(90, 100))
	assert.Equal(t, BandHigh, BandFor(9, 0))
}

func TestBuildPrompt_QuandoEscalaAusente_DeveUsarPadrao(t *testing.T) {
	prompt := BuildPrompt(domain.SuggestionRequest{Score: 7.5, PerformanceName: "Hợp ca"})

	assert.Contains(t, prompt, "7.5/10")
	assert.Contains(t, prompt, "Hợp ca")
	assert.Contains(t, prompt, bandGuidance[BandMedium])
}

func TestNewProvider_QuandoSemChaveOuNone_DeveRetornarNil(t *testing.T) {
	p, err := NewProvider(context.Background(), ProviderOpenAI, "", "")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewProvider(context.Background(), ProviderNone, "chave", "")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewProvider(context.Background(), "desconhecido", "chave", "")
	assert.Error(t, err)
}

func TestNewProvider_QuandoOpenAIOuAnthropic_DeveConstruirSemRede(t *testing.T) {
	p, err := NewProvider(context.Background(), ProviderOpenAI, "chave", "")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = NewProvider(context.Background(), ProviderAnthropic, "chave", "")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
}
