package drafts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/placar-show/internal/domain"
)

// fakeRepo conta gravacoes para verificar o debounce.
type fakeRepo struct {
	mu      sync.Mutex
	drafts  map[Key]domain.Draft
	saves   int
	deletes int
	failing bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{drafts: map[Key]domain.Draft{}}
}

func (f *fakeRepo) Get(ctx context.Context, judgeID, performanceID string) (domain.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[Key{judgeID, performanceID}]
	if !ok {
		return domain.Draft{}, domain.ErrNotFound
	}
	return d, nil
}

func (f *fakeRepo) Save(ctx context.Context, d domain.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.failing {
		return errors.New("disco cheio")
	}
	f.drafts[Key{d.JudgeID, d.PerformanceID}] = d
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, judgeID, performanceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.drafts, Key{judgeID, performanceID})
	return nil
}

func (f *fakeRepo) contagem() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves, f.deletes
}

const janela = 30 * time.Millisecond

var chave = Key{JudgeID: "j1", PerformanceID: "p1"}

func TestCache_Edit_QuandoEdicoesNaJanela_DeveGravarUmaVez(t *testing.T) {
	repo := newFakeRepo()
	cache := NewCache(repo, WithWindow(janela))

	// Act
	for i := 1; i <= 5; i++ {
		cache.Edit(chave, float64(i), "rascunho")
		time.Sleep(5 * time.Millisecond)
	}

	// Assert
	require.Eventually(t, func() bool { return cache.Status(chave).Saved }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * janela)
	saves, _ := repo.contagem()
	assert.Equal(t, 1, saves)

	d, err := repo.Get(context.Background(), "j1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, d.Score)
}

func TestCache_Status_QuandoPendente_DeveFicarNaoSalvo(t *testing.T) {
	cache := NewCache(newFakeRepo(), WithWindow(time.Hour))

	assert.True(t, cache.Status(chave).Saved)
	cache.Edit(chave, 7, "")
	assert.False(t, cache.Status(chave).Saved)
}

func TestCache_Drop_QuandoPendente_NaoDeveGravar(t *testing.T) {
	repo := newFakeRepo()
	cache := NewCache(repo, WithWindow(janela))

	cache.Edit(chave, 8, "bom")
	require.NoError(t, cache.Drop(context.Background(), chave))

	time.Sleep(3 * janela)
	saves, deletes := repo.contagem()
	assert.Equal(t, 0, saves)
	assert.Equal(t, 1, deletes)
	assert.True(t, cache.Status(chave).Saved)
}

func TestCache_Flush_DeveGravarImediatamenteSemDuplicar(t *testing.T) {
	repo := newFakeRepo()
	cache := NewCache(repo, WithWindow(janela))

	cache.Edit(chave, 6.5, "ok")
	cache.Flush(context.Background(), chave)

	saves, _ := repo.contagem()
	assert.Equal(t, 1, saves)
	assert.True(t, cache.Status(chave).Saved)

	time.Sleep(3 * janela)
	saves, _ = repo.contagem()
	assert.Equal(t, 1, saves)
}

func TestCache_Close_DeveDescarregarTodasAsChaves(t *testing.T) {
	repo := newFakeRepo()
	cache := NewCache(repo, WithWindow(time.Hour))
	outra := Key{JudgeID: "j2", PerformanceID: "p1"}

	cache.Edit(chave, 5, "")
	cache.Edit(outra, 4, "")
	cache.Close(context.Background())

	saves, _ := repo.contagem()
	assert.Equal(t, 2, saves)
}

func TestCache_Load_QuandoNotaEnviada_DeveIgnorarRascunho(t *testing.T) {
	repo := newFakeRepo()
	repo.drafts[chave] = domain.Draft{JudgeID: "j1", PerformanceID: "p1", Score: 3, Comment: "velho"}
	cache := NewCache(repo)

	entry, err := cache.Load(context.Background(), chave, &domain.Score{Value: 9, Comment: "final"})

	require.NoError(t, err)
	assert.Equal(t, Entry{Score: 9, Comment: "final", Submitted: true}, entry)
}

func TestCache_Load_QuandoSemNada_DeveRetornarZero(t *testing.T) {
	cache := NewCache(newFakeRepo())

	entry, err := cache.Load(context.Background(), chave, nil)

	require.NoError(t, err)
	assert.Equal(t, Entry{}, entry)
}

func TestCache_Load_QuandoPendente_DeveRetornarEdicaoMaisRecente(t *testing.T) {
	repo := newFakeRepo()
	repo.drafts[chave] = domain.Draft{JudgeID: "j1", PerformanceID: "p1", Score: 3}
	cache := NewCache(repo, WithWindow(time.Hour))

	cache.Edit(chave, 8, "novo")
	entry, err := cache.Load(context.Background(), chave, nil)

	require.NoError(t, err)
	assert.Equal(t, 8.0, entry.Score)
	assert.Equal(t, "novo", entry.Comment)
}

func TestCache_Save_QuandoRepositorioFalha_DeveExporErro(t *testing.T) {
	repo := newFakeRepo()
	repo.failing = true
	cache := NewCache(repo, WithWindow(janela))

	cache.Edit(chave, 5, "")
	cache.Flush(context.Background(), chave)

	st := cache.Status(chave)
	assert.False(t, st.Saved)
	assert.Error(t, st.Err)
}

// repoLento segura o Save ate ser liberado, para simular gravacao em voo.
type repoLento struct {
	*fakeRepo
	entrou  chan struct{}
	liberar chan struct{}
}

func (r *repoLento) Save(ctx context.Context, d domain.Draft) error {
	close(r.entrou)
	<-r.liberar
	return r.fakeRepo.Save(ctx, d)
}

func TestDrop_QuandoGravacaoEmVoo_NaoDeveRessuscitarRascunho(t *testing.T) {
	// Arrange
	repo := &repoLento{fakeRepo: newFakeRepo(), entrou: make(chan struct{}), liberar: make(chan struct{})}
	cache := NewCache(repo, WithWindow(5*time.Millisecond))
	key := Key{JudgeID: "j1", PerformanceID: "p1"}
	cache.Edit(key, 8, "em voo")
	<-repo.entrou

	// Act
	dropped := make(chan error, 1)
	go func() { dropped <- cache.Drop(context.Background(), key) }()
	close(repo.liberar)
	require.NoError(t, <-dropped)

	// Assert
	_, err := repo.Get(context.Background(), "j1", "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCache_QuandoGravacoesTerminam_NaoDeveGuardarEstadoPorChave(t *testing.T) {
	// Arrange
	repo := newFakeRepo()
	cache := NewCache(repo, WithWindow(janela))
	outra := Key{JudgeID: "j1", PerformanceID: "p2"}
	terceira := Key{JudgeID: "j2", PerformanceID: "p1"}

	// Act
	cache.Edit(chave, 5, "")
	cache.Flush(context.Background(), chave)
	cache.Edit(outra, 6, "")
	require.NoError(t, cache.Drop(context.Background(), terceira))

	// Assert
	require.Eventually(t, func() bool {
		saves, _ := repo.contagem()
		return saves == 2
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return cache.tracked() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, cache.Status(chave).Saved)
	assert.True(t, cache.Status(outra).Saved)
}

func TestCache_QuandoGravacaoFalha_DeveGuardarErroAteProximaGravacao(t *testing.T) {
	repo := newFakeRepo()
	repo.failing = true
	cache := NewCache(repo, WithWindow(time.Hour))

	cache.Edit(chave, 5, "")
	cache.Flush(context.Background(), chave)
	assert.Equal(t, 1, cache.tracked())

	repo.mu.Lock()
	repo.failing = false
	repo.mu.Unlock()
	cache.Edit(chave, 5, "")
	cache.Flush(context.Background(), chave)

	assert.Equal(t, 0, cache.tracked())
	assert.True(t, cache.Status(chave).Saved)
}
