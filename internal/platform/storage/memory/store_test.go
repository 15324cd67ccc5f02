package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/storage/tree"
)

func coletar(t *testing.T, store *Store) (<-chan domain.Snapshot, func()) {
	t.Helper()
	ch := make(chan domain.Snapshot, 1024)
	unsubscribe, err := store.Subscribe(context.Background(), func(s domain.Snapshot) {
		ch <- s
	})
	require.NoError(t, err)
	t.Cleanup(unsubscribe)
	return ch, unsubscribe
}

func proximo(t *testing.T, ch <-chan domain.Snapshot) domain.Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot nao chegou")
		return domain.Snapshot{}
	}
}

func TestStore_Subscribe_QuandoArvoreVazia_DeveDispararImediatamente(t *testing.T) {
	store := NewStore(nil)
	ch, _ := coletar(t, store)

	snap := proximo(t, ch)

	assert.Equal(t, uint64(0), snap.Version)
	assert.Empty(t, snap.Tree)
}

func TestStore_Write_QuandoProprioCliente_DeveEcoarNoSnapshot(t *testing.T) {
	store := NewStore(nil)
	ch, _ := coletar(t, store)
	proximo(t, ch)

	// Act
	err := store.Write(context.Background(), "settings/maxScore", 20)
	require.NoError(t, err)

	// Assert
	snap := proximo(t, ch)
	v, ok := tree.Get(snap.Tree, "settings/maxScore")
	assert.True(t, ok)
	assert.Equal(t, 20.0, v)
	assert.Equal(t, uint64(1), snap.Version)
}

func TestStore_Patch_QuandoCampoParcial_DeveMesclar(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "judges/j1", map[string]any{"name": "Ana", "accessCode": "4321"}))
	require.NoError(t, store.Patch(ctx, "judges/j1", map[string]any{"name": "Bia"}))

	ch, _ := coletar(t, store)
	snap := proximo(t, ch)

	name, _ := tree.Get(snap.Tree, "judges/j1/name")
	code, _ := tree.Get(snap.Tree, "judges/j1/accessCode")
	assert.Equal(t, "Bia", name)
	assert.Equal(t, "4321", code)
}

func TestStore_Delete_QuandoCaminhoExiste_DeveRemover(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "performances/p1", map[string]any{"name": "Solo"}))
	require.NoError(t, store.Delete(ctx, "performances/p1"))

	ch, _ := coletar(t, store)
	snap := proximo(t, ch)

	_, ok := tree.Get(snap.Tree, "performances/p1")
	assert.False(t, ok)
}

func TestStore_Write_QuandoEscritoresConcorrentes_DeveEntregarVersoesCrescentes(t *testing.T) {
	store := NewStore(nil)
	ch, _ := coletar(t, store)
	proximo(t, ch)

	const jurados = 20
	var wg sync.WaitGroup
	for i := 0; i < jurados; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("scores/j%d_p1", i)
			assert.NoError(t, store.Write(context.Background(), path, map[string]any{"value": 5.0}))
		}(i)
	}
	wg.Wait()

	var ultimo uint64
	var snap domain.Snapshot
	for i := 0; i < jurados; i++ {
		snap = proximo(t, ch)
		assert.Greater(t, snap.Version, ultimo)
		ultimo = snap.Version
	}

	scores, ok := tree.Get(snap.Tree, "scores")
	require.True(t, ok)
	assert.Len(t, scores, jurados)
}

func TestStore_Snapshot_NaoDeveMudarAposNovaEscrita(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	ch, _ := coletar(t, store)
	proximo(t, ch)

	require.NoError(t, store.Write(ctx, "settings/maxScore", 10))
	primeiro := proximo(t, ch)
	require.NoError(t, store.Write(ctx, "settings/maxScore", 30))
	proximo(t, ch)

	v, _ := tree.Get(primeiro.Tree, "settings/maxScore")
	assert.Equal(t, 10.0, v)
}

func TestStore_Unsubscribe_DeveInterromperEntregas(t *testing.T) {
	store := NewStore(nil)
	ch, unsubscribe := coletar(t, store)
	proximo(t, ch)

	unsubscribe()
	require.NoError(t, store.Write(context.Background(), "settings/maxScore", 15))

	select {
	case s := <-ch:
		t.Fatalf("nao esperava snapshot apos cancelar, veio versao %d", s.Version)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStore_Subscribe_QuandoContextoCancelado_DeveCancelarAssinatura(t *testing.T) {
	store := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan domain.Snapshot, 8)

	_, err := store.Subscribe(ctx, func(s domain.Snapshot) { ch <- s })
	require.NoError(t, err)
	proximo(t, ch)

	cancel()
	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.subs) == 0
	}, time.Second, 10*time.Millisecond)
}
