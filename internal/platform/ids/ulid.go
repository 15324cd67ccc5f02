// Pacote ids gera identificadores ULID e codigos de acesso dos jurados.
package ids

import (
	"fmt"
	"math/rand"
	randv2 "math/rand/v2"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Codigos de acesso tem sempre quatro digitos.
const (
	accessCodeMin = 1000
	accessCodeMax = 9999
)

// Generator produz ULIDs monotonicos: ids criados em sequencia ordenam por criacao,
// inclusive dentro do mesmo milissegundo.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewGenerator() *Generator {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Generator{
		entropy: ulid.Monotonic(src, 0),
	}
}

func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), g.entropy).String()
}

// AccessCode sorteia um codigo numerico de quatro digitos (1000..9999).
func AccessCode() string {
	//nolint:gosec // codigo de acesso nao e segredo criptografico.
	return fmt.Sprintf("%d", accessCodeMin+randv2.IntN(accessCodeMax-accessCodeMin+1))
}
