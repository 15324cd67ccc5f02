package suggest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/marcelojr/placar-show/internal/domain"
)

// Faixas de desempenho usadas para orientar o tom do comentario.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// BandFor classifica a nota em percentual da escala: acima de 80, de 50 a 80, abaixo de 50.
func BandFor(score, maxScore float64) Band {
	if maxScore <= 0 {
		maxScore = domain.DefaultMaxScore
	}
	pct := score / maxScore * 100
	switch {
	case pct > 80:
		return BandHigh
	case pct >= 50:
		return BandMedium
	default:
		return BandLow
	}
}

var bandGuidance = map[Band]string{
	BandHigh:   "Điểm cao: hãy khen ngợi sự sáng tạo, kỹ thuật và biểu cảm.",
	BandMedium: "Điểm trung bình: ghi nhận sự cố gắng và nhẹ nhàng chỉ ra điều cần cải thiện.",
	BandLow:    "Điểm thấp: góp ý thẳng thắn, lịch sự về khâu chuẩn bị.",
}

// BuildPrompt monta o pedido de comentario curto (1-2 frases) no idioma do evento.
func BuildPrompt(req domain.SuggestionRequest) string {
	maxScore := req.MaxScore
	if maxScore <= 0 {
		maxScore = domain.DefaultMaxScore
	}

	var b strings.Builder
	b.WriteString("Bạn là giám khảo chuyên nghiệp của một cuộc thi văn nghệ.\n")
	fmt.Fprintf(&b, "Viết một nhận xét ngắn (1-2 câu), mang tính xây dựng, bằng tiếng Việt cho tiết mục \"%s\".\n", req.PerformanceName)
	fmt.Fprintf(&b, "Điểm đã chấm: %s/%s.\n", formatScore(req.Score), formatScore(maxScore))
	b.WriteString(bandGuidance[BandFor(req.Score, maxScore)])
	b.WriteString("\nChỉ trả về nội dung nhận xét, không thêm lời dẫn.")
	return b.String()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
