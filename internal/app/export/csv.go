// Pacote export gera a planilha de resultados consumida no Excel.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/marcelojr/placar-show/internal/app/results"
)

// BOM faz o Excel abrir o arquivo como UTF-8.
const BOM = "\ufeff"

// Cabecalhos no idioma do evento.
var Headers = []string{
	"Hạng",
	"Tiết mục",
	"Người trình bày/Nhóm",
	"Điểm Trung Bình",
	"Tổng Điểm",
	"Số Giám Khảo Đã Chấm",
}

// WriteCSV escreve BOM, cabecalho e uma linha por resultado na ordem do ranking.
// Campos com virgula, aspas ou quebra de linha saem entre aspas, com aspas duplicadas.
func WriteCSV(w io.Writer, rows []results.Row) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("export: escrever BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("export: escrever cabecalho: %w", err)
	}

	for i, row := range rows {
		record := []string{
			strconv.Itoa(i + 1),
			row.Performance.Name,
			row.Performance.Performer,
			strconv.FormatFloat(row.Average, 'f', 2, 64),
			strconv.FormatFloat(row.Total, 'f', -1, 64),
			strconv.Itoa(row.Votes),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export: escrever linha %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: finalizar csv: %w", err)
	}
	return nil
}

// Filename monta o nome do arquivo baixado, ex.: ket_qua_thi_van_nghe_2025-03-08.csv.
func Filename(date string) string {
	return fmt.Sprintf("ket_qua_thi_van_nghe_%s.csv", date)
}
