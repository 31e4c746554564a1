package writers

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	api.DisableConfigDir()
}

// PDFCPUOptimizer дополнительная оптимизация готового PDF через pdfcpu
type PDFCPUOptimizer struct {
	conf *model.Configuration
}

// NewPDFCPUOptimizer создает оптимизатор pdfcpu
func NewPDFCPUOptimizer() *PDFCPUOptimizer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFCPUOptimizer{conf: conf}
}

// Optimize удаляет дублирующиеся объекты и пересжимает потоки
func (o *PDFCPUOptimizer) Optimize(data []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &out, o.conf); err != nil {
		return nil, fmt.Errorf("ошибка оптимизации PDFCPU: %w", err)
	}
	return out.Bytes(), nil
}
