package knowledge

import (
	"context"
	"strings"
	"time"
)

// DefaultLatency mimics the round trip of a remote index.
const DefaultLatency = 400 * time.Millisecond

// TriggerKeywords are the lower-case substrings that make the stand-in return its records.
var TriggerKeywords = []string{"remoto", "monitor", "copilot", "licencia", "laptop"}

// fixedRecords is the process-wide record set served by KeywordRetriever. Never mutated.
var fixedRecords = []Record{
	{
		DocID:       "POL-RW-2024",
		Title:       "Política de Trabajo Remoto y Equipamiento",
		Section:     "4.2 Equipamiento periférico",
		VersionDate: "2024-03-01",
		Text: "Los colaboradores con modalidad de trabajo remoto aprobada pueden solicitar un monitor " +
			"adicional y accesorios ergonómicos a través del portal de Mesa de Ayuda, categoría " +
			"'Hardware > Periféricos'. La solicitud requiere aprobación del jefe directo. Las laptops " +
			"corporativas deben conectarse mediante la VPN corporativa y mantener el cifrado de disco " +
			"activo. Está prohibido almacenar información clasificada en equipos personales.",
		RelevanceScore: 0.92,
	},
	{
		DocID:       "LIC-MS-365",
		Title:       "Gestión de Licencias Microsoft 365 y Copilot",
		Section:     "2.1 Asignación de licencias",
		VersionDate: "2024-05-15",
		Text: "Las licencias de Microsoft 365 E3 se asignan automáticamente al alta del colaborador. " +
			"Microsoft Copilot requiere una licencia adicional que se solicita mediante ticket a Mesa " +
			"de Ayuda con justificación de negocio y aprobación del gerente del área. El tiempo de " +
			"asignación es de hasta 3 días hábiles. Las licencias no utilizadas por 60 días se reasignan.",
		RelevanceScore: 0.88,
	},
}

// FixedRecords returns a copy of the stand-in record set.
func FixedRecords() []Record {
	out := make([]Record, len(fixedRecords))
	copy(out, fixedRecords)
	return out
}

// KeywordRetriever is the placeholder semantic search: after a simulated latency it returns
// every fixed record when the query contains a trigger keyword, nothing otherwise. Scores are
// carried along but never used for filtering or ordering.
type KeywordRetriever struct {
	Latency  time.Duration
	Keywords []string
}

func NewKeywordRetriever(latency time.Duration) *KeywordRetriever {
	return &KeywordRetriever{
		Latency:  latency,
		Keywords: TriggerKeywords,
	}
}

func (k *KeywordRetriever) Search(ctx context.Context, query string) ([]Record, error) {
	if k.Latency > 0 {
		timer := time.NewTimer(k.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if !k.Matches(query) {
		return []Record{}, nil
	}
	return FixedRecords(), nil
}

// Matches reports whether query contains any trigger keyword, case-insensitively.
func (k *KeywordRetriever) Matches(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range k.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
