package retrieval

import (
	"encoding/json"
	"fmt"
	"strings"

	"school-assistant/internal/domain/model"
)

// Outcome selects the answer instruction.
type Outcome int

const (
	// OutcomeData: the plan matched rows; answer only from them.
	OutcomeData Outcome = iota
	// OutcomeNoMatch: the plan named sources but no rows survived.
	OutcomeNoMatch
	// OutcomeOutOfScope: the planner found nothing relevant.
	OutcomeOutOfScope
)

func (o Outcome) String() string {
	switch o {
	case OutcomeData:
		return "data"
	case OutcomeNoMatch:
		return "no_match"
	default:
		return "out_of_scope"
	}
}

func Classify(plan model.RetrievalPlan, subset *Subset) Outcome {
	switch {
	case plan.Empty():
		return OutcomeOutOfScope
	case subset == nil || subset.Empty():
		return OutcomeNoMatch
	default:
		return OutcomeData
	}
}

const assistantName = `"Asisten Guru AI"`

// ChartInstruction asks the model to embed chart blocks when a visualization is requested.
var ChartInstruction = `PENTING: Jika pengguna meminta visualisasi data (seperti grafik, diagram, perbandingan, rekapitulasi, atau distribusi), Anda HARUS menyertakan satu atau lebih blok data grafik dalam format JSON di dalam respons teks Anda.
- Gunakan tipe grafik 'pie' untuk proporsi (seperti persentase gender).
- Gunakan tipe grafik 'bar' untuk perbandingan antar kategori (seperti jumlah siswa per kelas).
Struktur JSON untuk setiap grafik adalah: {"type":"pie|bar","title":"Judul Grafik","data":{"labels":[...],"datasets":[{"label":"...","data":[...],"backgroundColor":["#hex",...]}]}}
Setiap blok JSON HARUS dibungkus dengan tag ` + chartOpen + ` dan ` + chartClose + `.
Jika tidak ada permintaan visualisasi, jawablah seperti biasa tanpa tag atau JSON.`

// AnswerInstruction builds the system instruction for the generation call.
func AnswerInstruction(outcome Outcome, question, schoolName string, subset *Subset) string {
	who := "Anda adalah " + assistantName
	if s := strings.TrimSpace(schoolName); s != "" {
		who += " untuk " + s
	}

	var b strings.Builder
	switch outcome {
	case OutcomeData:
		data, err := json.Marshal(subset)
		if err != nil {
			data = []byte("{}")
		}
		fmt.Fprintf(&b, "%s. Gunakan HANYA data CSV dalam format string JSON berikut untuk menjawab pertanyaan pengguna. "+
			"Kunci JSON adalah nama data (misal \"SISWA\") dan nilainya adalah konten CSV. Jangan mengacu pada data lain dan jangan mengarang informasi. "+
			"Jawablah dengan ramah, jelas, dan profesional dalam Bahasa Indonesia. Sajikan jawaban yang jelas, buat tabel jika diminta.\n\n", who)
		b.WriteString(ChartInstruction)
		b.WriteString("\n\nData: ")
		b.Write(data)
	case OutcomeNoMatch:
		fmt.Fprintf(&b, "%s. Jawab pertanyaan: %q. Data sekolah yang relevan sudah diperiksa, tetapi tidak ada baris yang cocok dengan pertanyaan tersebut. "+
			"Beritahu pengguna dengan sopan bahwa data yang dicari tidak ditemukan, dan sarankan untuk memeriksa ejaan nama, kelas, atau kata kunci lain. Jangan mengarang informasi.", who, question)
	default:
		fmt.Fprintf(&b, "%s. Jawab pertanyaan: %q. Beritahu pengguna dengan sopan bahwa data yang relevan tidak ditemukan atau pertanyaan mereka mungkin di luar lingkup data sekolah. "+
			"Jangan mengarang informasi.", who, question)
	}
	return b.String()
}

// PlannerPrompt asks for the sources and filters needed to answer question.
func PlannerPrompt(question, schemaJSON string) string {
	return fmt.Sprintf("Analyze the user's question and the available data schemas to determine which sheets and filters are needed. "+
		"Question: %q. Schemas: %s. "+
		"Return only relevant sheets, using the exact sheet names and column headers from the schemas. "+
		"Use broad 'contains' logic for filter values. If no sheet is relevant, return an empty searches list.", question, schemaJSON)
}

// StartersPrompt asks for four example questions answerable from the schema.
func StartersPrompt(schemaJSON string) string {
	return `Anda adalah AI yang bertugas membuat contoh pertanyaan untuk ` + assistantName + `.
Berdasarkan skema data CSV berikut, buatlah 4 contoh pertanyaan yang beragam, relevan, dan bermanfaat yang mungkin ditanyakan oleh seorang guru.
Pastikan pertanyaan tersebut praktis dan dapat dijawab langsung dari kolom data yang tersedia.
Hindari pertanyaan yang terlalu umum atau terlalu spesifik yang mungkin tidak ada datanya.
Fokus pada pertanyaan tentang siswa, kelas, pelanggaran, dan data guru.

Skema Data:
` + schemaJSON + `

KEMBALIKAN HANYA dalam format JSON dengan struktur: { "questions": ["pertanyaan 1", "pertanyaan 2", "pertanyaan 3", "pertanyaan 4"] }`
}
