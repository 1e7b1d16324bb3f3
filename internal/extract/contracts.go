package extract

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/bizscan/internal/entity"
)

// Image is a prepared certificate photo ready for the vision model.
type Image struct {
	FileName   string
	Data       []byte
	MIME       string
	Compressed bool
}

// RecordExtractor turns one certificate image into a record.
type RecordExtractor interface {
	Prepare(fileName string, data []byte) Image
	Extract(ctx context.Context, img Image) (entity.Record, error)
}

// Candidate is one (API key, model) pair to try.
type Candidate struct {
	KeyIndex int
	APIKey   string
	Model    string
}

// Candidates lists every (key, model) pair in priority order: keys outer, models inner.
func Candidates(keys, models []string) []Candidate {
	out := make([]Candidate, 0, len(keys)*len(models))
	for i, k := range keys {
		for _, m := range models {
			out = append(out, Candidate{KeyIndex: i, APIKey: k, Model: m})
		}
	}
	return out
}

// ExtractionError is returned when every candidate failed for an image.
type ExtractionError struct {
	FileName string
	Attempts int
	Last     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: all %d attempts failed: %v", e.FileName, e.Attempts, e.Last)
}

func (e *ExtractionError) Unwrap() error { return e.Last }
